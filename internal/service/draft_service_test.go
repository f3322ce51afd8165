package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

func newDraftFixture(t *testing.T) (*DraftService, *WorkflowService) {
	t.Helper()
	workflow := NewWorkflowService(WorkflowDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Dispatcher: &recordingDispatcher{},
	})
	return NewDraftService(repository.NewMemoryDraftStore(), workflow), workflow
}

// TestDraft_StartReplacesUnfinished verifies restarting wipes an earlier draft.
func TestDraft_StartReplacesUnfinished(t *testing.T) {
	t.Parallel()
	drafts, _ := newDraftFixture(t)
	ctx := context.Background()

	_, err := drafts.Start(ctx, "da-7")
	require.NoError(t, err)
	_, err = drafts.SetField(ctx, "da-7", domain.DraftFieldOrderRef, "ANR-123")
	require.NoError(t, err)

	_, err = drafts.Start(ctx, "da-7")
	require.NoError(t, err)

	draft, err := drafts.Get(ctx, "da-7")
	require.NoError(t, err)
	require.Empty(t, draft.OrderRef)
	require.Empty(t, draft.Edits)
}

// TestDraft_SetFieldValidatesName rejects unknown field names.
func TestDraft_SetFieldValidatesName(t *testing.T) {
	t.Parallel()
	drafts, _ := newDraftFixture(t)
	ctx := context.Background()

	_, err := drafts.Start(ctx, "da-7")
	require.NoError(t, err)

	_, err = drafts.SetField(ctx, "da-7", domain.DraftField("priority"), "high")
	require.True(t, util.IsCode(err, util.CodeValidationFailed))
}

// TestDraft_FinalizeCommitsEditsInOrder verifies the ticket carries the edit
// trail followed by the creation event, and the draft session is gone.
func TestDraft_FinalizeCommitsEditsInOrder(t *testing.T) {
	t.Parallel()
	drafts, workflow := newDraftFixture(t)
	ctx := context.Background()

	_, err := drafts.Start(ctx, "da-7")
	require.NoError(t, err)
	_, err = drafts.SetField(ctx, "da-7", domain.DraftFieldOrderRef, "ANR-123")
	require.NoError(t, err)
	_, err = drafts.SetField(ctx, "da-7", domain.DraftFieldClient, "acme")
	require.NoError(t, err)

	ticket, err := drafts.Finalize(ctx, "da-7")
	require.NoError(t, err)
	require.Equal(t, "ANR-123", ticket.OrderRef)
	require.Equal(t, "acme", ticket.Client)
	require.Equal(t, "da-7", ticket.OwnerActorID)

	require.Len(t, ticket.EventLog, 3)
	require.Equal(t, domain.ActionEditField, ticket.EventLog[0].Action)
	require.Equal(t, domain.ActionEditField, ticket.EventLog[1].Action)
	require.Equal(t, "client=acme", ticket.EventLog[1].Message)
	require.Equal(t, domain.ActionTicketCreated, ticket.EventLog[2].Action)

	_, err = drafts.Get(ctx, "da-7")
	require.True(t, util.IsCode(err, util.CodeNotFound))

	stored, err := workflow.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpened, stored.Status)
}

// TestDraft_FinalizeIncompleteKeepsDraft verifies a failed finalize leaves
// both stores untouched so the DA can keep editing.
func TestDraft_FinalizeIncompleteKeepsDraft(t *testing.T) {
	t.Parallel()
	drafts, workflow := newDraftFixture(t)
	ctx := context.Background()

	_, err := drafts.Start(ctx, "da-7")
	require.NoError(t, err)
	_, err = drafts.SetField(ctx, "da-7", domain.DraftFieldDescription, "parcel missing")
	require.NoError(t, err)

	_, err = drafts.Finalize(ctx, "da-7")
	require.True(t, util.IsCode(err, util.CodeValidationFailed))

	draft, err := drafts.Get(ctx, "da-7")
	require.NoError(t, err)
	require.Equal(t, "parcel missing", draft.Description)

	open, err := workflow.ListOpenTickets(ctx)
	require.NoError(t, err)
	require.Empty(t, open)
}

// TestDraft_AbandonLeavesNoTrace verifies abandoning discards everything.
func TestDraft_AbandonLeavesNoTrace(t *testing.T) {
	t.Parallel()
	drafts, workflow := newDraftFixture(t)
	ctx := context.Background()

	_, err := drafts.Start(ctx, "da-7")
	require.NoError(t, err)
	_, err = drafts.SetField(ctx, "da-7", domain.DraftFieldOrderRef, "ANR-123")
	require.NoError(t, err)

	require.NoError(t, drafts.Abandon(ctx, "da-7"))

	_, err = drafts.Get(ctx, "da-7")
	require.True(t, util.IsCode(err, util.CodeNotFound))

	open, err := workflow.ListOpenTickets(ctx)
	require.NoError(t, err)
	require.Empty(t, open)
}

// TestDraft_MissingSessionIsNotFound maps absent drafts for edits and abandons.
func TestDraft_MissingSessionIsNotFound(t *testing.T) {
	t.Parallel()
	drafts, _ := newDraftFixture(t)
	ctx := context.Background()

	_, err := drafts.SetField(ctx, "da-ghost", domain.DraftFieldOrderRef, "ANR-123")
	require.True(t, util.IsCode(err, util.CodeNotFound))
	require.True(t, util.IsCode(drafts.Abandon(ctx, "da-ghost"), util.CodeNotFound))
}
