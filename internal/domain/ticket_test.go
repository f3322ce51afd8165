package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTicket_HasClient treats the "unspecified" placeholder as no client.
func TestTicket_HasClient(t *testing.T) {
	t.Parallel()
	require.False(t, (&Ticket{}).HasClient())
	require.False(t, (&Ticket{Client: ClientUnspecified}).HasClient())
	require.True(t, (&Ticket{Client: "acme"}).HasClient())
}

// TestTicket_LatestResolution prefers a later edited resolution over the
// supervisor's original.
func TestTicket_LatestResolution(t *testing.T) {
	t.Parallel()
	ticket := &Ticket{EventLog: []TicketEvent{
		{Action: ActionSupervisorResolution, Message: "first answer"},
		{Action: ActionClientSolution, Message: "client text"},
		{Action: ActionEditedResolution, Message: "revised answer"},
	}}
	require.Equal(t, "revised answer", ticket.LatestResolution())
	require.Equal(t, "client text", ticket.LatestClientSolution())
	require.Empty(t, ticket.LatestInfoRequest())
}

// TestStatus_Predicates covers terminal and client-response checks.
func TestStatus_Predicates(t *testing.T) {
	t.Parallel()
	require.True(t, TicketStatusClosed.Terminal())
	require.False(t, TicketStatusClientResponded.Terminal())

	require.True(t, TicketStatusClientResponded.ClientResponded())
	require.True(t, TicketStatusClientIgnored.ClientResponded())
	require.False(t, TicketStatusAwaitingClientResponse.ClientResponded())

	require.NotContains(t, OpenStatuses(), TicketStatusClosed)
}

// TestDraft_SetFieldRecordsEdit verifies each edit lands in both the field
// and the draft's own trail.
func TestDraft_SetFieldRecordsEdit(t *testing.T) {
	t.Parallel()
	draft := &TicketDraft{OwnerActorID: "da-7"}
	now := time.Now()

	draft.SetField(DraftFieldOrderRef, "ANR-123", now)
	draft.SetField(DraftFieldImageRef, "img-1.jpg", now)

	require.Equal(t, "ANR-123", draft.OrderRef)
	require.NotNil(t, draft.ImageRef)
	require.Equal(t, "img-1.jpg", *draft.ImageRef)

	require.Len(t, draft.Edits, 2)
	require.Equal(t, ActionEditField, draft.Edits[0].Action)
	require.Equal(t, "order_ref=ANR-123", draft.Edits[0].Message)
	require.Equal(t, RoleDA, draft.Edits[0].ActorRole)
}
