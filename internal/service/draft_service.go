package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// DraftService runs the edit-before-submit ticket creation flow. A
// draft lives only in the draft store; the ticket store sees nothing
// until Finalize commits the accumulated edits and the creation event
// in one atomic insert. Abandon leaves no trace.
type DraftService struct {
	drafts   repository.DraftStore
	workflow *WorkflowService
}

// NewDraftService constructs the service.
func NewDraftService(drafts repository.DraftStore, workflow *WorkflowService) *DraftService {
	return &DraftService{drafts: drafts, workflow: workflow}
}

// Start opens a fresh draft for the DA, replacing any unfinished one.
func (s *DraftService) Start(ctx context.Context, ownerActorID string) (*domain.TicketDraft, error) {
	if strings.TrimSpace(ownerActorID) == "" {
		return nil, util.NewValidationError("owner_actor_id required", nil)
	}
	draft := &domain.TicketDraft{
		OwnerActorID: strings.TrimSpace(ownerActorID),
		StartedAt:    time.Now(),
	}
	if err := s.drafts.Put(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// SetField applies one field edit to the DA's draft, recording it in
// the draft's own edit log.
func (s *DraftService) SetField(ctx context.Context, ownerActorID string, field domain.DraftField, value string) (*domain.TicketDraft, error) {
	if !domain.ValidDraftField(field) {
		return nil, util.NewValidationError("unknown draft field", map[string]any{"field": string(field)})
	}
	draft, err := s.get(ctx, ownerActorID)
	if err != nil {
		return nil, err
	}
	draft.SetField(field, strings.TrimSpace(value), time.Now())
	if err := s.drafts.Put(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Get returns the DA's current draft.
func (s *DraftService) Get(ctx context.Context, ownerActorID string) (*domain.TicketDraft, error) {
	return s.get(ctx, ownerActorID)
}

// Finalize commits the draft as a ticket and discards the session.
func (s *DraftService) Finalize(ctx context.Context, ownerActorID string) (*domain.Ticket, error) {
	draft, err := s.get(ctx, ownerActorID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.workflow.OpenTicket(ctx, draft)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, ownerActorID); err != nil {
		// Ticket is already committed; a lingering draft expires on
		// its own TTL.
		return ticket, nil
	}
	return ticket, nil
}

// Abandon discards the draft without any store mutation.
func (s *DraftService) Abandon(ctx context.Context, ownerActorID string) error {
	if _, err := s.get(ctx, ownerActorID); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, ownerActorID)
}

func (s *DraftService) get(ctx context.Context, ownerActorID string) (*domain.TicketDraft, error) {
	draft, err := s.drafts.Get(ctx, ownerActorID)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return nil, util.NewNotFound("draft", map[string]any{"owner_actor_id": ownerActorID})
		}
		return nil, err
	}
	return draft, nil
}
