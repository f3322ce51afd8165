package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// ReminderCanceller disarms a pending reminder for a ticket. Satisfied
// by ReminderService; split out so the workflow does not depend on the
// scheduler's construction order.
type ReminderCanceller interface {
	Cancel(ticketID int64)
}

// WorkflowService owns the ticket lifecycle state machine: which actor
// role may move a ticket between which states, the client idempotency
// guard, and the audit trail each accepted transition appends.
type WorkflowService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	reminders  ReminderCanceller
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Reminders  ReminderCanceller
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		reminders:  deps.Reminders,
	}
}

type transitionKey struct {
	status domain.TicketStatus
	role   domain.Role
	kind   domain.TransitionKind
}

// transitionTable is the single source of truth for permitted
// transitions. Anything absent is rejected.
var transitionTable = map[transitionKey]domain.TicketStatus{
	{domain.TicketStatusOpened, domain.RoleSupervisor, domain.TransitionResolve}:       domain.TicketStatusPendingDAAction,
	{domain.TicketStatusOpened, domain.RoleSupervisor, domain.TransitionRequestInfo}:   domain.TicketStatusAwaitingDAInfo,
	{domain.TicketStatusOpened, domain.RoleSupervisor, domain.TransitionForwardClient}: domain.TicketStatusAwaitingClientResponse,
	{domain.TicketStatusOpened, domain.RoleSupervisor, domain.TransitionSetClient}:     domain.TicketStatusAwaitingClientResponse,

	{domain.TicketStatusPendingDAAction, domain.RoleSupervisor, domain.TransitionResolve}:       domain.TicketStatusPendingDAAction,
	{domain.TicketStatusPendingDAAction, domain.RoleSupervisor, domain.TransitionRequestInfo}:   domain.TicketStatusAwaitingDAInfo,
	{domain.TicketStatusPendingDAAction, domain.RoleSupervisor, domain.TransitionForwardClient}: domain.TicketStatusAwaitingClientResponse,
	{domain.TicketStatusPendingDAAction, domain.RoleDA, domain.TransitionClose}:                 domain.TicketStatusClosed,

	{domain.TicketStatusAwaitingDAInfo, domain.RoleDA, domain.TransitionProvideInfo}: domain.TicketStatusAdditionalInfoProvided,

	{domain.TicketStatusAdditionalInfoProvided, domain.RoleSupervisor, domain.TransitionResolve}:       domain.TicketStatusPendingDAAction,
	{domain.TicketStatusAdditionalInfoProvided, domain.RoleSupervisor, domain.TransitionForwardClient}: domain.TicketStatusAwaitingClientResponse,

	{domain.TicketStatusAwaitingClientResponse, domain.RoleClient, domain.TransitionClientSolve}:  domain.TicketStatusClientResponded,
	{domain.TicketStatusAwaitingClientResponse, domain.RoleClient, domain.TransitionClientIgnore}: domain.TicketStatusClientIgnored,

	{domain.TicketStatusClientResponded, domain.RoleSupervisor, domain.TransitionForwardDA}:      domain.TicketStatusPendingDAAction,
	{domain.TicketStatusClientResponded, domain.RoleSupervisor, domain.TransitionEditResolution}: domain.TicketStatusPendingDAAction,

	{domain.TicketStatusClientIgnored, domain.RoleSupervisor, domain.TransitionResolve}: domain.TicketStatusPendingDAAction,
}

// OpenTicket commits a finalized draft as a new ticket. The draft's
// edit log is copied in edit order, immediately followed by the
// creation event, as one atomic insert.
func (s *WorkflowService) OpenTicket(ctx context.Context, draft *domain.TicketDraft) (*domain.Ticket, error) {
	if strings.TrimSpace(draft.OrderRef) == "" {
		return nil, util.NewValidationError("order_ref required", nil)
	}
	client := draft.Client
	if client == "" {
		client = domain.ClientUnspecified
	}

	now := time.Now()
	eventLog := append([]domain.TicketEvent(nil), draft.Edits...)
	eventLog = append(eventLog, domain.TicketEvent{
		Action:    domain.ActionTicketCreated,
		ActorRole: domain.RoleDA,
		Timestamp: now,
	})

	ticket := &domain.Ticket{
		OrderRef:     strings.TrimSpace(draft.OrderRef),
		Description:  strings.TrimSpace(draft.Description),
		IssueReason:  strings.TrimSpace(draft.IssueReason),
		IssueType:    strings.TrimSpace(draft.IssueType),
		Client:       client,
		ImageRef:     draft.ImageRef,
		Status:       domain.TicketStatusOpened,
		OwnerActorID: draft.OwnerActorID,
		EventLog:     eventLog,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketOpened,
		TicketID:  ticket.ID,
		ActorRole: domain.RoleDA,
		Payload: events.TicketOpenedPayload{
			OrderRef:     ticket.OrderRef,
			Client:       ticket.Client,
			Description:  ticket.Description,
			OwnerActorID: ticket.OwnerActorID,
		},
	})
	return ticket, nil
}

// ApplyTransition validates and applies one decoded actor action. On
// success the new state and appended events committed atomically;
// notification fan-out happens afterwards and never rolls it back.
func (s *WorkflowService) ApplyTransition(ctx context.Context, transition domain.Transition) (*domain.Ticket, error) {
	ticket, err := s.tickets.Mutate(ctx, transition.TicketID, func(t *domain.Ticket) error {
		return applyToTicket(t, transition)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": transition.TicketID})
		}
		return nil, err
	}

	// The client's first terminal action wins; a reminder still
	// pending for this ticket is stale the moment it commits.
	switch transition.Kind {
	case domain.TransitionClientSolve, domain.TransitionClientIgnore:
		if s.reminders != nil {
			s.reminders.Cancel(ticket.ID)
		}
	}

	s.publishTransitionEvent(ctx, ticket, transition)
	return ticket, nil
}

// GetTicket fetches one ticket with its full event log.
func (s *WorkflowService) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (s *WorkflowService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, filter)
}

// ListOpenTickets returns every ticket not yet closed.
func (s *WorkflowService) ListOpenTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, repository.TicketFilter{Statuses: domain.OpenStatuses()})
}

// SearchByOrderRef matches order references by case-sensitive substring.
func (s *WorkflowService) SearchByOrderRef(ctx context.Context, substring string) ([]domain.Ticket, error) {
	if strings.TrimSpace(substring) == "" {
		return nil, util.NewValidationError("order_ref query required", nil)
	}
	return s.tickets.SearchByOrderRef(ctx, substring)
}

// applyToTicket holds the pure state-machine step, executed inside the
// store's per-ticket serialization boundary.
func applyToTicket(t *domain.Ticket, transition domain.Transition) error {
	// Idempotency guard: the client's first terminal action wins. The
	// actor is told the current status rather than silently dropped.
	switch transition.Kind {
	case domain.TransitionClientSolve, domain.TransitionClientIgnore:
		if t.Status.ClientResponded() {
			return util.NewAlreadyResponded(string(t.Status))
		}
	}

	next, ok := transitionTable[transitionKey{t.Status, transition.Role, transition.Kind}]
	if !ok {
		return util.NewInvalidTransition(string(t.Status), string(transition.Kind))
	}

	now := time.Now()
	appendEvent := func(action domain.EventAction, message string) {
		t.EventLog = append(t.EventLog, domain.TicketEvent{
			Action:    action,
			ActorRole: transition.Role,
			Message:   message,
			Timestamp: now,
		})
	}

	switch transition.Kind {
	case domain.TransitionResolve:
		if strings.TrimSpace(transition.Payload) == "" {
			return util.NewValidationError("resolution message required", nil)
		}
		appendEvent(domain.ActionSupervisorResolution, transition.Payload)
	case domain.TransitionEditResolution:
		if strings.TrimSpace(transition.Payload) == "" {
			return util.NewValidationError("edited resolution required", nil)
		}
		appendEvent(domain.ActionEditedResolution, transition.Payload)
	case domain.TransitionRequestInfo:
		if strings.TrimSpace(transition.Payload) == "" {
			return util.NewValidationError("info request message required", nil)
		}
		appendEvent(domain.ActionRequestMoreInfo, transition.Payload)
	case domain.TransitionProvideInfo:
		if strings.TrimSpace(transition.Payload) == "" {
			return util.NewValidationError("additional info required", nil)
		}
		appendEvent(domain.ActionDAMoreInfo, transition.Payload)
	case domain.TransitionSetClient:
		if strings.TrimSpace(transition.Payload) == "" {
			return util.NewValidationError("client name required", nil)
		}
		t.Client = strings.TrimSpace(transition.Payload)
		appendEvent(domain.ActionSetClient, t.Client)
		appendEvent(domain.ActionForwardedToClient, "")
	case domain.TransitionForwardClient:
		if !t.HasClient() {
			return util.NewValidationError("ticket has no client assigned; use set_client", nil)
		}
		appendEvent(domain.ActionForwardedToClient, "")
	case domain.TransitionClientSolve:
		if strings.TrimSpace(transition.Payload) == "" {
			return util.NewValidationError("solution message required", nil)
		}
		appendEvent(domain.ActionClientSolution, transition.Payload)
	case domain.TransitionClientIgnore:
		// Two chained events, committed together, keeping audit
		// queries for "the client's final action" order-stable.
		appendEvent(domain.ActionClientIgnored, "")
		appendEvent(domain.ActionClientFinalResponse, "ignored")
	case domain.TransitionForwardDA:
		appendEvent(domain.ActionClientSolutionSent, "")
	case domain.TransitionClose:
		appendEvent(domain.ActionDAClosed, "")
	}

	t.Status = next
	return nil
}

func (s *WorkflowService) publishTransitionEvent(ctx context.Context, ticket *domain.Ticket, transition domain.Transition) {
	event := events.Event{
		TicketID:  ticket.ID,
		ActorRole: transition.Role,
	}

	switch transition.Kind {
	case domain.TransitionResolve, domain.TransitionEditResolution:
		event.Type = events.EventResolutionSent
		event.Payload = events.ResolutionSentPayload{
			Resolution:   transition.Payload,
			OwnerActorID: ticket.OwnerActorID,
		}
	case domain.TransitionRequestInfo:
		event.Type = events.EventInfoRequested
		event.Payload = events.InfoRequestedPayload{
			Request:      transition.Payload,
			OwnerActorID: ticket.OwnerActorID,
		}
	case domain.TransitionProvideInfo:
		event.Type = events.EventInfoProvided
		event.Payload = events.InfoProvidedPayload{Info: transition.Payload}
	case domain.TransitionSetClient, domain.TransitionForwardClient:
		event.Type = events.EventTicketForwarded
		event.Payload = events.TicketForwardedPayload{
			OrderRef:    ticket.OrderRef,
			Client:      ticket.Client,
			Description: ticket.Description,
			IssueType:   ticket.IssueType,
		}
	case domain.TransitionClientSolve:
		event.Type = events.EventClientResponded
		event.Payload = events.ClientRespondedPayload{Solution: transition.Payload}
	case domain.TransitionClientIgnore:
		event.Type = events.EventClientResponded
		event.Payload = events.ClientRespondedPayload{Ignored: true}
	case domain.TransitionForwardDA:
		event.Type = events.EventResolutionSent
		event.Payload = events.ResolutionSentPayload{
			Resolution:   ticket.LatestClientSolution(),
			OwnerActorID: ticket.OwnerActorID,
		}
	case domain.TransitionClose:
		event.Type = events.EventTicketClosed
		event.Payload = events.TicketClosedPayload{OrderRef: ticket.OrderRef}
	default:
		return
	}

	s.publishEvent(ctx, event)
}

func (s *WorkflowService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
