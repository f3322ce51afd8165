package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/delivery"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
)

// DeliveryResult records one fan-out attempt.
type DeliveryResult struct {
	Identity       string
	ContactAddress string
	Err            error
}

// NotificationService routes committed ticket events to the actors of
// the audience role through the per-role delivery adapters. Delivery
// is best-effort and fire-and-forget: one failing recipient never
// blocks the rest, and no failure propagates to the workflow.
type NotificationService struct {
	actors   repository.ActorRepository
	adapters delivery.Adapters
	logger   *zap.Logger
	metrics  *observability.Metrics
	cfg      config.DeliveryConfig
}

// NewNotificationService creates the service.
func NewNotificationService(actors repository.ActorRepository, adapters delivery.Adapters, logger *zap.Logger, metrics *observability.Metrics, cfg config.DeliveryConfig) *NotificationService {
	return &NotificationService{
		actors:   actors,
		adapters: adapters,
		logger:   logger,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// RegisterHandlers subscribes the router to workflow events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketOpened, n.handleTicketOpened)
	dispatcher.Subscribe(events.EventTicketForwarded, n.handleTicketForwarded)
	dispatcher.Subscribe(events.EventClientResponded, n.handleClientResponded)
	dispatcher.Subscribe(events.EventInfoRequested, n.handleInfoRequested)
	dispatcher.Subscribe(events.EventInfoProvided, n.handleInfoProvided)
	dispatcher.Subscribe(events.EventResolutionSent, n.handleResolutionSent)
	dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	dispatcher.Subscribe(events.EventReminderDue, n.handleReminderDue)
}

// FanOut attempts delivery to every recipient, isolating failures per
// recipient. Incomplete subscriptions are skipped. Each attempt is
// bounded by the configured send timeout.
func (n *NotificationService) FanOut(ctx context.Context, role domain.Role, recipients []domain.Actor, msg delivery.Message) []DeliveryResult {
	adapter := n.adapters.ForRole(role)
	if adapter == nil {
		return nil
	}

	results := make([]DeliveryResult, 0, len(recipients))
	for _, actor := range recipients {
		if !actor.Complete() {
			n.logger.Debug("skipping incomplete subscription",
				zap.String("identity", actor.Identity),
				zap.String("role", string(actor.Role)))
			continue
		}
		err := n.sendOne(ctx, adapter, actor.ContactAddress, msg)
		n.metrics.RecordDelivery(string(role), err == nil)
		if err != nil {
			n.logger.Error("delivery failed",
				zap.String("identity", actor.Identity),
				zap.String("role", string(actor.Role)),
				zap.Int64("ticket_id", msg.TicketID),
				zap.Error(err))
		}
		results = append(results, DeliveryResult{
			Identity:       actor.Identity,
			ContactAddress: actor.ContactAddress,
			Err:            err,
		})
	}
	return results
}

func (n *NotificationService) sendOne(ctx context.Context, adapter delivery.Adapter, contactAddress string, msg delivery.Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.SendTimeout())
	defer cancel()
	return adapter.Send(sendCtx, contactAddress, msg)
}

func (n *NotificationService) handleTicketOpened(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketOpenedPayload)
	if !ok {
		return nil
	}
	supervisors, err := n.actors.ListByRole(ctx, domain.RoleSupervisor)
	if err != nil {
		n.logger.Error("listing supervisors for fan-out", zap.Error(err))
		return nil
	}
	n.FanOut(ctx, domain.RoleSupervisor, supervisors, delivery.Message{
		TicketID: event.TicketID,
		Subject:  "new ticket",
		Body:     fmt.Sprintf("ticket #%d opened for order %s (client: %s): %s", event.TicketID, payload.OrderRef, payload.Client, payload.Description),
		Actions:  []domain.TransitionKind{domain.TransitionResolve, domain.TransitionRequestInfo, domain.TransitionForwardClient},
	})
	return nil
}

func (n *NotificationService) handleTicketForwarded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketForwardedPayload)
	if !ok {
		return nil
	}
	clients, err := n.actors.ListByRoleAndAffiliation(ctx, domain.RoleClient, payload.Client)
	if err != nil {
		n.logger.Error("listing clients for fan-out", zap.Error(err))
		return nil
	}
	n.FanOut(ctx, domain.RoleClient, clients, delivery.Message{
		TicketID: event.TicketID,
		Subject:  "ticket forwarded",
		Body:     fmt.Sprintf("ticket #%d for order %s needs your response: %s (%s)", event.TicketID, payload.OrderRef, payload.Description, payload.IssueType),
		Actions:  []domain.TransitionKind{domain.TransitionClientSolve, domain.TransitionClientIgnore},
	})
	return nil
}

func (n *NotificationService) handleClientResponded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ClientRespondedPayload)
	if !ok {
		return nil
	}
	supervisors, err := n.actors.ListByRole(ctx, domain.RoleSupervisor)
	if err != nil {
		n.logger.Error("listing supervisors for fan-out", zap.Error(err))
		return nil
	}
	msg := delivery.Message{TicketID: event.TicketID}
	if payload.Ignored {
		msg.Subject = "client ignored"
		msg.Body = fmt.Sprintf("ticket #%d was ignored by the client", event.TicketID)
		msg.Actions = []domain.TransitionKind{domain.TransitionResolve}
	} else {
		msg.Subject = "client solution"
		msg.Body = fmt.Sprintf("ticket #%d client solution: %s", event.TicketID, payload.Solution)
		msg.Actions = []domain.TransitionKind{domain.TransitionForwardDA, domain.TransitionEditResolution}
	}
	n.FanOut(ctx, domain.RoleSupervisor, supervisors, msg)
	return nil
}

func (n *NotificationService) handleInfoRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.InfoRequestedPayload)
	if !ok {
		return nil
	}
	n.notifyOwner(ctx, event.TicketID, payload.OwnerActorID, delivery.Message{
		TicketID: event.TicketID,
		Subject:  "info requested",
		Body:     fmt.Sprintf("ticket #%d needs more information: %s", event.TicketID, payload.Request),
		Actions:  []domain.TransitionKind{domain.TransitionProvideInfo},
	})
	return nil
}

func (n *NotificationService) handleInfoProvided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.InfoProvidedPayload)
	if !ok {
		return nil
	}
	supervisors, err := n.actors.ListByRole(ctx, domain.RoleSupervisor)
	if err != nil {
		n.logger.Error("listing supervisors for fan-out", zap.Error(err))
		return nil
	}
	n.FanOut(ctx, domain.RoleSupervisor, supervisors, delivery.Message{
		TicketID: event.TicketID,
		Subject:  "info provided",
		Body:     fmt.Sprintf("ticket #%d additional info: %s", event.TicketID, payload.Info),
		Actions:  []domain.TransitionKind{domain.TransitionResolve, domain.TransitionForwardClient},
	})
	return nil
}

func (n *NotificationService) handleResolutionSent(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ResolutionSentPayload)
	if !ok {
		return nil
	}
	n.notifyOwner(ctx, event.TicketID, payload.OwnerActorID, delivery.Message{
		TicketID: event.TicketID,
		Subject:  "resolution",
		Body:     fmt.Sprintf("ticket #%d resolution: %s", event.TicketID, payload.Resolution),
		Actions:  []domain.TransitionKind{domain.TransitionClose},
	})
	return nil
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	supervisors, err := n.actors.ListByRole(ctx, domain.RoleSupervisor)
	if err != nil {
		n.logger.Error("listing supervisors for fan-out", zap.Error(err))
		return nil
	}
	n.FanOut(ctx, domain.RoleSupervisor, supervisors, delivery.Message{
		TicketID: event.TicketID,
		Subject:  "ticket closed",
		Body:     fmt.Sprintf("ticket #%d was closed by the agent", event.TicketID),
	})
	return nil
}

func (n *NotificationService) handleReminderDue(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReminderDuePayload)
	if !ok {
		return nil
	}
	adapter := n.adapters.ForRole(domain.RoleClient)
	if adapter == nil {
		return nil
	}
	msg := delivery.Message{
		TicketID: event.TicketID,
		Subject:  "reminder",
		Body:     fmt.Sprintf("you have not responded to ticket #%d yet", event.TicketID),
		Actions:  []domain.TransitionKind{domain.TransitionClientSolve, domain.TransitionClientIgnore},
	}
	if err := n.sendOne(ctx, adapter, payload.ContactAddress, msg); err != nil {
		n.metrics.RecordDelivery(string(domain.RoleClient), false)
		n.logger.Error("reminder delivery failed",
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
		return nil
	}
	n.metrics.RecordDelivery(string(domain.RoleClient), true)
	return nil
}

// notifyOwner targets the single DA actor that opened the ticket.
func (n *NotificationService) notifyOwner(ctx context.Context, ticketID int64, ownerActorID string, msg delivery.Message) {
	owner, err := n.actors.Get(ctx, ownerActorID, domain.RoleDA)
	if err != nil {
		n.logger.Warn("ticket owner not registered; skipping notification",
			zap.Int64("ticket_id", ticketID),
			zap.String("owner_actor_id", ownerActorID))
		return
	}
	n.FanOut(ctx, domain.RoleDA, []domain.Actor{*owner}, msg)
}
