package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// ReminderDelay selects one of the configured delays.
type ReminderDelay string

const (
	ReminderNow   ReminderDelay = "now"
	ReminderShort ReminderDelay = "short"
	ReminderLong  ReminderDelay = "long"
)

type reminderJob struct {
	ticketID       int64
	contactAddress string
	timer          *time.Timer
}

// ReminderService schedules one-shot "respond later" reminders for
// clients. At most one job is pending per ticket: scheduling again
// replaces the previous job, and a client response cancels it. At fire
// time the ticket's current status is checked so a reminder that lost
// the race against a real response stays silent.
type ReminderService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ReminderConfig

	mu   sync.Mutex
	jobs map[int64]*reminderJob
}

// NewReminderService creates the scheduler.
func NewReminderService(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.ReminderConfig) *ReminderService {
	return &ReminderService{
		tickets:    tickets,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		jobs:       make(map[int64]*reminderJob),
	}
}

// Schedule arms a reminder for the ticket. ReminderNow is the
// immediate no-op path: the client chose to answer right away, so
// nothing is armed. A pending job for the same ticket is replaced.
func (s *ReminderService) Schedule(ticketID int64, contactAddress string, delay ReminderDelay) error {
	var d time.Duration
	switch delay {
	case ReminderNow:
		s.Cancel(ticketID)
		return nil
	case ReminderShort:
		d = s.cfg.ShortDelay()
	case ReminderLong:
		d = s.cfg.LongDelay()
	default:
		return util.NewValidationError("unknown reminder delay", map[string]any{"delay": string(delay)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[ticketID]; ok {
		existing.timer.Stop()
		delete(s.jobs, ticketID)
	}

	job := &reminderJob{ticketID: ticketID, contactAddress: contactAddress}
	job.timer = time.AfterFunc(d, func() { s.fire(job) })
	s.jobs[ticketID] = job

	s.logger.Debug("reminder armed",
		zap.Int64("ticket_id", ticketID),
		zap.Duration("delay", d))
	return nil
}

// Cancel disarms the pending reminder for a ticket, if any.
func (s *ReminderService) Cancel(ticketID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[ticketID]; ok {
		job.timer.Stop()
		delete(s.jobs, ticketID)
	}
}

// Pending reports whether a job is armed for the ticket.
func (s *ReminderService) Pending(ticketID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[ticketID]
	return ok
}

// Stop disarms every pending job, for shutdown.
func (s *ReminderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		job.timer.Stop()
		delete(s.jobs, id)
	}
}

// fire runs on the timer goroutine. The job self-destructs either
// way; the notification goes out only if the ticket is still waiting
// on the client.
func (s *ReminderService) fire(job *reminderJob) {
	s.mu.Lock()
	current, ok := s.jobs[job.ticketID]
	if !ok || current != job {
		// Cancelled or replaced after the timer was already running.
		s.mu.Unlock()
		return
	}
	delete(s.jobs, job.ticketID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ticket, err := s.tickets.GetByID(ctx, job.ticketID)
	if err != nil {
		s.logger.Error("reminder fired for unknown ticket",
			zap.Int64("ticket_id", job.ticketID),
			zap.Error(err))
		return
	}
	if ticket.Status != domain.TicketStatusAwaitingClientResponse {
		s.logger.Debug("suppressing stale reminder",
			zap.Int64("ticket_id", job.ticketID),
			zap.String("status", string(ticket.Status)))
		return
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventReminderDue,
		TicketID:  job.ticketID,
		ActorRole: domain.RoleClient,
		Timestamp: time.Now(),
		Payload:   events.ReminderDuePayload{ContactAddress: job.contactAddress},
	})
}
