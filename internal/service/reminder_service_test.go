package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

func newReminderFixture(t *testing.T, shortMinutes int) (*ReminderService, repository.TicketRepository, *recordingDispatcher) {
	t.Helper()
	tickets := repository.NewMemoryTicketRepository()
	dispatcher := &recordingDispatcher{}
	svc := NewReminderService(tickets, dispatcher, zap.NewNop(), config.ReminderConfig{
		ShortDelayMinutes: shortMinutes,
		LongDelayMinutes:  shortMinutes + 5,
	})
	t.Cleanup(svc.Stop)
	return svc, tickets, dispatcher
}

func createTicketWithStatus(t *testing.T, tickets repository.TicketRepository, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		OrderRef:     "ANR-123",
		Client:       "acme",
		Status:       status,
		OwnerActorID: "da-7",
	}
	require.NoError(t, tickets.Create(context.Background(), ticket))
	return ticket
}

// TestReminder_NowDisarmsInsteadOfArming verifies the immediate-response
// choice arms nothing and clears any pending job.
func TestReminder_NowDisarmsInsteadOfArming(t *testing.T) {
	t.Parallel()
	svc, tickets, _ := newReminderFixture(t, 1)
	ticket := createTicketWithStatus(t, tickets, domain.TicketStatusAwaitingClientResponse)

	require.NoError(t, svc.Schedule(ticket.ID, "client@acme", ReminderShort))
	require.True(t, svc.Pending(ticket.ID))

	require.NoError(t, svc.Schedule(ticket.ID, "client@acme", ReminderNow))
	require.False(t, svc.Pending(ticket.ID))
}

// TestReminder_UnknownDelayRejected verifies delay validation.
func TestReminder_UnknownDelayRejected(t *testing.T) {
	t.Parallel()
	svc, tickets, _ := newReminderFixture(t, 1)
	ticket := createTicketWithStatus(t, tickets, domain.TicketStatusAwaitingClientResponse)

	err := svc.Schedule(ticket.ID, "client@acme", ReminderDelay("tomorrow"))
	require.True(t, util.IsCode(err, util.CodeValidationFailed))
	require.False(t, svc.Pending(ticket.ID))
}

// TestReminder_FiresWhileStillAwaiting verifies a due reminder publishes the
// notification event when the ticket still waits on the client.
func TestReminder_FiresWhileStillAwaiting(t *testing.T) {
	t.Parallel()
	svc, tickets, dispatcher := newReminderFixture(t, 0)
	ticket := createTicketWithStatus(t, tickets, domain.TicketStatusAwaitingClientResponse)

	require.NoError(t, svc.Schedule(ticket.ID, "client@acme", ReminderShort))

	require.Eventually(t, func() bool {
		return len(dispatcher.published()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	event := dispatcher.published()[0]
	require.Equal(t, events.EventReminderDue, event.Type)
	require.Equal(t, ticket.ID, event.TicketID)
	payload, ok := event.Payload.(events.ReminderDuePayload)
	require.True(t, ok)
	require.Equal(t, "client@acme", payload.ContactAddress)
	require.False(t, svc.Pending(ticket.ID))
}

// TestReminder_SuppressedAfterResponse verifies a reminder that fires after
// the client already answered goes out silently.
func TestReminder_SuppressedAfterResponse(t *testing.T) {
	t.Parallel()
	svc, tickets, dispatcher := newReminderFixture(t, 0)
	ticket := createTicketWithStatus(t, tickets, domain.TicketStatusClientResponded)

	require.NoError(t, svc.Schedule(ticket.ID, "client@acme", ReminderShort))

	require.Never(t, func() bool {
		return len(dispatcher.published()) > 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

// TestReminder_CancelDisarms verifies cancellation before the due time.
func TestReminder_CancelDisarms(t *testing.T) {
	t.Parallel()
	svc, tickets, dispatcher := newReminderFixture(t, 1)
	ticket := createTicketWithStatus(t, tickets, domain.TicketStatusAwaitingClientResponse)

	require.NoError(t, svc.Schedule(ticket.ID, "client@acme", ReminderLong))
	require.True(t, svc.Pending(ticket.ID))

	svc.Cancel(ticket.ID)
	require.False(t, svc.Pending(ticket.ID))
	require.Empty(t, dispatcher.published())
}

// TestReminder_RescheduleReplacesPending verifies at most one job per ticket:
// rescheduling replaces the earlier job rather than stacking a second.
func TestReminder_RescheduleReplacesPending(t *testing.T) {
	t.Parallel()
	svc, tickets, dispatcher := newReminderFixture(t, 0)
	ticket := createTicketWithStatus(t, tickets, domain.TicketStatusAwaitingClientResponse)

	// The long job never fires in this test; replacing it with the
	// zero-delay short job must yield exactly one notification.
	require.NoError(t, svc.Schedule(ticket.ID, "client@acme", ReminderLong))
	require.NoError(t, svc.Schedule(ticket.ID, "client@acme", ReminderShort))

	require.Eventually(t, func() bool {
		return len(dispatcher.published()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	require.Len(t, dispatcher.published(), 1)
}
