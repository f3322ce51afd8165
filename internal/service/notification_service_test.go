package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/delivery"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
)

// recordingAdapter collects sends and fails selected contact addresses.
type recordingAdapter struct {
	mu      sync.Mutex
	sent    map[string][]delivery.Message
	failFor map[string]error
}

func newRecordingAdapter() *recordingAdapter {
	return &recordingAdapter{
		sent:    make(map[string][]delivery.Message),
		failFor: make(map[string]error),
	}
}

func (a *recordingAdapter) Send(_ context.Context, contactAddress string, msg delivery.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.failFor[contactAddress]; ok {
		return err
	}
	a.sent[contactAddress] = append(a.sent[contactAddress], msg)
	return nil
}

func (a *recordingAdapter) sentTo(contactAddress string) []delivery.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]delivery.Message(nil), a.sent[contactAddress]...)
}

type notificationFixture struct {
	service    *NotificationService
	actors     repository.ActorRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	da         *recordingAdapter
	supervisor *recordingAdapter
	client     *recordingAdapter
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	f := &notificationFixture{
		actors:     repository.NewMemoryActorRepository(),
		dispatcher: events.NewInMemoryDispatcher(),
		metrics:    observability.NewMetrics(),
		da:         newRecordingAdapter(),
		supervisor: newRecordingAdapter(),
		client:     newRecordingAdapter(),
	}
	f.service = NewNotificationService(f.actors, delivery.Adapters{
		DA:         f.da,
		Supervisor: f.supervisor,
		Client:     f.client,
	}, zap.NewNop(), f.metrics, config.DeliveryConfig{SendTimeoutSeconds: 1})
	f.service.RegisterHandlers(f.dispatcher)
	return f
}

func (f *notificationFixture) register(t *testing.T, identity string, role domain.Role, affiliation, contact string) {
	t.Helper()
	require.NoError(t, f.actors.Upsert(context.Background(), &domain.Actor{
		Identity:          identity,
		Role:              role,
		ClientAffiliation: affiliation,
		ContactAddress:    contact,
	}))
}

// TestFanOut_IsolatesRecipientFailures verifies one failing recipient never
// blocks delivery to the rest, and each outcome is recorded.
func TestFanOut_IsolatesRecipientFailures(t *testing.T) {
	t.Parallel()
	f := newNotificationFixture(t)
	f.register(t, "sup-1", domain.RoleSupervisor, "", "sup-1@ops")
	f.register(t, "sup-2", domain.RoleSupervisor, "", "sup-2@ops")
	f.register(t, "sup-3", domain.RoleSupervisor, "", "sup-3@ops")
	f.supervisor.failFor["sup-2@ops"] = errors.New("adapter unreachable")

	supervisors, err := f.actors.ListByRole(context.Background(), domain.RoleSupervisor)
	require.NoError(t, err)

	results := f.service.FanOut(context.Background(), domain.RoleSupervisor, supervisors, delivery.Message{
		TicketID: 1, Subject: "new ticket", Body: "details",
	})
	require.Len(t, results, 3)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			require.Equal(t, "sup-2@ops", r.ContactAddress)
		}
	}
	require.Equal(t, 1, failed)
	require.Len(t, f.supervisor.sentTo("sup-1@ops"), 1)
	require.Len(t, f.supervisor.sentTo("sup-3@ops"), 1)
	require.EqualValues(t, 2, f.metrics.DeliveryCount(string(domain.RoleSupervisor), true))
	require.EqualValues(t, 1, f.metrics.DeliveryCount(string(domain.RoleSupervisor), false))
}

// TestFanOut_SkipsIncompleteSubscriptions verifies a client without an
// affiliation receives nothing and produces no delivery result.
func TestFanOut_SkipsIncompleteSubscriptions(t *testing.T) {
	t.Parallel()
	f := newNotificationFixture(t)
	f.register(t, "cl-1", domain.RoleClient, "acme", "cl-1@acme")
	f.register(t, "cl-2", domain.RoleClient, "", "cl-2@nowhere")

	clients, err := f.actors.ListByRole(context.Background(), domain.RoleClient)
	require.NoError(t, err)
	require.Len(t, clients, 2)

	results := f.service.FanOut(context.Background(), domain.RoleClient, clients, delivery.Message{TicketID: 1})
	require.Len(t, results, 1)
	require.Equal(t, "cl-1", results[0].Identity)
	require.Empty(t, f.client.sentTo("cl-2@nowhere"))
}

// TestHandleTicketForwarded_TargetsAffiliation verifies forwarded tickets
// reach only the clients affiliated with the ticket's client name.
func TestHandleTicketForwarded_TargetsAffiliation(t *testing.T) {
	t.Parallel()
	f := newNotificationFixture(t)
	f.register(t, "cl-acme", domain.RoleClient, "acme", "cl@acme")
	f.register(t, "cl-globex", domain.RoleClient, "globex", "cl@globex")

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketForwarded,
		TicketID: 7,
		Payload: events.TicketForwardedPayload{
			OrderRef: "ANR-123", Client: "acme", Description: "parcel missing", IssueType: "delivery",
		},
	})
	require.NoError(t, err)

	require.Len(t, f.client.sentTo("cl@acme"), 1)
	require.Empty(t, f.client.sentTo("cl@globex"))

	msg := f.client.sentTo("cl@acme")[0]
	require.Equal(t, int64(7), msg.TicketID)
	require.Contains(t, msg.Actions, domain.TransitionClientSolve)
	require.Contains(t, msg.Actions, domain.TransitionClientIgnore)
}

// TestHandleResolutionSent_NotifiesOwner verifies resolutions reach the DA
// who opened the ticket with the close action attached.
func TestHandleResolutionSent_NotifiesOwner(t *testing.T) {
	t.Parallel()
	f := newNotificationFixture(t)
	f.register(t, "da-7", domain.RoleDA, "", "da-7@field")
	f.register(t, "da-8", domain.RoleDA, "", "da-8@field")

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventResolutionSent,
		TicketID: 7,
		Payload:  events.ResolutionSentPayload{Resolution: "driver rerouted", OwnerActorID: "da-7"},
	})
	require.NoError(t, err)

	sent := f.da.sentTo("da-7@field")
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Body, "driver rerouted")
	require.Equal(t, []domain.TransitionKind{domain.TransitionClose}, sent[0].Actions)
	require.Empty(t, f.da.sentTo("da-8@field"))
}

// TestHandleClientResponded_DistinguishesIgnore verifies supervisors get the
// ignore wording and the resolve follow-up action.
func TestHandleClientResponded_DistinguishesIgnore(t *testing.T) {
	t.Parallel()
	f := newNotificationFixture(t)
	f.register(t, "sup-1", domain.RoleSupervisor, "", "sup-1@ops")

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventClientResponded,
		TicketID: 7,
		Payload:  events.ClientRespondedPayload{Ignored: true},
	})
	require.NoError(t, err)

	sent := f.supervisor.sentTo("sup-1@ops")
	require.Len(t, sent, 1)
	require.Equal(t, "client ignored", sent[0].Subject)
	require.Equal(t, []domain.TransitionKind{domain.TransitionResolve}, sent[0].Actions)
}

// TestHandleReminderDue_SendsDirect verifies reminders go straight to the
// stored contact address without a registry lookup.
func TestHandleReminderDue_SendsDirect(t *testing.T) {
	t.Parallel()
	f := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventReminderDue,
		TicketID: 7,
		Payload:  events.ReminderDuePayload{ContactAddress: "cl@acme"},
	})
	require.NoError(t, err)

	sent := f.client.sentTo("cl@acme")
	require.Len(t, sent, 1)
	require.Equal(t, "reminder", sent[0].Subject)
}
