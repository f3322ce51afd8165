package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDispatcher_DeliversToSubscribers verifies handlers receive events of
// their subscribed type only.
func TestDispatcher_DeliversToSubscribers(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher()

	var opened, closed int
	d.Subscribe(EventTicketOpened, func(context.Context, Event) error {
		opened++
		return nil
	})
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		closed++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketOpened, TicketID: 1}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketOpened, TicketID: 2}))
	require.Equal(t, 2, opened)
	require.Equal(t, 0, closed)
}

// TestDispatcher_HandlerErrorsDoNotPropagate verifies a failing handler
// never reaches the publisher and never stops later handlers.
func TestDispatcher_HandlerErrorsDoNotPropagate(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher()

	var second bool
	d.Subscribe(EventReminderDue, func(context.Context, Event) error {
		return errors.New("delivery exploded")
	})
	d.Subscribe(EventReminderDue, func(context.Context, Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventReminderDue}))
	require.True(t, second)
}

// TestDispatcher_NoSubscribersIsFine verifies publishing into silence.
func TestDispatcher_NoSubscribersIsFine(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketOpened}))
}
