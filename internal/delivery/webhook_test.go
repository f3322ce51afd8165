package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TestWebhookAdapter_PostsEnvelope verifies the JSON envelope reaching the
// gateway carries the contact address and renderable actions.
func TestWebhookAdapter_PostsEnvelope(t *testing.T) {
	t.Parallel()

	var got webhookEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(server.URL, time.Second)
	err := adapter.Send(context.Background(), "cl@acme", Message{
		TicketID: 7,
		Subject:  "ticket forwarded",
		Body:     "needs your response",
		Actions:  []domain.TransitionKind{domain.TransitionClientSolve, domain.TransitionClientIgnore},
	})
	require.NoError(t, err)
	require.Equal(t, "cl@acme", got.ContactAddress)
	require.Equal(t, int64(7), got.Message.TicketID)
	require.Len(t, got.Message.Actions, 2)
}

// TestWebhookAdapter_NonSuccessIsFailure treats any non-2xx as a delivery error.
func TestWebhookAdapter_NonSuccessIsFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(server.URL, time.Second)
	err := adapter.Send(context.Background(), "cl@acme", Message{TicketID: 7})
	require.ErrorContains(t, err, "502")
}

// TestWebhookAdapter_HonorsContext verifies a cancelled context aborts the send.
func TestWebhookAdapter_HonorsContext(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	adapter := NewWebhookAdapter(server.URL, time.Minute)
	err := adapter.Send(ctx, "cl@acme", Message{TicketID: 7})
	require.Error(t, err)
}
