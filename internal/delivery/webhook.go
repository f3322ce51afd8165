package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookAdapter posts messages as JSON to a chat-gateway webhook.
// The gateway owns transport specifics (chat API, formatting); the
// adapter only guarantees a bounded, at-most-once attempt.
type WebhookAdapter struct {
	url    string
	client *http.Client
}

type webhookEnvelope struct {
	ContactAddress string  `json:"contact_address"`
	Message        Message `json:"message"`
}

// NewWebhookAdapter builds an adapter for one role's gateway URL.
func NewWebhookAdapter(url string, timeout time.Duration) *WebhookAdapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookAdapter{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts the message; any non-2xx response is a delivery failure.
func (a *WebhookAdapter) Send(ctx context.Context, contactAddress string, msg Message) error {
	body, err := json.Marshal(webhookEnvelope{ContactAddress: contactAddress, Message: msg})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
