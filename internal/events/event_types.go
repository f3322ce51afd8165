package events

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened       EventType = "ticket_opened"
	EventTicketForwarded    EventType = "ticket_forwarded_to_client"
	EventClientResponded    EventType = "client_responded"
	EventInfoRequested      EventType = "info_requested"
	EventInfoProvided       EventType = "info_provided"
	EventResolutionSent     EventType = "resolution_sent"
	EventTicketClosed       EventType = "ticket_closed"
	EventReminderDue        EventType = "reminder_due"
)

// Event represents a domain event emitted by the workflow.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorRole domain.Role `json:"actor_role"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	OrderRef     string `json:"order_ref"`
	Client       string `json:"client"`
	Description  string `json:"description"`
	OwnerActorID string `json:"owner_actor_id"`
}

// TicketForwardedPayload payload.
type TicketForwardedPayload struct {
	OrderRef    string `json:"order_ref"`
	Client      string `json:"client"`
	Description string `json:"description"`
	IssueType   string `json:"issue_type"`
}

// ClientRespondedPayload payload. Ignored carries the two-event trail
// distinction so supervisor fan-out can phrase the result.
type ClientRespondedPayload struct {
	Solution string `json:"solution,omitempty"`
	Ignored  bool   `json:"ignored"`
}

// InfoRequestedPayload payload.
type InfoRequestedPayload struct {
	Request      string `json:"request"`
	OwnerActorID string `json:"owner_actor_id"`
}

// InfoProvidedPayload payload.
type InfoProvidedPayload struct {
	Info string `json:"info"`
}

// ResolutionSentPayload payload.
type ResolutionSentPayload struct {
	Resolution   string `json:"resolution"`
	OwnerActorID string `json:"owner_actor_id"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	OrderRef string `json:"order_ref"`
}

// ReminderDuePayload payload.
type ReminderDuePayload struct {
	ContactAddress string `json:"contact_address"`
}
