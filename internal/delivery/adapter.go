package delivery

import (
	"context"

	"github.com/spec-kit/triage-service/internal/domain"
)

// Message is the structured payload handed to a delivery adapter. The
// core never produces presentation markup; adapters render it for
// their transport.
type Message struct {
	TicketID int64  `json:"ticket_id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	// Actions lists the transition kinds the recipient may take next,
	// so the adapter can render them as buttons or menu entries.
	Actions []domain.TransitionKind `json:"actions,omitempty"`
}

// Adapter delivers one message to one contact address. Delivery is
// at-most-once best-effort; the caller owns timeout bounding.
type Adapter interface {
	Send(ctx context.Context, contactAddress string, msg Message) error
}

// Adapters bundles one adapter per role, constructed once at startup
// and injected wherever fan-out happens.
type Adapters struct {
	DA         Adapter
	Supervisor Adapter
	Client     Adapter
}

// ForRole selects the adapter serving a role.
func (a Adapters) ForRole(role domain.Role) Adapter {
	switch role {
	case domain.RoleDA:
		return a.DA
	case domain.RoleSupervisor:
		return a.Supervisor
	case domain.RoleClient:
		return a.Client
	}
	return nil
}
