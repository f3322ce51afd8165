package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TransitionRequest submits a decoded actor action for a ticket.
type TransitionRequest struct {
	Kind    domain.TransitionKind `json:"kind"`
	Payload string                `json:"payload"`
}

// TicketEventResponse is one audit-log entry.
type TicketEventResponse struct {
	Action    domain.EventAction `json:"action"`
	ActorRole domain.Role        `json:"actor_role"`
	Message   string             `json:"message,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           int64               `json:"id"`
	OrderRef     string              `json:"order_ref"`
	Client       string              `json:"client"`
	IssueType    string              `json:"issue_type"`
	Status       domain.TicketStatus `json:"status"`
	OwnerActorID string              `json:"owner_actor_id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including the log.
type TicketDetailResponse struct {
	ID           int64                 `json:"id"`
	OrderRef     string                `json:"order_ref"`
	Description  string                `json:"description"`
	IssueReason  string                `json:"issue_reason"`
	IssueType    string                `json:"issue_type"`
	Client       string                `json:"client"`
	ImageRef     *string               `json:"image_ref,omitempty"`
	Status       domain.TicketStatus   `json:"status"`
	OwnerActorID string                `json:"owner_actor_id"`
	EventLog     []TicketEventResponse `json:"event_log"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// StartDraftRequest opens a creation draft for a DA.
type StartDraftRequest struct {
	OwnerActorID string `json:"owner_actor_id"`
}

// EditDraftRequest applies one field edit.
type EditDraftRequest struct {
	Field domain.DraftField `json:"field"`
	Value string            `json:"value"`
}

// DraftResponse mirrors the in-progress draft.
type DraftResponse struct {
	OwnerActorID string                `json:"owner_actor_id"`
	OrderRef     string                `json:"order_ref"`
	Description  string                `json:"description"`
	IssueReason  string                `json:"issue_reason"`
	IssueType    string                `json:"issue_type"`
	Client       string                `json:"client"`
	ImageRef     *string               `json:"image_ref,omitempty"`
	Edits        []TicketEventResponse `json:"edits"`
	StartedAt    time.Time             `json:"started_at"`
}

// ScheduleReminderRequest arms a "respond later" reminder.
type ScheduleReminderRequest struct {
	ContactAddress string `json:"contact_address"`
	Delay          string `json:"delay"`
}
