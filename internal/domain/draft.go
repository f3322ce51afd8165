package domain

import "time"

// DraftField names an editable ticket-creation field.
type DraftField string

const (
	DraftFieldOrderRef    DraftField = "order_ref"
	DraftFieldDescription DraftField = "description"
	DraftFieldIssueReason DraftField = "issue_reason"
	DraftFieldIssueType   DraftField = "issue_type"
	DraftFieldClient      DraftField = "client"
	DraftFieldImageRef    DraftField = "image_ref"
)

// ValidDraftField reports whether the name is editable.
func ValidDraftField(f DraftField) bool {
	switch f {
	case DraftFieldOrderRef, DraftFieldDescription, DraftFieldIssueReason,
		DraftFieldIssueType, DraftFieldClient, DraftFieldImageRef:
		return true
	}
	return false
}

// TicketDraft is an in-progress, uncommitted ticket creation. Field
// edits accumulate in Edits and reach the store only on finalize;
// abandoning a draft leaves no trace.
type TicketDraft struct {
	OwnerActorID string        `json:"owner_actor_id"`
	OrderRef     string        `json:"order_ref"`
	Description  string        `json:"description"`
	IssueReason  string        `json:"issue_reason"`
	IssueType    string        `json:"issue_type"`
	Client       string        `json:"client"`
	ImageRef     *string       `json:"image_ref,omitempty"`
	Edits        []TicketEvent `json:"edits"`
	StartedAt    time.Time     `json:"started_at"`
}

// SetField applies one edit and records it in the draft's own log.
func (d *TicketDraft) SetField(field DraftField, value string, at time.Time) {
	switch field {
	case DraftFieldOrderRef:
		d.OrderRef = value
	case DraftFieldDescription:
		d.Description = value
	case DraftFieldIssueReason:
		d.IssueReason = value
	case DraftFieldIssueType:
		d.IssueType = value
	case DraftFieldClient:
		d.Client = value
	case DraftFieldImageRef:
		v := value
		d.ImageRef = &v
	}
	d.Edits = append(d.Edits, TicketEvent{
		Action:    ActionEditField,
		ActorRole: RoleDA,
		Message:   string(field) + "=" + value,
		Timestamp: at,
	})
}
