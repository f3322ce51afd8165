package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpened                 TicketStatus = "OPENED"
	TicketStatusPendingDAAction        TicketStatus = "PENDING_DA_ACTION"
	TicketStatusAwaitingDAInfo         TicketStatus = "AWAITING_DA_INFO"
	TicketStatusAdditionalInfoProvided TicketStatus = "ADDITIONAL_INFO_PROVIDED"
	TicketStatusAwaitingClientResponse TicketStatus = "AWAITING_CLIENT_RESPONSE"
	TicketStatusClientResponded        TicketStatus = "CLIENT_RESPONDED"
	TicketStatusClientIgnored          TicketStatus = "CLIENT_IGNORED"
	TicketStatusClosed                 TicketStatus = "CLOSED"
)

// Terminal reports whether no further transitions are permitted.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed
}

// ClientResponded reports whether the client already gave its one
// terminal answer, in either form.
func (s TicketStatus) ClientResponded() bool {
	return s == TicketStatusClientResponded || s == TicketStatusClientIgnored
}

// EventAction identifies an entry kind in a ticket's event log.
type EventAction string

const (
	ActionTicketCreated        EventAction = "ticket_created"
	ActionEditField            EventAction = "edit_field"
	ActionSupervisorResolution EventAction = "supervisor_resolution"
	ActionEditedResolution     EventAction = "edited_resolution"
	ActionRequestMoreInfo      EventAction = "request_more_info"
	ActionDAMoreInfo           EventAction = "da_moreinfo"
	ActionSetClient            EventAction = "set_client"
	ActionForwardedToClient    EventAction = "forwarded_to_client"
	ActionClientSolution       EventAction = "client_solution"
	ActionClientIgnored        EventAction = "client_ignored"
	ActionClientFinalResponse  EventAction = "client_final_response"
	ActionClientSolutionSent   EventAction = "client_solution_sent"
	ActionDAClosed             EventAction = "da_closed"
)

// TicketEvent is one append-only entry in a ticket's audit log.
type TicketEvent struct {
	Action    EventAction `json:"action"`
	ActorRole Role        `json:"actor_role"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientUnspecified marks a ticket whose client was not chosen at
// creation time; a supervisor assigns one before forwarding.
const ClientUnspecified = "unspecified"

// Ticket is the aggregate for field-agent issue reports.
type Ticket struct {
	ID           int64
	OrderRef     string
	Description  string
	IssueReason  string
	IssueType    string
	Client       string
	ImageRef     *string
	Status       TicketStatus
	OwnerActorID string
	EventLog     []TicketEvent
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasClient reports whether a concrete client is assigned.
func (t *Ticket) HasClient() bool {
	return t.Client != "" && t.Client != ClientUnspecified
}

// LatestClientSolution returns the message of the most recent
// client_solution entry, or empty when the client never answered.
func (t *Ticket) LatestClientSolution() string {
	return t.latestMessage(ActionClientSolution)
}

// LatestInfoRequest returns the message of the most recent
// request_more_info entry.
func (t *Ticket) LatestInfoRequest() string {
	return t.latestMessage(ActionRequestMoreInfo)
}

// LatestResolution returns the most recent supervisor resolution text,
// preferring an edited resolution over the original.
func (t *Ticket) LatestResolution() string {
	for i := len(t.EventLog) - 1; i >= 0; i-- {
		switch t.EventLog[i].Action {
		case ActionSupervisorResolution, ActionEditedResolution:
			return t.EventLog[i].Message
		}
	}
	return ""
}

func (t *Ticket) latestMessage(action EventAction) string {
	for i := len(t.EventLog) - 1; i >= 0; i-- {
		if t.EventLog[i].Action == action {
			return t.EventLog[i].Message
		}
	}
	return ""
}

// OpenStatuses lists every non-terminal status, in lifecycle order.
func OpenStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpened,
		TicketStatusPendingDAAction,
		TicketStatusAwaitingDAInfo,
		TicketStatusAdditionalInfoProvided,
		TicketStatusAwaitingClientResponse,
		TicketStatusClientResponded,
		TicketStatusClientIgnored,
	}
}
