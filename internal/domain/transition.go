package domain

// TransitionKind is the decoded action variant an adapter submits.
// Adapters decode whatever their chat transport encodes (button
// callbacks, menu taps) into one of these before calling the core.
type TransitionKind string

const (
	TransitionResolve        TransitionKind = "resolve"
	TransitionEditResolution TransitionKind = "edit_resolution"
	TransitionRequestInfo    TransitionKind = "request_info"
	TransitionProvideInfo    TransitionKind = "provide_info"
	TransitionSetClient      TransitionKind = "set_client"
	TransitionForwardClient  TransitionKind = "forward_client"
	TransitionClientSolve    TransitionKind = "client_solve"
	TransitionClientIgnore   TransitionKind = "client_ignore"
	TransitionForwardDA      TransitionKind = "forward_da"
	TransitionClose          TransitionKind = "close"
)

// Transition is a fully decoded actor action against one ticket.
type Transition struct {
	Kind     TransitionKind
	TicketID int64
	Role     Role
	// Payload carries the free-text part of the action: a resolution
	// message, requested info, the chosen client name, or the client's
	// solution. Empty for close/ignore/forward.
	Payload string
}
