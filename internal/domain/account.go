package domain

import "time"

// AccountScope limits what a service account may call.
type AccountScope string

const (
	ScopeDA         AccountScope = "DA"
	ScopeSupervisor AccountScope = "SUPERVISOR"
	ScopeClient     AccountScope = "CLIENT"
	ScopeAdmin      AccountScope = "ADMIN"
)

// ServiceAccount authenticates one front-end adapter (or the admin
// dashboard) against the HTTP API.
type ServiceAccount struct {
	ID         string
	Name       string
	SecretHash string
	Scope      AccountScope
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Role returns the actor role an adapter scope acts for, or false for
// the admin scope which performs no transitions.
func (s AccountScope) Role() (Role, bool) {
	switch s {
	case ScopeDA:
		return RoleDA, true
	case ScopeSupervisor:
		return RoleSupervisor, true
	case ScopeClient:
		return RoleClient, true
	}
	return "", false
}
