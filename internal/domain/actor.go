package domain

import "time"

// Role identifies which front end an actor interacts through.
type Role string

const (
	RoleDA         Role = "DA"
	RoleSupervisor Role = "SUPERVISOR"
	RoleClient     Role = "CLIENT"
)

// Valid reports whether the role is one of the known three.
func (r Role) Valid() bool {
	switch r {
	case RoleDA, RoleSupervisor, RoleClient:
		return true
	}
	return false
}

// Actor is a registry entry keyed by (Identity, Role). The same
// external identity may hold several roles simultaneously.
type Actor struct {
	Identity          string
	Role              Role
	ClientAffiliation string
	ContactAddress    string
	DisplayName       string
	Phone             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Complete reports whether the actor can receive fan-out for its role.
// A Client actor with no affiliation is an incomplete subscription.
func (a *Actor) Complete() bool {
	if a.Role == RoleClient && a.ClientAffiliation == "" {
		return false
	}
	return a.ContactAddress != ""
}
