package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// LoginRequest authenticates an adapter service account.
type LoginRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterActorRequest upserts a registry entry.
type RegisterActorRequest struct {
	Identity          string      `json:"identity"`
	Role              domain.Role `json:"role"`
	ClientAffiliation string      `json:"client_affiliation"`
	ContactAddress    string      `json:"contact_address"`
	DisplayName       string      `json:"display_name"`
	Phone             string      `json:"phone"`
}

// ActorResponse mirrors a registry entry.
type ActorResponse struct {
	Identity          string      `json:"identity"`
	Role              domain.Role `json:"role"`
	ClientAffiliation string      `json:"client_affiliation,omitempty"`
	ContactAddress    string      `json:"contact_address"`
	DisplayName       string      `json:"display_name,omitempty"`
	Phone             string      `json:"phone,omitempty"`
	Complete          bool        `json:"complete"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}
