package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// RegistryService maintains the actor registry: which external
// identities act in which roles and where notifications reach them.
type RegistryService struct {
	actors repository.ActorRepository
}

// NewRegistryService constructs the service.
func NewRegistryService(actors repository.ActorRepository) *RegistryService {
	return &RegistryService{actors: actors}
}

// RegisterInput describes a subscription upsert.
type RegisterInput struct {
	Identity          string
	Role              domain.Role
	ClientAffiliation string
	ContactAddress    string
	DisplayName       string
	Phone             string
}

// Register upserts an actor, last-write-wins per (identity, role).
// A Client actor registered without an affiliation is accepted but
// flagged incomplete; it stays excluded from client fan-out until a
// later registration supplies the affiliation.
func (s *RegistryService) Register(ctx context.Context, input RegisterInput) (*domain.Actor, error) {
	if strings.TrimSpace(input.Identity) == "" {
		return nil, util.NewValidationError("identity required", nil)
	}
	if !input.Role.Valid() {
		return nil, util.NewValidationError("unknown role", map[string]any{"role": string(input.Role)})
	}
	if strings.TrimSpace(input.ContactAddress) == "" {
		return nil, util.NewValidationError("contact_address required", nil)
	}
	if input.Role != domain.RoleClient && input.ClientAffiliation != "" {
		return nil, util.NewValidationError("client_affiliation is only valid for the CLIENT role", nil)
	}

	actor := &domain.Actor{
		Identity:          strings.TrimSpace(input.Identity),
		Role:              input.Role,
		ClientAffiliation: strings.TrimSpace(input.ClientAffiliation),
		ContactAddress:    strings.TrimSpace(input.ContactAddress),
		DisplayName:       strings.TrimSpace(input.DisplayName),
		Phone:             strings.TrimSpace(input.Phone),
	}
	if err := s.actors.Upsert(ctx, actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// Lookup fetches one actor by registry key.
func (s *RegistryService) Lookup(ctx context.Context, identity string, role domain.Role) (*domain.Actor, error) {
	actor, err := s.actors.Get(ctx, identity, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("actor", map[string]any{"identity": identity, "role": string(role)})
		}
		return nil, err
	}
	return actor, nil
}

// ListByRole returns every actor holding the role.
func (s *RegistryService) ListByRole(ctx context.Context, role domain.Role) ([]domain.Actor, error) {
	if !role.Valid() {
		return nil, util.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	return s.actors.ListByRole(ctx, role)
}

// ListByRoleAndAffiliation returns actors of the role bound to one
// client name.
func (s *RegistryService) ListByRoleAndAffiliation(ctx context.Context, role domain.Role, affiliation string) ([]domain.Actor, error) {
	if !role.Valid() {
		return nil, util.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	return s.actors.ListByRoleAndAffiliation(ctx, role, affiliation)
}

// ListAll returns the complete registry, for the admin read surface.
func (s *RegistryService) ListAll(ctx context.Context) ([]domain.Actor, error) {
	return s.actors.ListAll(ctx)
}
