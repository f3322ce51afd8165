package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

func newRegistryFixture(t *testing.T) *RegistryService {
	t.Helper()
	return NewRegistryService(repository.NewMemoryActorRepository())
}

// TestRegistry_UpsertLastWriteWins verifies re-registering the same
// (identity, role) replaces the stored contact details.
func TestRegistry_UpsertLastWriteWins(t *testing.T) {
	t.Parallel()
	registry := newRegistryFixture(t)
	ctx := context.Background()

	_, err := registry.Register(ctx, RegisterInput{
		Identity: "u-1", Role: domain.RoleSupervisor, ContactAddress: "old@ops",
	})
	require.NoError(t, err)

	_, err = registry.Register(ctx, RegisterInput{
		Identity: "u-1", Role: domain.RoleSupervisor, ContactAddress: "new@ops", DisplayName: "Pat",
	})
	require.NoError(t, err)

	actor, err := registry.Lookup(ctx, "u-1", domain.RoleSupervisor)
	require.NoError(t, err)
	require.Equal(t, "new@ops", actor.ContactAddress)
	require.Equal(t, "Pat", actor.DisplayName)
}

// TestRegistry_SameIdentityMultipleRoles verifies one identity can hold
// independent subscriptions per role.
func TestRegistry_SameIdentityMultipleRoles(t *testing.T) {
	t.Parallel()
	registry := newRegistryFixture(t)
	ctx := context.Background()

	_, err := registry.Register(ctx, RegisterInput{
		Identity: "u-1", Role: domain.RoleDA, ContactAddress: "u-1@field",
	})
	require.NoError(t, err)
	_, err = registry.Register(ctx, RegisterInput{
		Identity: "u-1", Role: domain.RoleClient, ClientAffiliation: "acme", ContactAddress: "u-1@acme",
	})
	require.NoError(t, err)

	asDA, err := registry.Lookup(ctx, "u-1", domain.RoleDA)
	require.NoError(t, err)
	require.Equal(t, "u-1@field", asDA.ContactAddress)

	asClient, err := registry.Lookup(ctx, "u-1", domain.RoleClient)
	require.NoError(t, err)
	require.Equal(t, "acme", asClient.ClientAffiliation)

	all, err := registry.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

// TestRegistry_AffiliationOnlyForClients rejects affiliations on staff roles.
func TestRegistry_AffiliationOnlyForClients(t *testing.T) {
	t.Parallel()
	registry := newRegistryFixture(t)

	_, err := registry.Register(context.Background(), RegisterInput{
		Identity: "u-1", Role: domain.RoleDA, ClientAffiliation: "acme", ContactAddress: "u-1@field",
	})
	require.True(t, util.IsCode(err, util.CodeValidationFailed))
}

// TestRegistry_IncompleteClientAccepted verifies a client without an
// affiliation registers but stays flagged incomplete.
func TestRegistry_IncompleteClientAccepted(t *testing.T) {
	t.Parallel()
	registry := newRegistryFixture(t)
	ctx := context.Background()

	actor, err := registry.Register(ctx, RegisterInput{
		Identity: "cl-1", Role: domain.RoleClient, ContactAddress: "cl-1@nowhere",
	})
	require.NoError(t, err)
	require.False(t, actor.Complete())

	// A later registration supplying the affiliation completes it.
	actor, err = registry.Register(ctx, RegisterInput{
		Identity: "cl-1", Role: domain.RoleClient, ClientAffiliation: "acme", ContactAddress: "cl-1@acme",
	})
	require.NoError(t, err)
	require.True(t, actor.Complete())
}

// TestRegistry_ValidationAndLookupErrors covers required fields and misses.
func TestRegistry_ValidationAndLookupErrors(t *testing.T) {
	t.Parallel()
	registry := newRegistryFixture(t)
	ctx := context.Background()

	_, err := registry.Register(ctx, RegisterInput{Role: domain.RoleDA, ContactAddress: "x@y"})
	require.True(t, util.IsCode(err, util.CodeValidationFailed))

	_, err = registry.Register(ctx, RegisterInput{Identity: "u-1", Role: domain.Role("MANAGER"), ContactAddress: "x@y"})
	require.True(t, util.IsCode(err, util.CodeValidationFailed))

	_, err = registry.Register(ctx, RegisterInput{Identity: "u-1", Role: domain.RoleDA})
	require.True(t, util.IsCode(err, util.CodeValidationFailed))

	_, err = registry.Lookup(ctx, "ghost", domain.RoleDA)
	require.True(t, util.IsCode(err, util.CodeNotFound))

	_, err = registry.ListByRole(ctx, domain.Role("MANAGER"))
	require.True(t, util.IsCode(err, util.CodeValidationFailed))
}

// TestRegistry_ListByRoleAndAffiliation filters the client audience.
func TestRegistry_ListByRoleAndAffiliation(t *testing.T) {
	t.Parallel()
	registry := newRegistryFixture(t)
	ctx := context.Background()

	for _, in := range []RegisterInput{
		{Identity: "cl-1", Role: domain.RoleClient, ClientAffiliation: "acme", ContactAddress: "cl-1@acme"},
		{Identity: "cl-2", Role: domain.RoleClient, ClientAffiliation: "globex", ContactAddress: "cl-2@globex"},
		{Identity: "sup-1", Role: domain.RoleSupervisor, ContactAddress: "sup-1@ops"},
	} {
		_, err := registry.Register(ctx, in)
		require.NoError(t, err)
	}

	acme, err := registry.ListByRoleAndAffiliation(ctx, domain.RoleClient, "acme")
	require.NoError(t, err)
	require.Len(t, acme, 1)
	require.Equal(t, "cl-1", acme[0].Identity)
}
