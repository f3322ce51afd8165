package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TestTokenManager_Roundtrip verifies a generated token parses back with the
// same account and scope claims.
func TestTokenManager_Roundtrip(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("test-secret", 15)

	token, expiresAt, err := tm.GenerateToken("acc-1", domain.ScopeSupervisor)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, domain.ScopeSupervisor, claims.Scope)
}

// TestTokenManager_RejectsWrongSecret verifies tokens signed elsewhere fail.
func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	t.Parallel()
	token, _, err := NewTokenManager("secret-a", 15).GenerateToken("acc-1", domain.ScopeDA)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 15).ParseToken(token)
	require.Error(t, err)
}

// TestTokenManager_RejectsGarbage verifies malformed input fails cleanly.
func TestTokenManager_RejectsGarbage(t *testing.T) {
	t.Parallel()
	_, err := NewTokenManager("secret", 15).ParseToken("not-a-token")
	require.Error(t, err)
}

// TestHashSecret_Roundtrip verifies hashing and comparison.
func TestHashSecret_Roundtrip(t *testing.T) {
	t.Parallel()
	hash, err := HashSecret("s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, CompareSecret(hash, "s3cret"))
	require.Error(t, CompareSecret(hash, "wrong"))
}
