package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	util "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// AuthService authenticates adapter service accounts.
type AuthService struct {
	accounts repository.AccountRepository
	tokens   *auth.TokenManager
	cfg      config.AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(accounts repository.AccountRepository, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:      cfg,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies an account secret and issues a scoped token.
func (s *AuthService) Login(ctx context.Context, name, secret string) (string, time.Time, error) {
	account, err := s.accounts.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, util.NewUnauthorized("unknown account or bad secret")
		}
		return "", time.Time{}, err
	}
	if err := auth.CompareSecret(account.SecretHash, secret); err != nil {
		return "", time.Time{}, util.NewUnauthorized("unknown account or bad secret")
	}
	return s.tokens.GenerateToken(account.ID, account.Scope)
}

// CreateAccount registers a new adapter account with a hashed secret.
func (s *AuthService) CreateAccount(ctx context.Context, name, secret string, scope domain.AccountScope) (*domain.ServiceAccount, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(secret) == "" {
		return nil, util.NewValidationError("name and secret required", nil)
	}
	hash, err := auth.HashSecret(secret, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	account := &domain.ServiceAccount{
		Name:       strings.TrimSpace(name),
		SecretHash: hash,
		Scope:      scope,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
