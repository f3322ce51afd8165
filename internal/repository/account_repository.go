package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-service/internal/domain"
)

// AccountRepository stores adapter service accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.ServiceAccount) error
	GetByName(ctx context.Context, name string) (*domain.ServiceAccount, error)
	GetByID(ctx context.Context, id string) (*domain.ServiceAccount, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository instantiates the Postgres-backed repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.ServiceAccount) error {
	const query = `
        INSERT INTO service_accounts (name, secret_hash, scope)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		account.Name,
		account.SecretHash,
		account.Scope,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) GetByName(ctx context.Context, name string) (*domain.ServiceAccount, error) {
	const query = `
        SELECT id, name, secret_hash, scope, created_at, updated_at
        FROM service_accounts WHERE name=$1`
	var account domain.ServiceAccount
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&account.ID,
		&account.Name,
		&account.SecretHash,
		&account.Scope,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.ServiceAccount, error) {
	const query = `
        SELECT id, name, secret_hash, scope, created_at, updated_at
        FROM service_accounts WHERE id=$1`
	var account domain.ServiceAccount
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.SecretHash,
		&account.Scope,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
