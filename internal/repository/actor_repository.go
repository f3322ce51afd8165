package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-service/internal/domain"
)

// ActorRepository handles persistence for the actor registry.
// Upsert is last-write-wins per (identity, role).
type ActorRepository interface {
	Upsert(ctx context.Context, actor *domain.Actor) error
	Get(ctx context.Context, identity string, role domain.Role) (*domain.Actor, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Actor, error)
	ListByRoleAndAffiliation(ctx context.Context, role domain.Role, affiliation string) ([]domain.Actor, error)
	ListAll(ctx context.Context) ([]domain.Actor, error)
}

type actorRepository struct {
	pool *pgxpool.Pool
}

// NewActorRepository instantiates the Postgres-backed repository.
func NewActorRepository(pool *pgxpool.Pool) ActorRepository {
	return &actorRepository{pool: pool}
}

func (r *actorRepository) Upsert(ctx context.Context, actor *domain.Actor) error {
	const query = `
        INSERT INTO actors (identity, role, client_affiliation, contact_address, display_name, phone)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (identity, role) DO UPDATE SET
            client_affiliation=EXCLUDED.client_affiliation,
            contact_address=EXCLUDED.contact_address,
            display_name=EXCLUDED.display_name,
            phone=EXCLUDED.phone,
            updated_at=NOW()
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		actor.Identity,
		actor.Role,
		actor.ClientAffiliation,
		actor.ContactAddress,
		actor.DisplayName,
		actor.Phone,
	).Scan(&actor.CreatedAt, &actor.UpdatedAt)
}

func (r *actorRepository) Get(ctx context.Context, identity string, role domain.Role) (*domain.Actor, error) {
	const query = actorColumns + ` FROM actors WHERE identity=$1 AND role=$2`
	row := r.pool.QueryRow(ctx, query, identity, role)
	return scanActor(row)
}

func (r *actorRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Actor, error) {
	const query = actorColumns + ` FROM actors WHERE role=$1 ORDER BY identity`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActors(rows)
}

func (r *actorRepository) ListByRoleAndAffiliation(ctx context.Context, role domain.Role, affiliation string) ([]domain.Actor, error) {
	const query = actorColumns + ` FROM actors WHERE role=$1 AND client_affiliation=$2 ORDER BY identity`
	rows, err := r.pool.Query(ctx, query, role, affiliation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActors(rows)
}

func (r *actorRepository) ListAll(ctx context.Context) ([]domain.Actor, error) {
	const query = actorColumns + ` FROM actors ORDER BY role, identity`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActors(rows)
}

const actorColumns = `
        SELECT identity, role, client_affiliation, contact_address, display_name, phone, created_at, updated_at`

func scanActor(row pgx.Row) (*domain.Actor, error) {
	var actor domain.Actor
	if err := row.Scan(
		&actor.Identity,
		&actor.Role,
		&actor.ClientAffiliation,
		&actor.ContactAddress,
		&actor.DisplayName,
		&actor.Phone,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &actor, nil
}

func scanActors(rows pgx.Rows) ([]domain.Actor, error) {
	var result []domain.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *actor)
	}
	return result, rows.Err()
}
