package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Statuses     []domain.TicketStatus
	Client       *string
	OwnerActorID *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence. Mutate is the
// single serialization point for same-ticket updates: status change
// and log append commit as one atomic unit or not at all.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Mutate(ctx context.Context, id int64, apply func(*domain.Ticket) error) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	SearchByOrderRef(ctx context.Context, substring string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	logJSON, err := json.Marshal(ticket.EventLog)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (order_ref, description, issue_reason, issue_type, client, image_ref, status, owner_actor_id, event_log)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.OrderRef,
		ticket.Description,
		ticket.IssueReason,
		ticket.IssueType,
		ticket.Client,
		ticket.ImageRef,
		ticket.Status,
		ticket.OwnerActorID,
		logJSON,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = selectColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

// Mutate loads the ticket under a row lock, applies the mutation and
// writes status plus event log back in the same transaction. A
// rejected mutation rolls back without touching the row.
func (r *ticketRepository) Mutate(ctx context.Context, id int64, apply func(*domain.Ticket) error) (*domain.Ticket, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = selectColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	ticket, err := scanTicket(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := apply(ticket); err != nil {
		return nil, err
	}

	logJSON, err := json.Marshal(ticket.EventLog)
	if err != nil {
		return nil, err
	}
	const update = `
        UPDATE tickets SET client=$1, status=$2, event_log=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update, ticket.Client, ticket.Status, logJSON, ticket.ID).Scan(&ticket.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := selectColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Client != nil {
		args = append(args, *filter.Client)
		clauses = append(clauses, fmt.Sprintf("client=$%d", len(args)))
	}
	if filter.OwnerActorID != nil {
		args = append(args, *filter.OwnerActorID)
		clauses = append(clauses, fmt.Sprintf("owner_actor_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY id ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// SearchByOrderRef matches order references by case-sensitive substring.
func (r *ticketRepository) SearchByOrderRef(ctx context.Context, substring string) ([]domain.Ticket, error) {
	const query = selectColumns + ` FROM tickets WHERE order_ref LIKE '%' || $1 || '%'`
	rows, err := r.pool.Query(ctx, query, substring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

const selectColumns = `
        SELECT id, order_ref, description, issue_reason, issue_type, client, image_ref,
               status, owner_actor_id, event_log, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var logJSON []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.OrderRef,
		&ticket.Description,
		&ticket.IssueReason,
		&ticket.IssueType,
		&ticket.Client,
		&ticket.ImageRef,
		&ticket.Status,
		&ticket.OwnerActorID,
		&logJSON,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(logJSON) > 0 {
		if err := json.Unmarshal(logJSON, &ticket.EventLog); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
