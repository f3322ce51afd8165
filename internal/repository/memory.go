package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/domain"
)

// In-memory implementations backing tests and DSN-less development
// runs. Missing rows surface as pgx.ErrNoRows so the error mapping
// stays uniform with the Postgres repositories.

type memoryTicketRepository struct {
	mu      sync.Mutex
	nextID  int64
	tickets map[int64]*domain.Ticket
	locks   map[int64]*sync.Mutex
}

// NewMemoryTicketRepository builds an empty in-memory ticket store.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{
		nextID:  1,
		tickets: make(map[int64]*domain.Ticket),
		locks:   make(map[int64]*sync.Mutex),
	}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	ticket.ID = r.nextID
	r.nextID++
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := cloneTicket(ticket)
	r.tickets[ticket.ID] = stored
	r.locks[ticket.ID] = &sync.Mutex{}
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneTicket(ticket), nil
}

// Mutate serializes same-ticket updates on a per-ticket mutex; the
// stored ticket is replaced only when apply succeeds.
func (r *memoryTicketRepository) Mutate(ctx context.Context, id int64, apply func(*domain.Ticket) error) (*domain.Ticket, error) {
	r.mu.Lock()
	lock, ok := r.locks[id]
	r.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}

	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	stored := r.tickets[id]
	working := cloneTicket(stored)
	r.mu.Unlock()

	if err := apply(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()

	r.mu.Lock()
	r.tickets[id] = cloneTicket(working)
	r.mu.Unlock()
	return working, nil
}

func (r *memoryTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.tickets))
	for id := range r.tickets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []domain.Ticket
	for _, id := range ids {
		ticket := r.tickets[id]
		if len(filter.Statuses) > 0 && !statusIn(ticket.Status, filter.Statuses) {
			continue
		}
		if filter.Client != nil && ticket.Client != *filter.Client {
			continue
		}
		if filter.OwnerActorID != nil && ticket.OwnerActorID != *filter.OwnerActorID {
			continue
		}
		result = append(result, *cloneTicket(ticket))
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memoryTicketRepository) SearchByOrderRef(ctx context.Context, substring string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if strings.Contains(ticket.OrderRef, substring) {
			result = append(result, *cloneTicket(ticket))
		}
	}
	return result, nil
}

func statusIn(status domain.TicketStatus, set []domain.TicketStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	clone.EventLog = append([]domain.TicketEvent(nil), t.EventLog...)
	if t.ImageRef != nil {
		ref := *t.ImageRef
		clone.ImageRef = &ref
	}
	return &clone
}

type actorKey struct {
	identity string
	role     domain.Role
}

type memoryActorRepository struct {
	mu     sync.RWMutex
	actors map[actorKey]domain.Actor
}

// NewMemoryActorRepository builds an empty in-memory actor registry.
func NewMemoryActorRepository() ActorRepository {
	return &memoryActorRepository{actors: make(map[actorKey]domain.Actor)}
}

func (r *memoryActorRepository) Upsert(ctx context.Context, actor *domain.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := actorKey{identity: actor.Identity, role: actor.Role}
	now := time.Now()
	if existing, ok := r.actors[key]; ok {
		actor.CreatedAt = existing.CreatedAt
	} else {
		actor.CreatedAt = now
	}
	actor.UpdatedAt = now
	r.actors[key] = *actor
	return nil
}

func (r *memoryActorRepository) Get(ctx context.Context, identity string, role domain.Role) (*domain.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actor, ok := r.actors[actorKey{identity: identity, role: role}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &actor, nil
}

func (r *memoryActorRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Actor, error) {
	return r.list(func(a domain.Actor) bool { return a.Role == role }), nil
}

func (r *memoryActorRepository) ListByRoleAndAffiliation(ctx context.Context, role domain.Role, affiliation string) ([]domain.Actor, error) {
	return r.list(func(a domain.Actor) bool {
		return a.Role == role && a.ClientAffiliation == affiliation
	}), nil
}

func (r *memoryActorRepository) ListAll(ctx context.Context) ([]domain.Actor, error) {
	return r.list(func(domain.Actor) bool { return true }), nil
}

func (r *memoryActorRepository) list(match func(domain.Actor) bool) []domain.Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Actor
	for _, actor := range r.actors {
		if match(actor) {
			result = append(result, actor)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Role != result[j].Role {
			return result[i].Role < result[j].Role
		}
		return result[i].Identity < result[j].Identity
	})
	return result
}

type memoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.ServiceAccount
}

// NewMemoryAccountRepository builds an empty in-memory account store.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{accounts: make(map[string]domain.ServiceAccount)}
}

func (r *memoryAccountRepository) Create(ctx context.Context, account *domain.ServiceAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = *account
	return nil
}

func (r *memoryAccountRepository) GetByName(ctx context.Context, name string) (*domain.ServiceAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.Name == name {
			result := account
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryAccountRepository) GetByID(ctx context.Context, id string) (*domain.ServiceAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &account, nil
}
