package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/triage-service/internal/domain"
)

// ErrDraftNotFound reports an absent or expired draft.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore holds in-progress ticket drafts, one per owning DA.
// Drafts never touch the ticket store until finalized.
type DraftStore interface {
	Put(ctx context.Context, draft *domain.TicketDraft) error
	Get(ctx context.Context, ownerActorID string) (*domain.TicketDraft, error)
	Delete(ctx context.Context, ownerActorID string) error
}

const draftKeyPrefix = "draft:"

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore keeps drafts in Redis with a TTL so abandoned
// sessions expire on their own.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{client: client, ttl: ttl}
}

func (s *redisDraftStore) Put(ctx context.Context, draft *domain.TicketDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, draftKeyPrefix+draft.OwnerActorID, data, s.ttl).Err()
}

func (s *redisDraftStore) Get(ctx context.Context, ownerActorID string) (*domain.TicketDraft, error) {
	data, err := s.client.Get(ctx, draftKeyPrefix+ownerActorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	var draft domain.TicketDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *redisDraftStore) Delete(ctx context.Context, ownerActorID string) error {
	return s.client.Del(ctx, draftKeyPrefix+ownerActorID).Err()
}

type memoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]domain.TicketDraft
}

// NewMemoryDraftStore backs tests and runs without Redis.
func NewMemoryDraftStore() DraftStore {
	return &memoryDraftStore{drafts: make(map[string]domain.TicketDraft)}
}

func (s *memoryDraftStore) Put(ctx context.Context, draft *domain.TicketDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.OwnerActorID] = *draft
	return nil
}

func (s *memoryDraftStore) Get(ctx context.Context, ownerActorID string) (*domain.TicketDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[ownerActorID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	draft.Edits = append([]domain.TicketEvent(nil), draft.Edits...)
	return &draft, nil
}

func (s *memoryDraftStore) Delete(ctx context.Context, ownerActorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, ownerActorID)
	return nil
}
