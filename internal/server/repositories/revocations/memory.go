package revocations

import (
	"context"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{expires: make(map[string]time.Time)}
}

func (r *MemoryRepository) Create(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.expires[tokenID]; !ok {
		r.expires[tokenID] = expiresAt
	}
	return nil
}

func (r *MemoryRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.expires[tokenID]
	return ok, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, exp := range r.expires {
		if exp.Before(now) {
			delete(r.expires, id)
			n++
		}
	}
	return n, nil
}
