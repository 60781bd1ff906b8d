package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps refresh tokens in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	byToken map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]models.RefreshToken)}
}

func (r *MemoryRepository) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[token.Token]; ok {
		return common.ErrorAlreadyExists
	}

	rt := *token
	rt.ID = uuid.NewString()
	rt.CreatedAt = time.Now().UTC()
	r.byToken[rt.Token] = rt
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (r *MemoryRepository) Extend(_ context.Context, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.byToken[token]
	if !ok {
		return common.ErrorNotFound
	}
	rt.Expires = expires
	r.byToken[token] = rt
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, rt := range r.byToken {
		if rt.Expires.Before(now) {
			delete(r.byToken, k)
			n++
		}
	}
	return n, nil
}
