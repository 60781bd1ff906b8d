package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/satkeeper/internal/dbx"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps every repository in process memory. The
// DBTX handed to its factories is ignored. InTx serializes transactions
// against each other but cannot roll back a partially applied fn.
type MemoryRepositoryManager struct {
	txMu          sync.Mutex
	users         *users.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	revocations   *revocations.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		revocations:   revocations.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *MemoryRepositoryManager) Revocations(dbx.DBTX) revocations.Repository {
	return m.revocations
}

func (m *MemoryRepositoryManager) Close() error { return nil }
