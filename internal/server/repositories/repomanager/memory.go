package repomanager

import (
	"context"

	"github.com/dmitrijs2005/chatassist/internal/server/repositories/chats"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/users"
)

// MemoryRepositoryManager serves the in-process store, with or without its
// JSON file mirror.
type MemoryRepositoryManager struct {
	store *memstore.Store
}

func NewMemoryRepositoryManager(store *memstore.Store) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: store}
}

func (m *MemoryRepositoryManager) Users() users.Repository       { return m.store.Users() }
func (m *MemoryRepositoryManager) Chats() chats.Repository       { return m.store.Chats() }
func (m *MemoryRepositoryManager) Messages() messages.Repository { return m.store.Messages() }

type memTxRepos struct {
	tx *memstore.Tx
}

func (r memTxRepos) Users() users.Repository       { return r.tx.Users() }
func (r memTxRepos) Chats() chats.Repository       { return r.tx.Chats() }
func (r memTxRepos) Messages() messages.Repository { return r.tx.Messages() }

func (m *MemoryRepositoryManager) Atomic(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return m.store.Atomic(ctx, func(ctx context.Context, tx *memstore.Tx) error {
		return fn(ctx, memTxRepos{tx: tx})
	})
}

func (m *MemoryRepositoryManager) Close() error {
	return m.store.Close()
}
