package repomanager

import (
	"context"

	"github.com/dmitrijs2005/chatassist/internal/server/repositories/chats"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/kvstore"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/users"
)

// RedisRepositoryManager serves the Redis-backed store. Closing the client
// is left to its owner, which may share it with the login throttle.
type RedisRepositoryManager struct {
	store *kvstore.Store
}

func NewRedisRepositoryManager(store *kvstore.Store) *RedisRepositoryManager {
	return &RedisRepositoryManager{store: store}
}

func (m *RedisRepositoryManager) Users() users.Repository       { return m.store.Users() }
func (m *RedisRepositoryManager) Chats() chats.Repository       { return m.store.Chats() }
func (m *RedisRepositoryManager) Messages() messages.Repository { return m.store.Messages() }

// Atomic runs fn directly; a failure between two writes leaves the first
// one in place.
func (m *RedisRepositoryManager) Atomic(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return fn(ctx, m)
}

func (m *RedisRepositoryManager) Close() error {
	return nil
}
