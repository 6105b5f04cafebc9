// Package repomanager selects the storage backend from configuration and
// exposes its repositories behind one interface.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/chatassist/internal/server/repositories/chats"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/users"
)

// Repositories groups the per-entity repositories of one backend.
type Repositories interface {
	Users() users.Repository
	Chats() chats.Repository
	Messages() messages.Repository
}

// RepositoryManager is what services depend on.
//
// Atomic runs fn against repositories whose writes commit together where the
// backend supports it: SQL backends use a transaction, the memory and JSON
// file backends hold the store lock and discard changes on error, and Redis
// runs the writes one after another without rollback.
type RepositoryManager interface {
	Repositories
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	Close() error
}
