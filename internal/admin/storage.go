package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server/config"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/repomanager"
	"github.com/redis/go-redis/v9"
)

// ErrVolatileStorage is returned for the memory backend: changes made by a
// separate admin process would be lost when it exits.
var ErrVolatileStorage = errors.New("memory storage backend cannot be administered from the command line")

// OpenRepositories opens the storage named by cfg for an admin command.
// The jsonfile backend is owned by a single process, so it fails while the
// server has the file open.
func OpenRepositories(ctx context.Context, cfg *config.Config, rdb redis.Cmdable, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if cfg.StorageBackend == config.BackendMemory {
		return nil, ErrVolatileStorage
	}

	repos, err := repomanager.New(ctx, cfg, rdb, logger)
	if errors.Is(err, memstore.ErrStoreInUse) {
		return nil, fmt.Errorf("%w (stop the server before running admin commands)", err)
	}
	return repos, err
}
