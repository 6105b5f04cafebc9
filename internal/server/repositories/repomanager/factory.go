package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chatassist/internal/dbx"
	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server/config"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/kvstore"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/memstore"
	"github.com/redis/go-redis/v9"
)

// New builds the RepositoryManager named by cfg.StorageBackend. The Redis
// backend needs rdb; the others ignore it. logger receives migration output.
func New(ctx context.Context, cfg *config.Config, rdb redis.Cmdable, logger logging.Logger) (RepositoryManager, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return NewMemoryRepositoryManager(memstore.New()), nil

	case config.BackendJSONFile:
		s, err := memstore.Open(cfg.JSONFilePath)
		if err != nil {
			return nil, err
		}
		return NewMemoryRepositoryManager(s), nil

	case config.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis storage backend needs a redis client")
		}
		return NewRedisRepositoryManager(kvstore.New(rdb)), nil

	case config.BackendPostgres, config.BackendSQLite:
		driver := dbx.DriverPostgres
		if cfg.StorageBackend == config.BackendSQLite {
			driver = dbx.DriverSQLite
		}
		m, err := OpenSQL(ctx, driver, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, err
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
