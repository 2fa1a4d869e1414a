package core

import (
	"claimcore/internal/infra/persistence/jsonfile"
	"claimcore/internal/infra/persistence/memory"
	"claimcore/internal/infra/persistence/postgres"
	"claimcore/internal/infra/persistence/sqlite"
	"claimcore/pkg/domain"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageJSON     StorageDriver = "json"     // JSON snapshot file (default)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterises the persistent store.
type StorageConfig struct {
	Driver      StorageDriver
	JSONPath    string
	SQLitePath  string
	PostgresDSN string
}

type loader interface {
	Load(ctx context.Context) error
}

// OpenPersistentStore builds the backend described by cfg and hydrates it.
// A malformed snapshot is logged and the store starts empty. Backends holding
// connections implement io.Closer; see CloseStore.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine, logger *zap.Logger, opts ...memory.Option) (PersistentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := cfg.Driver
	if driver == "" {
		driver = StorageJSON
	}
	var store PersistentStore
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case StorageJSON:
		store = jsonfile.NewStore(cfg.JSONPath, engine, opts...)
	case StorageSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath, engine, opts...)
		if err != nil {
			return nil, err
		}
		store = s
	case StoragePostgres:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN, engine, opts...)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}

	if err := store.(loader).Load(ctx); err != nil {
		if !domain.IsImport(err) {
			_ = CloseStore(store)
			return nil, err
		}
		var ie *domain.ImportError
		errors.As(err, &ie)
		logger.Warn("snapshot unreadable, starting empty",
			zap.String("driver", string(driver)),
			zap.String("source", ie.Source),
			zap.Error(err))
	}
	logger.Info("store opened",
		zap.String("driver", string(driver)),
		zap.Int("policyholders", len(store.ListPolicyholders())),
		zap.Int("claims", len(store.ListClaims())))
	return store, nil
}

// CloseStore releases backend resources when the store holds any.
func CloseStore(store PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
