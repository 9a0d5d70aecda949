package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/adapters/storage"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
)

// StoreFactory creates history repositories based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryRepository creates a history repository based on the configuration
func (f *StoreFactory) CreateHistoryRepository() (core.HistoryRepository, error) {
	storageCfg := f.cfg.GetStorage()

	switch storageCfg.Type {
	case "postgres":
		return storage.NewPostgresStore(context.Background(), storageCfg.PostgresDSN, f.logger)
	case "sqlite":
		sqlitePath := storageCfg.SQLitePath
		if sqlitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
			}
		}
		return storage.NewSQLiteStore(sqlitePath, f.logger)
	case "mysql":
		return storage.NewMySQLStore(storageCfg.MySQLDSN, f.logger)
	case "memory":
		return storage.NewMemoryStore(f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageCfg.Type)
	}
}
