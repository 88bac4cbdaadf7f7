package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/adapters/store"
	"github.com/mikey/msg-spam-filter/internal/config"
)

// StoreFactory creates message stores based on configuration
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

// CreateStore creates the message store named by store.type
func (f *StoreFactory) CreateStore() (store.Store, error) {
	sc, err := f.cfg.GetStore()
	if err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}
	retention := store.Retention{Age: sc.Retention, Frequency: sc.CleanupFrequency}

	switch sc.Type {
	case "memory":
		return store.NewMemoryStore(f.logger, sc.MaxEntries, retention), nil
	case "file":
		if err := ensureDir(sc.FilePath); err != nil {
			return nil, err
		}
		return store.NewFileStore(sc.FilePath, sc.MaxEntries, f.logger)
	case "sqlite":
		if err := ensureDir(sc.SQLitePath); err != nil {
			return nil, err
		}
		return store.NewSQLiteStore(sc.SQLitePath, f.logger, retention)
	case "mysql":
		return store.NewMySQLStore(sc.MySQLDSN, f.logger, retention)
	case "postgres":
		return store.NewPostgresStore(sc.PostgresDSN, f.logger, retention)
	case "redis":
		return store.NewRedisStore(sc.Redis.Address, sc.Redis.Password, sc.Redis.DB, sc.Redis.Key, sc.MaxEntries, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}
