// Package factory selects a storage backend from configuration.
package factory

import (
	"fmt"
	"log/slog"

	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/storage"
	"github.com/gridironlab/playbook/internal/storage/memory"
	"github.com/gridironlab/playbook/internal/storage/postgres"
	sqlitestorage "github.com/gridironlab/playbook/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration. The backend
// is not initialized.
func NewBackend(cfg config.StorageConfig, log *slog.Logger, dbLog zerolog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(postgres.Dependencies{Logger: log, DBLogger: dbLog}), nil
	case "sqlite":
		b, err := sqlitestorage.New(cfg.SQLite, log, dbLog)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
