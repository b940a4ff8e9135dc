// Package sqlitestorage implements the storage.Backend interface over SQLite.
// It wraps the GORM backend via composition; the SQLite-specific concerns are
// opening the database and, for in-memory databases, periodic disk dumps via
// VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/database"
	gormstorage "github.com/gridironlab/playbook/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *database.Manager
	cfg      config.SQLiteConfig
	log      *slog.Logger
	stopChan chan struct{}
	done     sync.WaitGroup
	once     sync.Once
}

// New opens the SQLite database described by cfg. An empty cfg.Path keeps
// the database in memory.
func New(cfg config.SQLiteConfig, log *slog.Logger, dbLog zerolog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	m := database.NewManager(dbLog)
	if err := m.ConnectSqlite(cfg.Path); err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}
	m.SqliteFilePath = cfg.DumpPath

	return &Backend{
		Backend:  gormstorage.New(gormstorage.Dependencies{DB: m.DB, Logger: log}),
		db:       m,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.dumps() {
		b.done.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, writes a final dump and closes the database.
func (b *Backend) Close() error {
	var err error
	b.once.Do(func() {
		close(b.stopChan)
		b.done.Wait()

		if b.dumps() {
			if dumpErr := b.db.DumpMemoryToDisk(); dumpErr != nil {
				b.log.Error("Final dump failed", "error", dumpErr)
			}
		}
		if closeErr := b.Backend.Close(); closeErr != nil {
			err = closeErr
		}
		if closeErr := b.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}

// InMemory reports whether the database lives in memory
func (b *Backend) InMemory() bool {
	return b.db.InMemory
}

func (b *Backend) dumps() bool {
	return b.db.InMemory && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.done.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.db.DumpMemoryToDisk(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			} else {
				b.log.Debug("Dumped to disk", "duration", time.Since(start))
			}
		}
	}
}
