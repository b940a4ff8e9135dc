// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gridironlab/playbook/internal/database"
	gormstorage "github.com/gridironlab/playbook/internal/storage/gorm"
	"github.com/gridironlab/playbook/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the postgres storage backend.
type Dependencies struct {
	DB       *gorm.DB // optional; connects from the db.* config keys when nil
	Logger   *slog.Logger
	DBLogger zerolog.Logger
}

// Backend implements storage.Backend using GORM/PostgreSQL.
type Backend struct {
	deps    Dependencies
	manager *database.Manager
	gorm    *gormstorage.Backend
}

// New creates a new postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init connects to the database when none was injected and migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		m := database.NewManager(b.deps.DBLogger)
		if err := m.ConnectPostgres(); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.manager = m
		b.deps.DB = m.DB
	}

	b.gorm = gormstorage.New(gormstorage.Dependencies{DB: b.deps.DB, Logger: b.deps.Logger})
	if err := b.gorm.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.Logger.Info("Database setup complete")
	return nil
}

// Close closes the connection if this backend opened it.
func (b *Backend) Close() error {
	if b.manager != nil {
		return b.manager.Close()
	}
	return nil
}

func (b *Backend) backend() (*gormstorage.Backend, error) {
	if b.gorm == nil {
		return nil, fmt.Errorf("postgres backend not initialized")
	}
	return b.gorm, nil
}

// GetPlay loads a play.
func (b *Backend) GetPlay(ctx context.Context, id string) (*core.Play, error) {
	g, err := b.backend()
	if err != nil {
		return nil, err
	}
	return g.GetPlay(ctx, id)
}

// SavePlay inserts or replaces a play.
func (b *Backend) SavePlay(ctx context.Context, play *core.Play) error {
	g, err := b.backend()
	if err != nil {
		return err
	}
	return g.SavePlay(ctx, play)
}

// ListPlays returns the plays of a playbook in order.
func (b *Backend) ListPlays(ctx context.Context, playbookID string) ([]core.Play, error) {
	g, err := b.backend()
	if err != nil {
		return nil, err
	}
	return g.ListPlays(ctx, playbookID)
}

// DeletePlay removes a play.
func (b *Backend) DeletePlay(ctx context.Context, id string) error {
	g, err := b.backend()
	if err != nil {
		return err
	}
	return g.DeletePlay(ctx, id)
}
