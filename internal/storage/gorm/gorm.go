// Package gormstorage implements the storage.Backend interface over any gorm
// dialect. The sqlite and postgres backends wrap it.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gridironlab/playbook/internal/database"
	"github.com/gridironlab/playbook/internal/model"
	"github.com/gridironlab/playbook/internal/model/convert"
	"github.com/gridironlab/playbook/internal/storage"
	"github.com/gridironlab/playbook/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database configured")
	}
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}
	b.dbReady = true
	return nil
}

// Close is a no-op; the owner of the connection closes it.
func (b *Backend) Close() error {
	return nil
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

func (b *Backend) ready() error {
	if !b.dbReady {
		return fmt.Errorf("backend not initialized")
	}
	return nil
}

// preloadOrdered loads players and drawings in their stored order.
func preloadOrdered(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Players", func(tx *gorm.DB) *gorm.DB { return tx.Order("ordinal") }).
		Preload("Drawings", func(tx *gorm.DB) *gorm.DB { return tx.Order("ordinal") })
}

// GetPlay loads a play with its players and drawings.
func (b *Backend) GetPlay(ctx context.Context, id string) (*core.Play, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	var m model.Play
	err := preloadOrdered(b.deps.DB.WithContext(ctx)).First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("play %q: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load play %q: %w", id, err)
	}

	p, err := convert.PlayToCore(m)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePlay inserts or replaces a play in one transaction. The playbook is
// created on first use, and new plays are appended to it.
func (b *Backend) SavePlay(ctx context.Context, play *core.Play) error {
	if err := storage.Validate(play); err != nil {
		return err
	}
	if err := b.ready(); err != nil {
		return err
	}

	return b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if play.PlaybookID != "" {
			book := model.Playbook{ID: play.PlaybookID, Name: play.PlaybookID}
			created, err := book.GetOrInsert(tx)
			if err != nil {
				return fmt.Errorf("failed to get or insert playbook: %w", err)
			}
			if created {
				b.deps.Logger.Debug("Created playbook", "playbook", play.PlaybookID)
			}
		}

		var existing model.Play
		err := tx.Select("id", "position", "playbook_id").First(&existing, "id = ?", play.ID).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up play: %w", err)
		}

		position := existing.Position
		if !exists || !samePlaybook(existing.PlaybookID, play.PlaybookID) {
			position, err = nextPosition(tx, play.PlaybookID)
			if err != nil {
				return err
			}
		}

		m, err := convert.CoreToPlay(*play, position)
		if err != nil {
			return err
		}

		if exists {
			if err := deleteChildren(tx, play.ID); err != nil {
				return err
			}
			if err := tx.Model(&model.Play{ID: play.ID}).Updates(map[string]any{
				"name":        m.Name,
				"playbook_id": m.PlaybookID,
				"position":    m.Position,
			}).Error; err != nil {
				return fmt.Errorf("failed to update play: %w", err)
			}
		} else if err := tx.Omit(clause.Associations).Create(&m).Error; err != nil {
			return fmt.Errorf("failed to insert play: %w", err)
		}

		if len(m.Players) > 0 {
			if err := tx.Create(&m.Players).Error; err != nil {
				return fmt.Errorf("failed to insert players: %w", err)
			}
		}
		if len(m.Drawings) > 0 {
			if err := tx.Create(&m.Drawings).Error; err != nil {
				return fmt.Errorf("failed to insert drawings: %w", err)
			}
		}
		return nil
	})
}

// ListPlays returns the plays of a playbook ordered by position.
func (b *Backend) ListPlays(ctx context.Context, playbookID string) ([]core.Play, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	q := preloadOrdered(b.deps.DB.WithContext(ctx))
	if playbookID != "" {
		q = q.Where("playbook_id = ?", playbookID)
	} else {
		q = q.Order("playbook_id")
	}

	var rows []model.Play
	if err := q.Order("position").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list plays: %w", err)
	}

	out := make([]core.Play, 0, len(rows))
	for _, row := range rows {
		p, err := convert.PlayToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// DeletePlay removes a play with its players and drawings.
func (b *Backend) DeletePlay(ctx context.Context, id string) error {
	if err := b.ready(); err != nil {
		return err
	}

	return b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Delete(&model.Play{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete play: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("play %q: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

func deleteChildren(tx *gorm.DB, playID string) error {
	if err := tx.Delete(&model.PlayPlayer{}, "play_id = ?", playID).Error; err != nil {
		return fmt.Errorf("failed to delete players: %w", err)
	}
	if err := tx.Delete(&model.PlayDrawing{}, "play_id = ?", playID).Error; err != nil {
		return fmt.Errorf("failed to delete drawings: %w", err)
	}
	return nil
}

func nextPosition(tx *gorm.DB, playbookID string) (int, error) {
	var count int64
	q := tx.Model(&model.Play{})
	if playbookID == "" {
		q = q.Where("playbook_id IS NULL")
	} else {
		q = q.Where("playbook_id = ?", playbookID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return int(count), nil
}

func samePlaybook(stored *string, playbookID string) bool {
	if stored == nil {
		return playbookID == ""
	}
	return *stored == playbookID
}
