// Package memory implements storage.Backend with in-process maps and JSON
// playbook files.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/storage"
	"github.com/gridironlab/playbook/pkg/core"
)

// Backend stores plays in memory and exports playbooks to JSON
type Backend struct {
	cfg config.MemoryConfig

	plays map[string]core.Play // keyed by play ID
	order map[string][]string  // play IDs per playbook ID, in playbook order

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		plays: make(map[string]core.Play),
		order: make(map[string][]string),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// GetPlay returns a copy of the stored play
func (b *Backend) GetPlay(_ context.Context, id string) (*core.Play, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.plays[id]
	if !ok {
		return nil, fmt.Errorf("play %q: %w", id, storage.ErrNotFound)
	}
	out := p.Clone()
	return &out, nil
}

// SavePlay inserts or replaces a play. New plays are appended to their
// playbook; replaced plays keep their position.
func (b *Backend) SavePlay(_ context.Context, play *core.Play) error {
	if err := storage.Validate(play); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.plays[play.ID]; ok && old.PlaybookID != play.PlaybookID {
		b.removeFromOrder(old.PlaybookID, old.ID)
	}
	if !contains(b.order[play.PlaybookID], play.ID) {
		b.order[play.PlaybookID] = append(b.order[play.PlaybookID], play.ID)
	}
	b.plays[play.ID] = play.Clone()
	return nil
}

// ListPlays returns copies of the plays of a playbook in playbook order
func (b *Backend) ListPlays(_ context.Context, playbookID string) ([]core.Play, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var ids []string
	if playbookID != "" {
		ids = b.order[playbookID]
	} else {
		books := make([]string, 0, len(b.order))
		for book := range b.order {
			books = append(books, book)
		}
		sort.Strings(books)
		for _, book := range books {
			ids = append(ids, b.order[book]...)
		}
	}

	out := make([]core.Play, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.plays[id].Clone())
	}
	return out, nil
}

// DeletePlay removes a play
func (b *Backend) DeletePlay(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.plays[id]
	if !ok {
		return fmt.Errorf("play %q: %w", id, storage.ErrNotFound)
	}
	delete(b.plays, id)
	b.removeFromOrder(p.PlaybookID, id)
	return nil
}

// Len returns the number of stored plays
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.plays)
}

func (b *Backend) removeFromOrder(playbookID, id string) {
	ids := b.order[playbookID]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(b.order, playbookID)
		return
	}
	b.order[playbookID] = ids
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
