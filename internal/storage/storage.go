// Package storage defines the play content store shared by the storage
// backends and the HTTP client.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gridironlab/playbook/pkg/core"
)

var (
	// ErrNotFound is returned when a play does not exist
	ErrNotFound = errors.New("play not found")
	// ErrUnauthorized is returned when the caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller may not read the play
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidPlay is returned when a play cannot be stored
	ErrInvalidPlay = errors.New("invalid play")
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Plays
	GetPlay(ctx context.Context, id string) (*core.Play, error)
	SavePlay(ctx context.Context, play *core.Play) error
	// ListPlays returns the plays of a playbook in playbook order. An empty
	// playbookID lists every play.
	ListPlays(ctx context.Context, playbookID string) ([]core.Play, error)
	DeletePlay(ctx context.Context, id string) error
}

// Validate checks that a play can be stored
func Validate(play *core.Play) error {
	if play == nil {
		return ErrInvalidPlay
	}
	if play.ID == "" {
		return fmt.Errorf("empty play id: %w", ErrInvalidPlay)
	}
	return nil
}

// PlaylistIDs returns the IDs of plays in order
func PlaylistIDs(plays []core.Play) []string {
	ids := make([]string, len(plays))
	for i, p := range plays {
		ids[i] = p.ID
	}
	return ids
}
