package session

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session not found")

// Store persists snapshots between process restarts. Load returns ErrNotFound
// for unknown owners.
type Store interface {
	Load(ctx context.Context, owner string) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context, owner string) error
}
