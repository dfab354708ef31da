package ports

import (
	"context"

	"github.com/aretw0/statenode/pkg/domain"
)

// StateStore defines the interface for persisting machine state across restarts.
//
// Implementations should return quickly: the node calls Save synchronously after
// every emitted event and applies no timeout or retry of its own.
type StateStore interface {
	// Save persists the snapshot under key, replacing any previous one.
	Save(ctx context.Context, key string, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot saved under key.
	// Returns domain.ErrStateNotFound if nothing was saved.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)

	// Delete removes the snapshot saved under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys that currently hold a snapshot.
	List(ctx context.Context) ([]string, error)
}
