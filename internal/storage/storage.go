package storage

import (
	"context"

	"github.com/IshaanNene/ghcrawler/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists the run's records.
	Store(ctx context.Context, records []types.ResultRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Locator is implemented by backends that write to a named location.
type Locator interface {
	// Location returns where the last Store call wrote, or "".
	Location() string
}
