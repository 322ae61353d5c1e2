package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is the contract shared by all cache backends. Implementations must
// be safe for concurrent use and must drop entries whose Err is non-nil.
type Store interface {
	// Get retrieves an entry by key. Returns ErrCacheMiss if the key does
	// not exist or the entry has expired.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Set stores an entry under key. Entries carrying an error are
	// silently discarded.
	Set(ctx context.Context, key Key, entry *Entry) error

	// Delete removes an entry.
	Delete(ctx context.Context, key Key) error

	// Len returns the number of live entries, where the backend can know it.
	Len(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}
