package repository

import (
	"context"
	"time"
)

// Cache is the shared key/value cache sitting in front of the relational
// store. Entries are never authoritative: every reader must fall through
// to the store on ErrCacheMiss or any decode failure, and writers treat
// cache errors as log-and-continue.
type Cache interface {
	// Get returns the raw bytes stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete drops the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
