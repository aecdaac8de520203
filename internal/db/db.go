package db

import (
	"context"
	"time"
)

// Store is the key-value store behind the embedding cache. Closing it is the caller's job.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity; the health check reports it as the "cache" component.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore reads and writes expiring byte values.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
