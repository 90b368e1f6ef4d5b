// Package store provides the key/int stores that keep per-user scores.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// IntStore maps string keys to integers. GetInt stores the default when the
// key is missing, so a later read returns the same value.
type IntStore interface {
	GetInt(ctx context.Context, key string, def int64) (int64, error)
	PutInt(ctx context.Context, key string, value int64) error
	// IncrementInt adds delta to the stored value, treating a missing key as
	// zero, and returns the new value.
	IncrementInt(ctx context.Context, key string, delta int64) (int64, error)
	DecrementInt(ctx context.Context, key string, delta int64) (int64, error)
	Close() error
}

const (
	TypeMemory = "memory"
	TypeSQLite = "sqlite"
	TypeRedis  = "redis"
)

// Options selects and configures a store implementation.
type Options struct {
	Type string

	// Path is the SQLite database file.
	Path string

	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every Redis key.
	Prefix string
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (IntStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Type {
	case "", TypeMemory:
		return NewMemoryStore(), nil
	case TypeSQLite:
		return OpenSQLite(ctx, opts.Path, logger)
	case TypeRedis:
		return OpenRedis(ctx, opts, logger)
	default:
		return nil, fmt.Errorf("unknown store type %q", opts.Type)
	}
}
