// Package storage holds the durable key-value backends the store persists
// its slots to.
package storage

import (
	"context"
	"errors"
)

// KV is a string keyed slot store. A write to one key is atomic; concurrent
// writers to the same key resolve as last writer wins.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by backends that hold connections.
type Closer interface {
	Close() error
}

var ErrEmptyKey = errors.New("storage: empty key")

// Ping checks kv when it supports liveness checks and reports nil otherwise.
func Ping(ctx context.Context, kv KV) error {
	if p, ok := kv.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases kv when it holds resources.
func Close(kv KV) error {
	if c, ok := kv.(Closer); ok {
		return c.Close()
	}
	return nil
}
