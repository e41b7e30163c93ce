// Package store implements the Persistent Map (spec §4.2): a durable
// mapping from full target key to (timestamp, bytes). The disk format
// itself is an opaque collaborator per spec §1 ("the disk key/value store
// implementation"); this package wires a real one (BadgerDB, grounded on
// the teacher's own router_cache.go) behind the Store interface so the
// Cache Manager never talks to badger directly.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get and MTime when a key is absent. Per spec
// §4.2's failure semantics, callers (the Cache Manager) must treat this as
// "not cached," not as a hard error.
var ErrNotFound = errors.New("store: key not found")

// Entry is the on-disk representation of a cached value: a timestamp
// (seconds since epoch, spec §6) plus the codec-encoded bytes.
type Entry struct {
	Timestamp float64
	Data      []byte
	// Codec records which codec produced Data, so a multi-codec Registry
	// (codec.Registry) can decode without guessing. Empty means "default."
	Codec string
}

// Store is the Persistent Map's required operation set (spec §4.2): put,
// get, and check-existence-and-time, open/closed as a scoped resource.
//
// # Thread Safety
//
// Implementations must support concurrent access by a single process;
// cross-process concurrent access is explicitly not required (spec §4.2).
type Store interface {
	// Put writes (ts, data) under key, atomically for that single key; last
	// writer wins.
	Put(ctx context.Context, key string, entry Entry) error
	// Get retrieves the entry stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)
	// MTime retrieves just the timestamp for key, or ErrNotFound. Separated
	// from Get so implementations can answer freshness checks (the hot
	// path in check_up_to_date) without paying to deserialize a value that
	// might not even be stale.
	MTime(ctx context.Context, key string) (float64, error)
	// Close releases any resources (file handles, connections) held by the
	// store. Safe to call once the store is no longer needed.
	Close() error
}

// wrapIOErr wraps a low-level store error with the operation and key.
// BadgerStore uses it on both its write path (Put) and its read paths
// (Get, MTime) for errors other than a plain miss; it is the Cache
// Manager, not the store, that downgrades read errors to a cache miss.
func wrapIOErr(op, key string, err error) error {
	return fmt.Errorf("store: %s %q: %w", op, key, err)
}
