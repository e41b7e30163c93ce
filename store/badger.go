package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// storeKeyPrefix versions the key layout so a future format change can't
// collide with entries written by an older build of this package.
const storeKeyPrefix = "quiche/v1/"

// errBadgerMiss is an internal sentinel distinguishing "key not found" (a
// normal miss) from a genuine storage error inside a badger transaction,
// mirroring the teacher's errCacheMiss in router_cache.go.
var errBadgerMiss = errors.New("store: badger miss")

// BadgerStore implements Store on top of an embedded BadgerDB instance.
//
// # Description
//
// Entries are gob-encoded (timestamp, codec name, data) and written under
// a versioned key prefix. BadgerDB's own ErrKeyNotFound is translated to
// this package's ErrNotFound so callers never import badger directly.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions are per-goroutine.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// Config configures where and how the BadgerDB instance backing a
// BadgerStore is opened.
type Config struct {
	// Path is the directory BadgerDB persists to. Empty means in-memory
	// only (useful for tests), matching badger.DefaultOptions("").WithInMemory(true).
	Path string
	// InMemory forces an in-memory-only database regardless of Path.
	InMemory bool
	// Logger receives Debug-level hit/miss/write diagnostics. Nil uses
	// slog.Default().
	Logger *slog.Logger
}

// OpenBadgerStore opens (creating if necessary) a BadgerDB-backed Store.
// The caller must call Close when done. Grounded on the teacher's
// cmd/routing_cache_dump/main.go open pattern (DefaultOptions + WithLogger
// to silence badger's own internal logging, since this package logs
// through slog instead).
func OpenBadgerStore(cfg Config) (*BadgerStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory || cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %q: %w", cfg.Path, err)
	}

	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close badger: %w", err)
	}
	return nil
}

type gobEntry struct {
	Timestamp float64
	Codec     string
	Data      []byte
}

func (s *BadgerStore) Put(ctx context.Context, key string, entry Entry) error {
	raw, err := gobEncodeEntry(gobEntry{Timestamp: entry.Timestamp, Codec: entry.Codec, Data: entry.Data})
	if err != nil {
		return wrapIOErr("encode", key, err)
	}

	bk := badgerKey(key)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bk, raw)
	})
	if err != nil {
		return wrapIOErr("put", key, err)
	}

	s.logger.Debug("store: put", slog.String("key", key), slog.Int("bytes", len(entry.Data)))
	return nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) (Entry, error) {
	bk := badgerKey(key)

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bk)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errBadgerMiss
		}
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, errBadgerMiss) {
		s.logger.Debug("store: miss", slog.String("key", key))
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, wrapIOErr("get", key, err)
	}

	ge, err := gobDecodeEntry(raw)
	if err != nil {
		return Entry{}, wrapIOErr("decode", key, err)
	}

	s.logger.Debug("store: hit", slog.String("key", key))
	return Entry{Timestamp: ge.Timestamp, Data: ge.Data, Codec: ge.Codec}, nil
}

func (s *BadgerStore) MTime(ctx context.Context, key string) (float64, error) {
	bk := badgerKey(key)

	var ts float64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bk)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errBadgerMiss
		}
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		return item.Value(func(raw []byte) error {
			ge, err := gobDecodeEntry(raw)
			if err != nil {
				return err
			}
			ts = ge.Timestamp
			return nil
		})
	})

	if errors.Is(err, errBadgerMiss) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, wrapIOErr("mtime", key, err)
	}
	return ts, nil
}

func badgerKey(key string) []byte {
	return []byte(storeKeyPrefix + key)
}

func gobEncodeEntry(e gobEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func gobDecodeEntry(data []byte) (gobEntry, error) {
	var e gobEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return gobEntry{}, fmt.Errorf("gob decode: %w", err)
	}
	return e, nil
}
