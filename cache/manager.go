// Package cache implements the Cache Manager (spec §4.3): a two-tier
// cache combining an in-memory table with the Persistent Map, applying
// per-entry ephemeral/volatile flags.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/solsword/quiche/codec"
	"github.com/solsword/quiche/store"
)

// Flag is a recognized per-target caching modifier (spec §3, §6).
type Flag string

const (
	// Ephemeral targets are never written to the persistent map.
	Ephemeral Flag = "ephemeral"
	// Volatile targets are never retained in memory; a write removes any
	// existing in-memory entry for the same key.
	Volatile Flag = "volatile"
)

// ErrInvalidFlags is raised when ephemeral and volatile are combined
// (spec §3, §9: "nothing would be cached," rejected rather than silently
// accepted).
var ErrInvalidFlags = errors.New("cache: ephemeral and volatile flags are mutually exclusive")

// ErrCacheError wraps persistent-store I/O or codec failures encountered
// during a required write (spec §7 CacheError). Reads never return this;
// read failures degrade to a miss.
var ErrCacheError = errors.New("cache: store or codec failure")

// ErrNotAvailable is returned by Load when no value is cached for a key,
// whether because it was never written, because of a read-side I/O/decode
// failure (downgraded per spec §4.2/§7), or because the key simply isn't
// present.
var ErrNotAvailable = errors.New("cache: value not available")

// nower supplies the timestamps Store records, in seconds since the epoch.
var nower = func() float64 { return float64(time.Now().UnixNano()) / 1e9 }

// Manager combines an in-memory table M with a persistent Store D (spec
// §4.3). Timestamps come from the package-level nower (wall-clock time).
//
// # Thread Safety
//
// Manager itself adds no additional locking beyond what the in-memory
// table and Store already provide; the engine that owns a Manager runs
// single-threaded per spec §5, so this is sufficient.
type Manager struct {
	memory  *gocache.Cache
	disk    store.Store
	codecs  *codec.Registry
	logger  *slog.Logger
	metrics *managerMetrics
}

// New creates a Manager over the given persistent Store and codec
// Registry. logger may be nil (defaults to slog.Default()).
func New(disk store.Store, codecs *codec.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		memory:  gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		disk:    disk,
		codecs:  codecs,
		logger:  logger,
		metrics: newManagerMetrics(),
	}
}

// memEntry is what's actually stored in the go-cache in-memory tier.
type memEntry struct {
	ts    float64
	value any
}

// validateFlags rejects the ephemeral+volatile combination (spec §9).
func validateFlags(flags []Flag) error {
	hasEphemeral, hasVolatile := false, false
	for _, f := range flags {
		switch f {
		case Ephemeral:
			hasEphemeral = true
		case Volatile:
			hasVolatile = true
		}
	}
	if hasEphemeral && hasVolatile {
		return ErrInvalidFlags
	}
	return nil
}

func hasFlag(flags []Flag, want Flag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

// Store caches value under key, applying flags, and returns the timestamp
// it was stored at (spec §4.3 store operation).
//
//  1. ts := now()
//  2. if "ephemeral" not in flags: write through to the persistent store.
//  3. if "volatile" in flags: remove from memory; else write to memory.
func (m *Manager) Store(ctx context.Context, key string, value any, flags []Flag) (float64, error) {
	if err := validateFlags(flags); err != nil {
		return 0, err
	}

	ts := nower()

	if !hasFlag(flags, Ephemeral) {
		codecName, data, err := m.codecs.Encode(value)
		if err != nil {
			m.metrics.storeErrors.Inc()
			return 0, fmt.Errorf("%w: encode: %v", ErrCacheError, err)
		}
		err = m.disk.Put(ctx, key, store.Entry{Timestamp: ts, Data: data, Codec: codecName})
		if err != nil {
			m.metrics.storeErrors.Inc()
			return 0, fmt.Errorf("%w: %v", ErrCacheError, err)
		}
	}

	if hasFlag(flags, Volatile) {
		m.memory.Delete(key)
	} else {
		m.memory.Set(key, memEntry{ts: ts, value: value}, gocache.NoExpiration)
	}

	m.metrics.stores.Inc()
	m.logger.Debug("cache: stored", slog.String("key", key), slog.Float64("ts", ts))
	return ts, nil
}

// Load retrieves (ts, value) for key: memory first, then disk (spec §4.3
// load operation). The memory tier is write-through only — a disk hit
// never populates memory — so that volatile targets stay producible,
// consumable once, and droppable deterministically.
func (m *Manager) Load(ctx context.Context, key string) (float64, any, error) {
	if raw, found := m.memory.Get(key); found {
		me := raw.(memEntry)
		m.metrics.hits.WithLabelValues("memory").Inc()
		m.logger.Debug("cache: memory hit", slog.String("key", key))
		return me.ts, me.value, nil
	}

	entry, err := m.disk.Get(ctx, key)
	if err != nil {
		// Any error (missing, I/O) degrades to NotAvailable per spec §4.2/§7.
		m.metrics.misses.Inc()
		if errors.Is(err, store.ErrNotFound) {
			m.logger.Debug("cache: miss", slog.String("key", key))
		} else {
			m.logger.Warn("cache: store read failure treated as miss", slog.String("key", key), slog.Any("error", err))
		}
		return 0, nil, ErrNotAvailable
	}

	value, err := m.codecs.Decode(entry.Codec, entry.Data)
	if err != nil {
		m.metrics.misses.Inc()
		m.logger.Warn("cache: decode failure treated as miss", slog.String("key", key), slog.Any("error", err))
		return 0, nil, ErrNotAvailable
	}

	m.metrics.hits.WithLabelValues("disk").Inc()
	m.logger.Debug("cache: disk hit", slog.String("key", key))
	return entry.Timestamp, value, nil
}

// MTime returns the timestamp for key (memory first, then disk), or
// (0, false) if absent in both tiers.
func (m *Manager) MTime(ctx context.Context, key string) (float64, bool) {
	if raw, found := m.memory.Get(key); found {
		return raw.(memEntry).ts, true
	}
	ts, err := m.disk.MTime(ctx, key)
	if err != nil {
		return 0, false
	}
	return ts, true
}
