package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/solsword/quiche/codec"
	"github.com/solsword/quiche/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	registry := codec.NewRegistry()
	registry.Register(codec.NewMsgpackCodec())
	return New(store.NewMemoryStore(), registry, nil)
}

func TestManager_StoreLoad_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ts, err := m.Store(ctx, "base:x", 42, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if ts <= 0 {
		t.Fatalf("expected positive timestamp, got %v", ts)
	}

	gotTs, value, err := m.Load(ctx, "base:x")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotTs != ts {
		t.Errorf("timestamp mismatch: want %v, got %v", ts, gotTs)
	}
	if asInt(t, value) != 42 {
		t.Errorf("value mismatch: want 42, got %v", value)
	}
}

func TestManager_Load_NotAvailable(t *testing.T) {
	m := newTestManager(t)
	_, _, err := m.Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}

func TestManager_Ephemeral_NeverPersisted(t *testing.T) {
	registry := codec.NewRegistry()
	registry.Register(codec.NewMsgpackCodec())
	disk := store.NewMemoryStore()
	m := New(disk, registry, nil)
	ctx := context.Background()

	if _, err := m.Store(ctx, "eph:x", "v", []Flag{Ephemeral}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, err := disk.Get(ctx, "eph:x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("ephemeral entry leaked to disk: err=%v", err)
	}

	// But it is still loadable (from memory).
	_, v, err := m.Load(ctx, "eph:x")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v != "v" {
		t.Errorf("expected in-memory value 'v', got %v", v)
	}
}

func TestManager_Volatile_NeverRetainedInMemory(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Store(ctx, "vol:x", "v", []Flag{Volatile}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, found := m.memory.Get("vol:x"); found {
		t.Fatalf("volatile entry should not be retained in memory")
	}

	// But it is still loadable (from disk).
	_, v, err := m.Load(ctx, "vol:x")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asString(t, v) != "v" {
		t.Errorf("expected disk value 'v', got %v", v)
	}
}

func TestManager_InvalidFlags_Rejected(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Store(context.Background(), "x", 1, []Flag{Ephemeral, Volatile})
	if !errors.Is(err, ErrInvalidFlags) {
		t.Fatalf("expected ErrInvalidFlags, got %v", err)
	}
}

func TestManager_MTime(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, found := m.MTime(ctx, "missing"); found {
		t.Fatalf("expected not found for missing key")
	}

	ts, err := m.Store(ctx, "k", 1, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, found := m.MTime(ctx, "k")
	if !found || got != ts {
		t.Errorf("MTime: want (%v, true), got (%v, %v)", ts, got, found)
	}
}

func asInt(t *testing.T, v any) int64 {
	t.Helper()
	switch x := v.(type) {
	case int64:
		return x
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	default:
		t.Fatalf("expected integer-ish value, got %T (%v)", v, v)
		return 0
	}
}

func asString(t *testing.T, v any) string {
	t.Helper()
	s, ok := v.(string)
	if !ok {
		t.Fatalf("expected string, got %T (%v)", v, v)
	}
	return s
}
