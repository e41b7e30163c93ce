package store

import (
	"context"
	"errors"
	"testing"
)

func openTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(Config{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_PutGetRoundTrip(t *testing.T) {
	s := openTestBadgerStore(t)
	ctx := context.Background()

	want := Entry{Timestamp: 1234.5, Data: []byte("payload"), Codec: "msgpack"}
	if err := s.Put(ctx, "base:abc", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "base:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Timestamp != want.Timestamp || string(got.Data) != string(want.Data) || got.Codec != want.Codec {
		t.Errorf("Get round trip mismatch: want %+v, got %+v", want, got)
	}
}

func TestBadgerStore_Get_Miss(t *testing.T) {
	s := openTestBadgerStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBadgerStore_MTime(t *testing.T) {
	s := openTestBadgerStore(t)
	ctx := context.Background()

	if _, err := s.MTime(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := s.Put(ctx, "k", Entry{Timestamp: 99, Data: []byte("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ts, err := s.MTime(ctx, "k")
	if err != nil {
		t.Fatalf("MTime: %v", err)
	}
	if ts != 99 {
		t.Errorf("MTime: want 99, got %v", ts)
	}
}

func TestBadgerStore_Put_LastWriterWins(t *testing.T) {
	s := openTestBadgerStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", Entry{Timestamp: 1, Data: []byte("old")}); err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	if err := s.Put(ctx, "k", Entry{Timestamp: 2, Data: []byte("new")}); err != nil {
		t.Fatalf("Put 2: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Data) != "new" || got.Timestamp != 2 {
		t.Errorf("expected last write to win, got %+v", got)
	}
}
