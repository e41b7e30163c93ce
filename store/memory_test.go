package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_PutGetMTime(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "k", Entry{Timestamp: 10, Data: []byte("v")}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Timestamp != 10 || string(got.Data) != "v" {
		t.Errorf("unexpected entry: %+v", got)
	}

	ts, err := s.MTime(ctx, "k")
	if err != nil || ts != 10 {
		t.Errorf("MTime: got (%v, %v), want (10, nil)", ts, err)
	}
}
