package engine

import (
	"errors"
	"testing"

	"github.com/solsword/quiche/registry"
)

func noopFn(inputs []any, params map[string]any) (any, error) { return nil, nil }

func TestEngine_Relevant_UnionsInputParams(t *testing.T) {
	e := newTestEngine(t)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("registration: %v", err)
		}
	}
	must(e.Task(nil, []string{"seed"}, "base", nil, noopFn))
	must(e.Task([]string{"base"}, []string{"rate"}, "scaled", nil, noopFn))
	must(e.Task([]string{"scaled"}, []string{"rate", "epochs"}, "trained", nil, noopFn))

	got, err := e.Relevant("trained")
	if err != nil {
		t.Fatalf("Relevant: %v", err)
	}
	want := []string{"epochs", "rate", "seed"}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}

func TestEngine_Relevant_CycleDetected(t *testing.T) {
	e := newTestEngine(t)
	if err := e.registry.AddTarget("a", registry.Descriptor{Inputs: []string{"b"}, Fn: noopFn}); err != nil {
		t.Fatalf("AddTarget a: %v", err)
	}
	if err := e.registry.AddTarget("b", registry.Descriptor{Inputs: []string{"a"}, Fn: noopFn}); err != nil {
		t.Fatalf("AddTarget b: %v", err)
	}

	_, err := e.Relevant("a")
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}
