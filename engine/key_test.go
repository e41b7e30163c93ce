package engine

import "testing"

func TestEngine_MixTarget_AbsentParamsSerializeAsNull(t *testing.T) {
	e := newTestEngine(t)

	withAbsent, err := e.mixTarget("t", []string{"a", "b"}, map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("mixTarget: %v", err)
	}
	withExplicitNil, err := e.mixTarget("t", []string{"a", "b"}, map[string]any{"a": 1, "b": nil})
	if err != nil {
		t.Fatalf("mixTarget: %v", err)
	}
	if withAbsent != withExplicitNil {
		t.Fatalf("expected an absent param to key identically to an explicit nil, got %q vs %q", withAbsent, withExplicitNil)
	}
}

func TestEngine_MixTarget_DistinctBindingsDiffer(t *testing.T) {
	e := newTestEngine(t)

	a, err := e.mixTarget("t", []string{"name"}, map[string]any{"name": "alice"})
	if err != nil {
		t.Fatalf("mixTarget: %v", err)
	}
	b, err := e.mixTarget("t", []string{"name"}, map[string]any{"name": "bob"})
	if err != nil {
		t.Fatalf("mixTarget: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct keys for distinct bindings, both produced %q", a)
	}
}

func TestEngine_MixTarget_StableForSameRelevantOrder(t *testing.T) {
	// mixTarget itself trusts its relevant argument's order (Relevant is the
	// one responsible for sorting it, spec §4.5); given the same order twice
	// it must produce the same key both times regardless of Go's randomized
	// map iteration order when reading params.
	e := newTestEngine(t)

	a, err := e.mixTarget("t", []string{"x", "y"}, map[string]any{"x": 1, "y": 2})
	if err != nil {
		t.Fatalf("mixTarget: %v", err)
	}
	b, err := e.mixTarget("t", []string{"x", "y"}, map[string]any{"y": 2, "x": 1})
	if err != nil {
		t.Fatalf("mixTarget: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical keys for the same relevant order, got %q vs %q", a, b)
	}
}
