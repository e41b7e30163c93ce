package quiche

import (
	"context"
	"testing"
)

func TestNewDefault_InMemory_RoundTrip(t *testing.T) {
	e, err := NewDefault(Config{InMemoryStore: true})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}

	if err := e.Task(nil, nil, "answer", nil, func(inputs []any, params map[string]any) (any, error) {
		return 42, nil
	}); err != nil {
		t.Fatalf("Task: %v", err)
	}

	_, v, err := e.Create(context.Background(), "answer", nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestNewDefault_RequiresStorePathOrInMemory(t *testing.T) {
	_, err := NewDefault(Config{})
	if err == nil {
		t.Fatal("expected a validation error when neither StorePath nor InMemoryStore is set")
	}
}

func TestNewDefault_BlobCodecRequiresReconstructor(t *testing.T) {
	_, err := NewDefault(Config{InMemoryStore: true, EnableBlobCodec: true})
	if err == nil {
		t.Fatal("expected a validation error when EnableBlobCodec is set without a reconstructor")
	}
}

func TestDefaultEngine_SugarFunctions(t *testing.T) {
	e, err := NewDefault(Config{InMemoryStore: true})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	SetDefault(e)

	if err := Task(nil, nil, "sugar:answer", nil, func(inputs []any, params map[string]any) (any, error) {
		return "sweet", nil
	}); err != nil {
		t.Fatalf("Task: %v", err)
	}

	_, v, err := Create(context.Background(), "sugar:answer", nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v != "sweet" {
		t.Fatalf("expected 'sweet', got %v", v)
	}

	got, err := Default()
	if err != nil || got != e {
		t.Fatalf("expected Default() to return the installed engine, got %v, err=%v", got, err)
	}
}

func TestAddObject_ViaSugar(t *testing.T) {
	e, err := NewDefault(Config{InMemoryStore: true})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	SetDefault(e)

	if err := AddObject(context.Background(), "sugar:constant", 7, nil); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	_, v, err := Create(context.Background(), "sugar:constant", nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestAddGather_ViaSugar(t *testing.T) {
	e, err := NewDefault(Config{InMemoryStore: true})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	SetDefault(e)

	if err := AddObject(context.Background(), "sugar:a", 1, nil); err != nil {
		t.Fatalf("AddObject a: %v", err)
	}
	if err := AddObject(context.Background(), "sugar:b", 2, nil); err != nil {
		t.Fatalf("AddObject b: %v", err)
	}
	if err := AddGather([]string{"sugar:a", "sugar:b"}, "sugar:both", nil); err != nil {
		t.Fatalf("AddGather: %v", err)
	}

	_, v, err := Create(context.Background(), "sugar:both", nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	vals, ok := v.([]any)
	if !ok || len(vals) != 2 {
		t.Fatalf("expected a 2-element slice, got %v (%T)", v, v)
	}
}
