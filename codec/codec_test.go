package codec

import (
	"reflect"
	"testing"
)

type testBlob struct {
	tag string
}

func (b testBlob) Bytes() []byte { return []byte(b.tag) }

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewMsgpackCodec())
	r.Register(NewBlobCodec("", func(data []byte) (any, error) {
		return testBlob{tag: string(data)}, nil
	}))
	return r
}

func TestRegistry_EncodeDecode_RoundTrip(t *testing.T) {
	cases := []any{
		42,
		"hello",
		3.14,
		[]any{1, 2, 3},
		map[string]any{"a": int8(1), "b": int8(2)},
	}

	r := newTestRegistry()
	for _, v := range cases {
		name, data, err := r.Encode(v)
		if err != nil {
			t.Fatalf("Encode(%v): %v", v, err)
		}
		if name != "msgpack" {
			t.Fatalf("Encode(%v): expected msgpack codec, got %q", v, name)
		}
		got, err := r.Decode(name, data)
		if err != nil {
			t.Fatalf("Decode(%v): %v", v, err)
		}
		if !reflect.DeepEqual(normalize(v), normalize(got)) {
			t.Errorf("round trip mismatch: want %#v, got %#v", v, got)
		}
	}
}

// normalize collapses the small numeric-width differences msgpack
// round trips introduce (e.g. int -> int8) so the test compares logical
// values rather than exact Go types.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}

func TestRegistry_Encode_RoutesBlobValue(t *testing.T) {
	r := newTestRegistry()
	name, data, err := r.Encode(testBlob{tag: "payload"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if name != "blob" {
		t.Fatalf("expected blob codec to claim testBlob, got %q", name)
	}
	got, err := r.Decode(name, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, ok := got.(testBlob)
	if !ok || b.tag != "payload" {
		t.Fatalf("expected round-tripped testBlob{payload}, got %#v", got)
	}
}

func TestRegistry_Decode_FallsBackThroughAlternates(t *testing.T) {
	r := newTestRegistry()
	// 0xc1 is a reserved byte that msgpack never assigns, guaranteeing the
	// default codec's decode fails and the registry falls through to the
	// blob codec.
	data := append([]byte{0xc1}, []byte("blob-payload")...)
	v, err := r.Decode("", data)
	if err != nil {
		t.Fatalf("Decode fallback: %v", err)
	}
	b, ok := v.(testBlob)
	if !ok || b.tag != string(data) {
		t.Fatalf("expected fallback to blob codec, got %#v (%T)", v, v)
	}
}

func TestRegistry_Encode_NoCodecAccepts(t *testing.T) {
	r := NewRegistry() // empty registry
	_, _, err := r.Encode(1)
	if err == nil {
		t.Fatal("expected ErrNoCodec")
	}
}
