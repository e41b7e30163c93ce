// Package codec translates user values to and from byte sequences for
// storage in the persistent map and reports which codec should handle a
// given value.
//
// # Description
//
// A Registry holds an ordered list of Codecs. Encode picks the first
// registered codec whose Accepts predicate claims the value; the first
// codec registered is conventionally the "default" and should decline
// any value a later, more specific codec is meant to own (see
// MsgpackCodec.Accepts), mirroring cache.py's save_any, which tries the
// model path first and only falls back to the generic object codec.
// Decode tries the default codec first and falls back to the remaining
// codecs in registration order on failure, mirroring cache.py's load_any
// (try load_object, fall back to load_model). Codec selection uses each
// codec's Accepts predicate rather than runtime type inspection of an
// imported module, per the reimplementation note in spec Design Notes.
package codec

import (
	"errors"
	"fmt"
)

// ErrNoCodec is returned when no registered codec accepts a value for
// encoding, or when every codec fails to decode a byte sequence.
var ErrNoCodec = errors.New("codec: no registered codec accepts this value")

// Codec translates a single kind of value to and from bytes.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; the engine itself is
// single-threaded (spec §5), but a Registry may be shared across
// independently-constructed Engines in the same process.
type Codec interface {
	// Name identifies the codec in error messages and logs.
	Name() string
	// Accepts reports whether this codec should be used to encode value.
	Accepts(value any) bool
	// Encode serializes value to bytes.
	Encode(value any) ([]byte, error)
	// Decode deserializes bytes into a value. Implementations should return
	// an error (not panic) on malformed input so Registry.Decode can try
	// the next alternate.
	Decode(data []byte) (any, error)
}

// Registry is an ordered list of Codecs. The first codec registered is the
// default and is always tried first on decode.
type Registry struct {
	codecs []Codec
}

// NewRegistry creates an empty Registry. Register at least one codec
// (typically the default msgpack codec) before calling Encode or Decode.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a codec to the registry. Registration order matters:
// Encode picks the first codec whose Accepts returns true; Decode tries
// codecs in this same order.
func (r *Registry) Register(c Codec) {
	r.codecs = append(r.codecs, c)
}

// Encode finds the first registered codec that accepts value and uses it to
// produce bytes, returning the codec's name alongside so callers (the cache
// manager) can route the encoded bytes to the right storage convention
// (e.g. the "obj:"/"model:" key prefixes in spec §6).
func (r *Registry) Encode(value any) (codecName string, data []byte, err error) {
	for _, c := range r.codecs {
		if c.Accepts(value) {
			data, err = c.Encode(value)
			if err != nil {
				return "", nil, fmt.Errorf("codec %s: encode: %w", c.Name(), err)
			}
			return c.Name(), data, nil
		}
	}
	return "", nil, ErrNoCodec
}

// Decode tries the default codec first, then alternates in registration
// order, returning the first successful decode. If codecName is non-empty
// (the caller knows which codec produced the bytes, e.g. from a key
// prefix), that codec is tried first instead.
func (r *Registry) Decode(codecName string, data []byte) (any, error) {
	if codecName != "" {
		for _, c := range r.codecs {
			if c.Name() == codecName {
				if v, err := c.Decode(data); err == nil {
					return v, nil
				}
				break
			}
		}
	}
	var lastErr error
	for _, c := range r.codecs {
		v, err := c.Decode(data)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: all codecs failed, last error: %v", ErrNoCodec, lastErr)
	}
	return nil, ErrNoCodec
}
