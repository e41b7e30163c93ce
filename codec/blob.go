package codec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobValue is implemented by values that must be stored as an external
// blob rather than inline (spec §6's "model:" storage convention — the
// reimplementation's domain-agnostic stand-in for cache.py's
// save_model/load_model, since ML model libraries themselves are out of
// scope per spec §1).
type BlobValue interface {
	// Bytes returns the value's external representation.
	Bytes() []byte
}

// BlobReconstructor rebuilds a BlobValue from bytes previously produced by
// Bytes(). Registered alongside the BlobCodec so Decode knows how to turn
// raw bytes back into a domain value.
type BlobReconstructor func(data []byte) (any, error)

// BlobCodec is the secondary codec for opaque objects (spec §4.1, §6). It
// round-trips a BlobValue through a temporary file, the way cache.py's
// save_model/load_model write a model to a temp directory and read the
// bytes back before handing them to the persistent store — the same
// external-file convention, generalized away from any specific model
// format.
type BlobCodec struct {
	tmpDir      string
	reconstruct BlobReconstructor
}

// NewBlobCodec creates a BlobCodec. tmpDir is the directory used for the
// write-then-read-back round trip; an empty string uses os.TempDir().
// reconstruct turns decoded bytes back into a value; it may be nil if this
// codec is only ever used for Encode (e.g. a write-only cache warmer).
func NewBlobCodec(tmpDir string, reconstruct BlobReconstructor) *BlobCodec {
	return &BlobCodec{tmpDir: tmpDir, reconstruct: reconstruct}
}

func (c *BlobCodec) Name() string { return "blob" }

func (c *BlobCodec) Accepts(value any) bool {
	_, ok := value.(BlobValue)
	return ok
}

func (c *BlobCodec) Encode(value any) ([]byte, error) {
	bv, ok := value.(BlobValue)
	if !ok {
		return nil, fmt.Errorf("blob codec: value does not implement BlobValue")
	}

	dir := c.tmpDir
	if dir == "" {
		dir = os.TempDir()
	}
	fn := filepath.Join(dir, "quiche-blob-"+uuid.NewString())
	if err := os.WriteFile(fn, bv.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("blob codec: write temp file: %w", err)
	}
	defer os.Remove(fn)

	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, fmt.Errorf("blob codec: read back temp file: %w", err)
	}
	return data, nil
}

func (c *BlobCodec) Decode(data []byte) (any, error) {
	if c.reconstruct == nil {
		return nil, fmt.Errorf("blob codec: no reconstructor registered")
	}
	v, err := c.reconstruct(data)
	if err != nil {
		return nil, fmt.Errorf("blob codec: reconstruct: %w", err)
	}
	return v, nil
}
