package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackCodec is the default Value Codec (spec §4.1). It accepts any
// value except one claimed by a more specific codec (see Accepts) and
// serializes it with msgpack, sorting map keys so the same logical value
// always produces the same byte sequence — required for the full target
// key (spec §6) and for stable on-disk identity across sessions.
type MsgpackCodec struct{}

// NewMsgpackCodec constructs the default codec.
func NewMsgpackCodec() *MsgpackCodec {
	return &MsgpackCodec{}
}

func (c *MsgpackCodec) Name() string { return "msgpack" }

// Accepts is true for everything except values implementing BlobValue,
// which must be routed to BlobCodec's external-file convention instead
// (spec §4.1 "the codec registry selects by value shape") — mirroring
// cache.py's save_any, which tries the model path first and only falls
// back to the generic object codec when the value isn't one. Declining
// BlobValue here is what makes that dispatch work regardless of
// registration order: Registry.Encode picks the first codec whose
// Accepts is true, so a codec declared "default" can't also claim values
// a more specific codec is meant to own.
func (c *MsgpackCodec) Accepts(value any) bool {
	_, isBlob := value.(BlobValue)
	return !isBlob
}

func (c *MsgpackCodec) Encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(value); err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *MsgpackCodec) Decode(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("msgpack decode: %w", err)
	}
	return v, nil
}

// EncodeParams serializes the sorted (name, value) pairs used to build a
// full target key (spec §6). It is exposed separately from Encode because
// the param tuple has a fixed, order-significant shape that must stay
// stable regardless of which default codec is configured; callers that
// swap the default codec should keep using EncodeParams (or reimplement
// it consistently) so that existing on-disk keys remain addressable.
func EncodeParams(pairs [][2]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(pairs); err != nil {
		return nil, fmt.Errorf("msgpack encode params: %w", err)
	}
	return buf.Bytes(), nil
}
