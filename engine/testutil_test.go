package engine

import (
	"testing"

	"github.com/solsword/quiche/cache"
	"github.com/solsword/quiche/codec"
	"github.com/solsword/quiche/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	codecs := codec.NewRegistry()
	codecs.Register(codec.NewMsgpackCodec())
	mgr := cache.New(store.NewMemoryStore(), codecs, nil)
	return New(mgr)
}
