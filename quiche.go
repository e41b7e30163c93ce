// Package quiche wires the codec, store, cache, registry, and engine
// packages into a ready-to-use build engine, and offers package-level
// sugar functions over a lazily-constructed default Engine for callers
// migrating from dep.py's original module-level ergonomics.
package quiche

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/solsword/quiche/cache"
	"github.com/solsword/quiche/codec"
	"github.com/solsword/quiche/engine"
	"github.com/solsword/quiche/store"
)

// Config configures an Engine built by NewDefault.
type Config struct {
	// StorePath is the directory BadgerDB persists the cache to. Required
	// unless InMemoryStore is set.
	StorePath string `validate:"required_unless=InMemoryStore true"`
	// InMemoryStore forces an in-memory-only persistent map regardless of
	// StorePath, for tests and short-lived processes.
	InMemoryStore bool
	// EnableBlobCodec registers the secondary opaque-object codec
	// alongside the default msgpack codec (spec.md §6 "model:" convention).
	EnableBlobCodec bool
	// BlobTmpDir is the scratch directory BlobCodec round-trips values
	// through. Empty uses os.TempDir().
	BlobTmpDir string
	// BlobReconstructor rebuilds a BlobValue from stored bytes. Required
	// if EnableBlobCodec is set.
	BlobReconstructor codec.BlobReconstructor `validate:"required_if=EnableBlobCodec true"`
	// EnableTracing turns on OpenTelemetry spans around Create/CheckUpToDate.
	EnableTracing bool
	// Logger receives structured diagnostics from every layer. Nil uses
	// slog.Default().
	Logger *slog.Logger `validate:"-"`
}

var validate = validator.New()

// NewDefault builds a fully-wired Engine from cfg: a badger- or memory-
// backed persistent map, the default msgpack codec (plus the blob codec
// if enabled), a two-tier Cache Manager, and an Engine over them.
func NewDefault(cfg Config) (*engine.Engine, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("quiche: invalid config: %w", err)
	}

	var disk store.Store
	if cfg.InMemoryStore {
		disk = store.NewMemoryStore()
	} else {
		bs, err := store.OpenBadgerStore(store.Config{Path: cfg.StorePath, Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("quiche: open store: %w", err)
		}
		disk = bs
	}

	codecs := codec.NewRegistry()
	codecs.Register(codec.NewMsgpackCodec())
	if cfg.EnableBlobCodec {
		codecs.Register(codec.NewBlobCodec(cfg.BlobTmpDir, cfg.BlobReconstructor))
	}

	mgr := cache.New(disk, codecs, cfg.Logger)
	return engine.New(mgr, engine.WithLogger(cfg.Logger), engine.WithTracing(cfg.EnableTracing)), nil
}

var (
	defaultOnce   sync.Once
	defaultEngine *engine.Engine
	defaultErr    error
)

// Default lazily constructs and returns the package-level default Engine,
// backed by an in-memory store, mirroring dep.py's implicit
// module-import-time globals. Call SetDefault before any sugar function
// if a persistent store or non-default options are needed instead.
func Default() (*engine.Engine, error) {
	defaultOnce.Do(func() {
		defaultEngine, defaultErr = NewDefault(Config{InMemoryStore: true})
	})
	return defaultEngine, defaultErr
}

// SetDefault installs e as the package-level default Engine, overriding
// whatever Default would otherwise lazily construct. It takes effect for
// every later sugar function call, even if Default has already built an
// engine; targets registered on the previous default are not carried over.
func SetDefault(e *engine.Engine) {
	defaultOnce.Do(func() {})
	defaultEngine, defaultErr = e, nil
}

// Task registers a concrete task descriptor on the default Engine.
func Task(inputs, params []string, output string, flags []engine.Flag, fn engine.Function) error {
	e, err := Default()
	if err != nil {
		return err
	}
	return e.Task(inputs, params, output, flags, fn)
}

// TemplateTask registers a template-based generator on the default Engine.
func TemplateTask(inputs, params []string, output string, flags []engine.Flag, fn engine.TemplateFunction) error {
	e, err := Default()
	if err != nil {
		return err
	}
	return e.TemplateTask(inputs, params, output, flags, fn)
}

// IterTask registers an iteration-based generator on the default Engine.
func IterTask(inputs, params []string, output string, flags []engine.Flag, fn engine.IterFunction) error {
	e, err := Default()
	if err != nil {
		return err
	}
	return e.IterTask(inputs, params, output, flags, fn)
}

// AddAlias registers alias -> target on the default Engine.
func AddAlias(alias, target string) error {
	e, err := Default()
	if err != nil {
		return err
	}
	e.AddAlias(alias, target)
	return nil
}

// AddObject immediately caches value under target on the default Engine.
func AddObject(ctx context.Context, target string, value any, flags []engine.Flag) error {
	e, err := Default()
	if err != nil {
		return err
	}
	return e.AddObject(ctx, target, value, flags)
}

// AddGather registers a gathering target on the default Engine.
func AddGather(inputs []string, output string, flags []engine.Flag) error {
	e, err := Default()
	if err != nil {
		return err
	}
	return e.AddGather(inputs, output, flags)
}

// Create builds target (if necessary) on the default Engine and returns
// its (timestamp, value).
func Create(ctx context.Context, target string, params map[string]any, knockout []string) (float64, any, error) {
	e, err := Default()
	if err != nil {
		return 0, nil, err
	}
	return e.Create(ctx, target, params, knockout)
}

// CreateBrave returns target's cached value without a freshness check if
// one is available, falling back to Create on the default Engine.
func CreateBrave(ctx context.Context, target string, params map[string]any, knockout []string) (float64, any, error) {
	e, err := Default()
	if err != nil {
		return 0, nil, err
	}
	return e.CreateBrave(ctx, target, params, knockout)
}
