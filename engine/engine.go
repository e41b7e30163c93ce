package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solsword/quiche/cache"
	"github.com/solsword/quiche/registry"
)

// Function is a task's body (see registry.Function for the full
// contract): resolved input values in declaration order, followed by
// bound parameter values.
type Function = registry.Function

// TemplateFunction is a template_task's body (see registry.TemplateFunction).
type TemplateFunction = registry.TemplateFunction

// IterFunction is an iter_task's body (see registry.IterFunction).
type IterFunction = registry.IterFunction

// Flag mirrors cache.Flag/registry.Flag (spec §3 "Flags").
type Flag = registry.Flag

const (
	Ephemeral = registry.Ephemeral
	Volatile  = registry.Volatile
)

// Engine is the Build Engine (spec §4.5): a Target Registry plus a Cache
// Manager, combined into public create/create_brave operations.
//
// Unlike dep.py's module-level globals, Engine is an explicit value with
// its own scoped lifetime (spec Design Notes §9). quiche.go at the module
// root offers a package-level default Engine as sugar for callers who
// want dep.py's original ergonomics.
//
// # Thread Safety
//
// Registration is expected to complete before any Create/CreateBrave call
// (spec §5); Engine itself adds no locking.
type Engine struct {
	registry *registry.Registry
	cache    *cache.Manager
	logger   *slog.Logger
	metrics  *engineMetrics
	tracing  bool
}

// Option configures an Engine constructed with New.
type Option func(*Engine)

// WithLogger sets the engine's logger (nil, the default, uses slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTracing enables OpenTelemetry spans around Create/CheckUpToDate
// (see tracing.go). Off by default so embedding quiche doesn't silently
// start emitting spans into a host application's tracer provider.
func WithTracing(enabled bool) Option {
	return func(e *Engine) { e.tracing = enabled }
}

// New creates an Engine over the given Cache Manager.
func New(mgr *cache.Manager, opts ...Option) *Engine {
	e := &Engine{
		registry: registry.New(),
		cache:    mgr,
		metrics:  newEngineMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// AddAlias registers alias -> target (spec §4.4, §4.5 registration operations).
func (e *Engine) AddAlias(alias, target string) {
	e.registry.AddAlias(alias, target)
}

// AddObject immediately caches value under target (so any stale value
// previously cached under the same name is overwritten) and registers a
// zero-input, zero-param descriptor whose function returns value (spec
// §4.5 add_object).
func (e *Engine) AddObject(ctx context.Context, target string, value any, flags []Flag) error {
	key, err := e.mixTarget(target, nil, nil)
	if err != nil {
		return err
	}
	if _, err := e.cache.Store(ctx, key, value, toCacheFlags(flags)); err != nil {
		return fmt.Errorf("engine: add_object %q: %w", target, err)
	}

	fn := func(inputs []any, params map[string]any) (any, error) { return value, nil }
	return e.registry.AddTarget(target, registry.Descriptor{Fn: fn, Flags: flags})
}

// AddGather registers a target whose function simply returns its
// resolved input values as a slice, in declaration order (spec §4.5
// add_gather).
func (e *Engine) AddGather(inputs []string, output string, flags []Flag) error {
	fn := func(ivalues []any, params map[string]any) (any, error) {
		out := make([]any, len(ivalues))
		copy(out, ivalues)
		return out, nil
	}
	return e.registry.AddTarget(output, registry.Descriptor{Inputs: inputs, Fn: fn, Flags: flags})
}

// Task registers a concrete task descriptor (spec §4.5 task).
func (e *Engine) Task(inputs, params []string, output string, flags []Flag, fn Function) error {
	return e.registry.AddTarget(output, registry.Descriptor{Inputs: inputs, Params: params, Fn: fn, Flags: flags})
}

// TemplateTask registers a template-based generator (spec §4.4 Template
// generators, §4.5 template_task).
func (e *Engine) TemplateTask(inputs, params []string, output string, flags []Flag, fn TemplateFunction) error {
	return e.registry.AddTemplateGenerator(inputs, params, output, flags, fn)
}

// IterTask registers an iteration-based generator (spec §4.4 Iteration
// generators, §4.5 iter_task).
func (e *Engine) IterTask(inputs, params []string, output string, flags []Flag, fn IterFunction) error {
	return e.registry.AddIterGenerator(inputs, params, output, flags, fn)
}

// ResolveTrace exposes the registry's debugging report (spec §9 "debugging
// APIs that report resolution traces").
func (e *Engine) ResolveTrace(target string) string {
	return e.registry.ResolveTrace(target)
}

func toCacheFlags(flags []Flag) []cache.Flag {
	out := make([]cache.Flag, len(flags))
	for i, f := range flags {
		out[i] = cache.Flag(f)
	}
	return out
}
