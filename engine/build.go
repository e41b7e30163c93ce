package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solsword/quiche/cache"
	"github.com/solsword/quiche/registry"
)

// knockoutSet turns a knockout slice into a membership set (spec §4.5
// check_up_to_date's knockout parameter).
func knockoutSet(knockout []string) map[string]bool {
	set := make(map[string]bool, len(knockout))
	for _, k := range knockout {
		set[k] = true
	}
	return set
}

// CheckUpToDate recursively verifies target and its (recursive)
// prerequisites are current, rebuilding whatever is stale, and returns
// target's resulting cache timestamp (spec §4.5 "Freshness check").
//
// Targets named in knockout are treated as stale regardless of their
// cached timestamp, forcing a rebuild (spec §3 "Knockout").
func (e *Engine) CheckUpToDate(ctx context.Context, target string, params map[string]any, knockout []string) (float64, error) {
	ctx, span := e.startSpan(ctx, "CheckUpToDate", target)
	defer span.end()

	ts, err := e.checkUpToDate(ctx, target, params, knockoutSet(knockout), map[string]bool{})
	if err != nil {
		span.recordError(err)
	}
	return ts, err
}

func (e *Engine) checkUpToDate(ctx context.Context, target string, params map[string]any, knockout, path map[string]bool) (float64, error) {
	if path[target] {
		return 0, fmt.Errorf("%w: %q is part of a dependency cycle", ErrCycleDetected, target)
	}
	path[target] = true
	defer delete(path, target)

	desc, err := e.registry.Resolve(target)
	if err != nil {
		return 0, err
	}

	relevant, err := e.relevant(target, map[string]bool{})
	if err != nil {
		return 0, err
	}

	times := make([]float64, len(desc.Inputs))
	for i, input := range desc.Inputs {
		t, err := e.checkUpToDate(ctx, input, params, knockout, path)
		if err != nil {
			return 0, err
		}
		times[i] = t
	}

	key, err := e.mixTarget(target, relevant, params)
	if err != nil {
		return 0, err
	}

	var myTS float64
	haveTS := false
	if !knockout[target] {
		myTS, haveTS = e.cache.MTime(ctx, key)
	}

	stale := !haveTS
	if !stale {
		for _, t := range times {
			if t > myTS {
				stale = true
				break
			}
		}
	}

	if !stale {
		return myTS, nil
	}

	return e.rebuild(ctx, target, desc, params, relevant, key)
}

func (e *Engine) rebuild(ctx context.Context, target string, desc registry.Descriptor, params map[string]any, relevant []string, key string) (float64, error) {
	ivalues := make([]any, len(desc.Inputs))
	for i, input := range desc.Inputs {
		inputRelevant, err := e.relevant(input, map[string]bool{})
		if err != nil {
			return 0, err
		}
		inputKey, err := e.mixTarget(input, inputRelevant, params)
		if err != nil {
			return 0, err
		}
		_, val, err := e.cache.Load(ctx, inputKey)
		if err != nil {
			return 0, fmt.Errorf("%w: %q (needed by %q)", ErrMissingDependency, input, target)
		}
		ivalues[i] = val
	}

	pvalues := map[string]any{}
	for _, pn := range desc.Params {
		if v, ok := params[pn]; ok {
			pvalues[pn] = v
		}
	}

	start := time.Now()
	value, err := e.invoke(target, desc, ivalues, pvalues)
	e.metrics.rebuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.tasksFailed.Inc()
		return 0, err
	}
	e.metrics.tasksExecuted.Inc()

	flags := make([]cache.Flag, len(desc.Flags))
	for i, f := range desc.Flags {
		flags[i] = cache.Flag(f)
	}
	newTS, err := e.cache.Store(ctx, key, value, flags)
	if err != nil {
		return 0, err
	}

	e.logger.Debug("engine: rebuilt target", slog.String("target", target), slog.Float64("ts", newTS))
	return newTS, nil
}

// invoke calls desc.Fn, converting a panic into an ErrTaskError the same
// way dep.py's check_up_to_date lets a Python exception propagate as
// TaskError with the target name attached (spec §7).
func (e *Engine) invoke(target string, desc registry.Descriptor, ivalues []any, pvalues map[string]any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: target %q panicked: %v", ErrTaskError, target, r)
		}
	}()
	value, err = desc.Fn(ivalues, pvalues)
	if err != nil {
		return nil, fmt.Errorf("%w: target %q: %v", ErrTaskError, target, err)
	}
	return value, nil
}

// Create builds target if necessary (recursively checking freshness of
// its prerequisites) and returns the resulting (timestamp, value) pair
// (spec §4.5 "create").
func (e *Engine) Create(ctx context.Context, target string, params map[string]any, knockout []string) (float64, any, error) {
	ctx, span := e.startSpan(ctx, "Create", target)
	defer span.end()

	if _, err := e.checkUpToDate(ctx, target, params, knockoutSet(knockout), map[string]bool{}); err != nil {
		span.recordError(err)
		return 0, nil, err
	}

	relevant, err := e.relevant(target, map[string]bool{})
	if err != nil {
		span.recordError(err)
		return 0, nil, err
	}
	key, err := e.mixTarget(target, relevant, params)
	if err != nil {
		span.recordError(err)
		return 0, nil, err
	}

	ts, val, err := e.cache.Load(ctx, key)
	if err != nil {
		wrapped := fmt.Errorf("%w: target %q", ErrBuildFailed, target)
		span.recordError(wrapped)
		return 0, nil, wrapped
	}
	return ts, val, nil
}

// CreateBrave returns a cached value for target without checking
// freshness, if one is available; otherwise it falls back to Create
// (spec §4.5 "create_brave"). Only use this when an out-of-date cached
// value is acceptable.
func (e *Engine) CreateBrave(ctx context.Context, target string, params map[string]any, knockout []string) (float64, any, error) {
	ctx, span := e.startSpan(ctx, "CreateBrave", target)
	defer span.end()

	relevant, err := e.relevant(target, map[string]bool{})
	if err != nil {
		span.recordError(err)
		return 0, nil, err
	}
	key, err := e.mixTarget(target, relevant, params)
	if err != nil {
		span.recordError(err)
		return 0, nil, err
	}

	ts, val, err := e.cache.Load(ctx, key)
	if err == nil {
		return ts, val, nil
	}

	ts, val, err = e.Create(ctx, target, params, knockout)
	if err != nil {
		span.recordError(err)
		return 0, nil, err
	}
	return ts, val, nil
}
