package flow

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for engine spans. Without a global
// TracerProvider the default no-op tracer is used.
const tracerName = "actorflow/internal/flow"

const (
	spanExecute = "actorflow.stage.execute"
	spanRun     = "actorflow.run"
)

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func (w *worker) startSpan(ctx context.Context, env *envelope) (context.Context, trace.Span) {
	return w.tracer.Start(ctx, spanExecute,
		trace.WithAttributes(
			attribute.String("actorflow.run_id", w.runID),
			attribute.String("actorflow.item_id", env.id),
			attribute.String("actorflow.stage", w.stage.String()),
			attribute.String("actorflow.worker", w.name),
			attribute.Int("actorflow.hop", len(env.path)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func endSpan(span trace.Span, next Stage, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("actorflow.next_stage", next.String()))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
