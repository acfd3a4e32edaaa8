package flow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for engine metrics. Without a global
// MeterProvider the instruments are no-ops.
const meterName = "actorflow/internal/flow"

const (
	metricExecuteDuration = "actorflow.stage.duration"
	metricExecutions      = "actorflow.stage.executions"
	metricRuns            = "actorflow.runs"
)

type instruments struct {
	duration   metric.Float64Histogram
	executions metric.Int64Counter
	runs       metric.Int64Counter
}

func defaultMeter() metric.Meter {
	return otel.Meter(meterName)
}

// newInstruments creates the engine instruments. The metric API hands back
// no-op instruments alongside any creation error, so errors are dropped.
func newInstruments(meter metric.Meter) instruments {
	duration, _ := meter.Float64Histogram(metricExecuteDuration,
		metric.WithDescription("Duration of one item execution at a stage in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(metricExecutions,
		metric.WithDescription("Item executions per stage"),
		metric.WithUnit("{execution}"),
	)
	runs, _ := meter.Int64Counter(metricRuns,
		metric.WithDescription("Finished engine runs"),
		metric.WithUnit("{run}"),
	)
	return instruments{duration: duration, executions: executions, runs: runs}
}

func (in instruments) recordExecute(ctx context.Context, stage Stage, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("stage", stage.String()),
		attribute.String("status", statusOf(err)),
	)
	in.duration.Record(ctx, elapsed.Seconds(), attrs)
	in.executions.Add(ctx, 1, attrs)
}

func (in instruments) recordRun(ctx context.Context, err error) {
	attrs := []attribute.KeyValue{attribute.String("status", statusOf(err))}
	if err != nil {
		attrs = append(attrs, attribute.String("error_kind", ErrorKind(err)))
	}
	in.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
