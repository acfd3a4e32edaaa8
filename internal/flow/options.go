package flow

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures an Engine.
type Option func(*Engine) error

// WithWorkers sets the number of workers bound to the Work stage.
func WithWorkers(n int) Option {
	return func(e *Engine) error {
		e.workers = n
		return nil
	}
}

// WithQueueCapacity sets the capacity shared by every stage queue.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) error {
		e.capacity = n
		return nil
	}
}

// WithStageCapacity overrides the queue capacity for a single stage.
func WithStageCapacity(stage Stage, n int) Option {
	return func(e *Engine) error {
		if !stage.Valid() {
			return configError("capacity override for unknown %s", stage)
		}
		if n <= 0 {
			return configError("%s queue capacity must be positive, got %d", stage, n)
		}
		e.stageCapacity[stage] = n
		return nil
	}
}

// WithDrainTimeout bounds how long Run waits for all items to reach End.
// Zero disables the bound.
func WithDrainTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d < 0 {
			return configError("drain timeout must not be negative, got %s", d)
		}
		e.drainTimeout = d
		return nil
	}
}

// WithLogger sets the structured logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) error {
		if l != nil {
			e.logger = l
		}
		return nil
	}
}

// WithTracer sets the tracer used for stage execution spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) error {
		if t != nil {
			e.tracer = t
		}
		return nil
	}
}

// WithMeter sets the meter used for stage execution and run metrics.
func WithMeter(m metric.Meter) Option {
	return func(e *Engine) error {
		if m != nil {
			e.meter = m
		}
		return nil
	}
}
