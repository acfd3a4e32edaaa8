package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"actorflow/internal/logging"
	"actorflow/internal/services"
)

// Engine builds the stage queues and worker pool for each run and drives
// items until every one of them has reached End.
type Engine struct {
	workers       int
	capacity      int
	stageCapacity map[Stage]int
	drainTimeout  time.Duration
	logger        *slog.Logger
	tracer        trace.Tracer
	meter         metric.Meter
	metrics       instruments
}

// New creates an Engine. The Work stage defaults to one worker per CPU.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		workers:       runtime.NumCPU(),
		capacity:      DefaultQueueCapacity,
		stageCapacity: make(map[Stage]int),
		logger:        logging.NewNop(),
		tracer:        defaultTracer(),
		meter:         defaultMeter(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.workers < 1 {
		return nil, configError("work stage needs at least one worker, got %d", e.workers)
	}
	if e.capacity < 1 {
		return nil, configError("queue capacity must be positive, got %d", e.capacity)
	}
	e.logger = logging.NewComponentLogger(e.logger, "flow")
	e.metrics = newInstruments(e.meter)
	return e, nil
}

// Workers returns the Work stage pool size.
func (e *Engine) Workers() int { return e.workers }

// Capacity returns the queue capacity used for stage.
func (e *Engine) Capacity(stage Stage) int {
	if n, ok := e.stageCapacity[stage]; ok {
		return n
	}
	return e.capacity
}

// Run seeds every item onto the queue of its initial stage, waits until all
// of them have arrived at End, stops every worker, and returns the drained
// arrivals. The first item failure aborts the run and is returned as a
// *StageError; the partial report is returned alongside it.
func (e *Engine) Run(ctx context.Context, items []Item) (*Report, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx, span := e.tracer.Start(ctx, spanRun,
		trace.WithAttributes(
			attribute.String("actorflow.run_id", runID),
			attribute.Int("actorflow.items", len(items)),
			attribute.Int("actorflow.workers", e.workers),
		),
	)
	defer span.End()

	logger := logging.WithContext(ctx, e.logger)
	report := &Report{
		RunID:     runID,
		Workers:   e.workers,
		Items:     len(items),
		StartedAt: time.Now().UTC(),
	}

	envs, err := e.wrap(items)
	if err != nil {
		report.FinishedAt = time.Now().UTC()
		span.SetStatus(codes.Error, err.Error())
		logging.ErrorWithContext(logger, "run rejected", "run_rejected", logging.Error(err))
		e.metrics.recordRun(ctx, err)
		return report, err
	}

	rt := newRoutes(e.capacity, e.stageCapacity)
	for _, env := range envs {
		env.routes = rt
	}
	workers := e.buildWorkers(rt, runID, logger)

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("items", len(items)),
		logging.Int("workers", e.workers),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	for _, w := range workers {
		g.Go(func() error { return w.run(gctx) })
	}
	g.Go(func() error { return seed(gctx, envs) })

	arrivals, drainErr := e.drain(gctx, ctx, rt, len(envs))
	if drainErr == nil {
		drainErr = stopWorkers(gctx, workers)
	}
	if drainErr != nil {
		cancel()
	}
	waitErr := g.Wait()

	report.Arrivals = arrivals
	report.Stages = mergeStats(workers, len(arrivals))
	report.Pending = rt.pending()
	report.FinishedAt = time.Now().UTC()

	runErr := resolveRunError(waitErr, drainErr)
	e.metrics.recordRun(ctx, runErr)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.Error(runErr),
			logging.String("error_kind", ErrorKind(runErr)),
			logging.Int("arrived", len(arrivals)),
			logging.Int("items", len(items)),
		)
		return report, runErr
	}

	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("items", len(arrivals)),
		logging.Duration("run_duration", report.Duration()),
	)
	return report, nil
}

func (e *Engine) wrap(items []Item) ([]*envelope, error) {
	envs := make([]*envelope, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, configError("item %d is nil", i)
		}
		id := itemID(item, i)
		start := item.Start()
		if !start.Valid() {
			return nil, &StageError{Kind: ErrStageRouting, Item: id, Next: start, Err: errors.New("invalid initial stage")}
		}
		envs = append(envs, &envelope{item: item, id: id, index: i, path: []Stage{start}})
	}
	return envs, nil
}

func (e *Engine) buildWorkers(rt *routes, runID string, logger *slog.Logger) []*worker {
	workers := make([]*worker, 0, 3+e.workers)
	add := func(stage Stage, name string) {
		q, _ := rt.lookup(stage)
		workers = append(workers, &worker{
			name:  name,
			stage: stage,
			queue: q,
			runID: runID,
			logger: logger.With(
				logging.String(logging.FieldStage, stage.String()),
				logging.String(logging.FieldWorker, name),
			),
			tracer:  e.tracer,
			metrics: e.metrics,
		})
	}
	for _, stage := range []Stage{Read, Write, Gather} {
		add(stage, stage.String())
	}
	for i := range e.workers {
		add(Work, fmt.Sprintf("%s-%d", Work, i+1))
	}
	return workers
}

func seed(ctx context.Context, envs []*envelope) error {
	for _, env := range envs {
		q, _ := env.routes.lookup(env.path[0])
		if err := q.put(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// drain takes from End until expected items have arrived. parent is the
// caller's context, used to tell caller cancellation apart from the drain
// timeout.
func (e *Engine) drain(ctx, parent context.Context, rt *routes, expected int) ([]Arrival, error) {
	end, _ := rt.lookup(End)
	drainCtx := ctx
	if e.drainTimeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, e.drainTimeout)
		defer cancel()
	}

	arrivals := make([]Arrival, 0, expected)
	for len(arrivals) < expected {
		msg, err := end.take(drainCtx)
		if err != nil {
			if ctx.Err() == nil && parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return arrivals, fmt.Errorf("%w: %d of %d items reached end within %s",
					ErrDrainTimeout, len(arrivals), expected, e.drainTimeout)
			}
			return arrivals, err
		}
		env, ok := msg.(*envelope)
		if !ok {
			continue
		}
		arrivals = append(arrivals, Arrival{Item: env.item, ID: env.id, Path: env.path})
	}
	return arrivals, nil
}

// stopWorkers sends one shutdown signal per worker, so the Work queue
// receives one per pool member.
func stopWorkers(ctx context.Context, workers []*worker) error {
	for _, w := range workers {
		if err := w.queue.put(ctx, shutdown{}); err != nil {
			return err
		}
	}
	return nil
}

// resolveRunError prefers an item failure over the cancellation it caused.
func resolveRunError(waitErr, drainErr error) error {
	var stageErr *StageError
	if errors.As(waitErr, &stageErr) {
		return waitErr
	}
	if drainErr != nil {
		return drainErr
	}
	return waitErr
}
