package flow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"actorflow/internal/logging"
	"actorflow/internal/services"
)

// worker consumes exactly one queue and forwards each envelope to the queue
// named by the item's next stage. It finishes one envelope before taking the
// next.
type worker struct {
	name    string
	stage   Stage
	queue   *Queue
	runID   string
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics instruments

	stats workerStats
}

func (w *worker) run(ctx context.Context) error {
	for {
		msg, err := w.queue.take(ctx)
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case shutdown:
			w.logger.Debug("worker stopped",
				logging.String(logging.FieldEventType, "worker_stop"),
				logging.Int("visits", w.stats.visits),
			)
			return nil
		case *envelope:
			if err := w.handle(ctx, m); err != nil {
				return err
			}
		}
	}
}

func (w *worker) handle(ctx context.Context, env *envelope) error {
	itemCtx := services.WithItemID(ctx, env.id)
	itemCtx = services.WithStage(itemCtx, w.stage.String())
	itemCtx = services.WithWorker(itemCtx, w.name)
	logger := w.logger.With(logging.String(logging.FieldItemID, env.id))

	started := time.Now()
	next, err := w.execute(itemCtx, logger, env)
	elapsed := time.Since(started)
	w.stats.visits++
	w.stats.busy += elapsed
	w.metrics.recordExecute(ctx, w.stage, elapsed, err)

	if err != nil {
		stageErr := &StageError{Kind: ErrWorkerFailure, Item: env.id, Stage: w.stage, Err: err}
		logging.ErrorWithContext(logger, "item execute failed", "item_failure",
			logging.Error(err),
			logging.String("cause_kind", services.Kind(err)),
			logging.String(logging.FieldErrorHint, "inspect the item's stage handler; the run is aborted"),
		)
		return stageErr
	}

	target, ok := env.routes.lookup(next)
	if !ok {
		logging.ErrorWithContext(logger, "item routed to unknown stage", "routing_failure",
			logging.String("next_stage", next.String()),
			logging.String(logging.FieldErrorHint, "item must report one of read, write, gather, work, end"),
		)
		return &StageError{Kind: ErrStageRouting, Item: env.id, Stage: w.stage, Next: next}
	}

	logger.Debug("item executed",
		logging.String("next_stage", next.String()),
		logging.Duration("elapsed", elapsed),
	)
	env.path = append(env.path, next)
	return target.put(ctx, env)
}

func (w *worker) execute(ctx context.Context, logger *slog.Logger, env *envelope) (next Stage, err error) {
	ctx, span := w.startSpan(ctx, env)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("item execute panicked",
				logging.String(logging.FieldEventType, "item_panic"),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic in %s: %v", w.stage, r)
		}
		endSpan(span, next, err)
	}()
	return env.item.Execute(ctx, w.stage)
}
