package flow_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"actorflow/internal/flow"
	"actorflow/internal/services"
)

// scriptItem follows a fixed list of hops and fails if two workers ever hold
// it at the same time.
type scriptItem struct {
	id    string
	start flow.Stage
	hops  []flow.Stage

	pos    int
	seen   []flow.Stage
	inside atomic.Int32
}

func newScript(id string, start flow.Stage, hops ...flow.Stage) *scriptItem {
	return &scriptItem{id: id, start: start, hops: hops}
}

func (s *scriptItem) Start() flow.Stage { return s.start }

func (s *scriptItem) ItemID() string { return s.id }

func (s *scriptItem) Execute(_ context.Context, stage flow.Stage) (flow.Stage, error) {
	if s.inside.Add(1) != 1 {
		return 0, fmt.Errorf("item %s executed concurrently", s.id)
	}
	defer s.inside.Add(-1)

	s.seen = append(s.seen, stage)
	if s.pos >= len(s.hops) {
		return flow.End, nil
	}
	next := s.hops[s.pos]
	s.pos++
	return next, nil
}

func newEngine(t *testing.T, opts ...flow.Option) *flow.Engine {
	t.Helper()
	engine, err := flow.New(opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return engine
}

func runWithDeadline(t *testing.T, engine *flow.Engine, items []flow.Item, budget time.Duration) (*flow.Report, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()
	return engine.Run(ctx, items)
}

func TestRunThreeItemsThroughEveryStage(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(2))
	full := []flow.Stage{flow.Read, flow.Work, flow.Gather, flow.Write, flow.End}

	scripts := make([]*scriptItem, 3)
	items := make([]flow.Item, 3)
	for i := range scripts {
		scripts[i] = newScript(fmt.Sprintf("asset-%d", i), flow.Read, flow.Work, flow.Gather, flow.Write, flow.End)
		items[i] = scripts[i]
	}

	report, err := runWithDeadline(t, engine, items, 5*time.Second)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Arrivals) != 3 {
		t.Fatalf("expected 3 arrivals, got %d", len(report.Arrivals))
	}
	for _, arrival := range report.Arrivals {
		if !slices.Equal(arrival.Path, full) {
			t.Fatalf("%s path = %v, want %v", arrival.ID, arrival.Path, full)
		}
		if arrival.Hops() != 4 {
			t.Fatalf("%s hops = %d, want 4", arrival.ID, arrival.Hops())
		}
	}
	for _, s := range scripts {
		if !slices.Equal(s.seen, full[:4]) {
			t.Fatalf("%s executed %v", s.id, s.seen)
		}
	}
	if report.Pending != 0 {
		t.Fatalf("expected no pending messages, got %d", report.Pending)
	}
	if report.Workers != 2 || report.Items != 3 {
		t.Fatalf("report workers/items = %d/%d", report.Workers, report.Items)
	}
	if report.RunID == "" {
		t.Fatal("expected run id")
	}
	if report.Duration() <= 0 {
		t.Fatalf("expected positive duration, got %s", report.Duration())
	}
	for _, stage := range []flow.Stage{flow.Read, flow.Work, flow.Gather, flow.Write, flow.End} {
		if got := report.Stage(stage).Visits; got != 3 {
			t.Fatalf("%s visits = %d, want 3", stage, got)
		}
	}
	if got := report.Stage(flow.Work).Workers; got != 2 {
		t.Fatalf("work workers = %d, want 2", got)
	}
	if got := report.Stage(flow.Read).Workers; got != 1 {
		t.Fatalf("read workers = %d, want 1", got)
	}
}

func TestRunLoopingItemNeverCompletesWithoutDeadline(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(1))
	loop := &flow.Func{ID: "looper", Initial: flow.Work, Fn: func(context.Context, flow.Stage) (flow.Stage, error) {
		return flow.Work, nil
	}}

	start := time.Now()
	report, err := runWithDeadline(t, engine, []flow.Item{loop}, 100*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if flow.ErrorKind(err) != "canceled" {
		t.Fatalf("ErrorKind = %q", flow.ErrorKind(err))
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("run did not stop promptly after the deadline")
	}
	if len(report.Arrivals) != 0 {
		t.Fatalf("expected no arrivals, got %d", len(report.Arrivals))
	}
	if report.Stage(flow.Work).Visits == 0 {
		t.Fatal("expected the looping item to have executed")
	}
}

func TestRunDrainTimeoutReportsHang(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(2), flow.WithDrainTimeout(50*time.Millisecond))
	loop := &flow.Func{ID: "looper", Initial: flow.Work, Fn: func(context.Context, flow.Stage) (flow.Stage, error) {
		return flow.Work, nil
	}}
	done := &flow.Func{ID: "done", Initial: flow.Read}

	report, err := runWithDeadline(t, engine, []flow.Item{loop, done}, 5*time.Second)
	if !errors.Is(err, flow.ErrDrainTimeout) {
		t.Fatalf("expected ErrDrainTimeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected arrival count in error, got %q", err.Error())
	}
	if len(report.Arrivals) != 1 || report.Arrivals[0].ID != "done" {
		t.Fatalf("unexpected arrivals: %+v", report.Arrivals)
	}
}

func TestRunConservesRandomItems(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	workers := 1 + rng.IntN(16)
	engine := newEngine(t, flow.WithWorkers(workers))

	const n = 1000
	items := make([]flow.Item, n)
	for i := range items {
		start := flow.Read
		if rng.IntN(2) == 1 {
			start = flow.Work
		}
		var hops []flow.Stage
		if start == flow.Read {
			hops = []flow.Stage{flow.Work, flow.Gather, flow.End}
		} else {
			hops = []flow.Stage{flow.Write, flow.End}
		}
		items[i] = newScript(fmt.Sprintf("item-%04d", i), start, hops...)
	}

	report, err := runWithDeadline(t, engine, items, 30*time.Second)
	if err != nil {
		t.Fatalf("Run (workers=%d) returned error: %v", workers, err)
	}
	if len(report.Arrivals) != n {
		t.Fatalf("expected %d arrivals, got %d", n, len(report.Arrivals))
	}
	seen := make(map[string]struct{}, n)
	for _, arrival := range report.Arrivals {
		if _, dup := seen[arrival.ID]; dup {
			t.Fatalf("duplicate arrival %s", arrival.ID)
		}
		seen[arrival.ID] = struct{}{}
	}
	if report.Pending != 0 {
		t.Fatalf("expected no pending messages, got %d", report.Pending)
	}
	if got := report.Stage(flow.Work).Workers; got != workers {
		t.Fatalf("work workers = %d, want %d", got, workers)
	}
}

func TestRunPathIsIndependentOfWorkerCount(t *testing.T) {
	build := func() []flow.Item {
		items := make([]flow.Item, 0, 60)
		for i := range 60 {
			id := fmt.Sprintf("det-%d", i)
			// Loop through Work a per-item number of times before finishing.
			loops := i % 5
			hops := []flow.Stage{}
			for range loops {
				hops = append(hops, flow.Work)
			}
			hops = append(hops, flow.Gather, flow.End)
			items = append(items, newScript(id, flow.Work, hops...))
		}
		return items
	}

	paths := func(workers int) map[string][]flow.Stage {
		report, err := runWithDeadline(t, newEngine(t, flow.WithWorkers(workers)), build(), 10*time.Second)
		if err != nil {
			t.Fatalf("Run (workers=%d): %v", workers, err)
		}
		out := make(map[string][]flow.Stage, len(report.Arrivals))
		for _, a := range report.Arrivals {
			out[a.ID] = a.Path
		}
		return out
	}

	single := paths(1)
	many := paths(8)
	if len(single) != 60 || len(many) != 60 {
		t.Fatalf("arrivals: %d and %d", len(single), len(many))
	}
	for id, path := range single {
		if !slices.Equal(path, many[id]) {
			t.Fatalf("%s path differs: %v vs %v", id, path, many[id])
		}
	}
}

func TestRunMoreItemsThanQueueCapacity(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(2), flow.WithQueueCapacity(2))
	items := make([]flow.Item, 50)
	for i := range items {
		items[i] = newScript(fmt.Sprintf("small-%d", i), flow.Read, flow.Work, flow.Write, flow.End)
	}
	report, err := runWithDeadline(t, engine, items, 10*time.Second)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Arrivals) != len(items) {
		t.Fatalf("expected %d arrivals, got %d", len(items), len(report.Arrivals))
	}
}

func TestRunUnknownStageIsRoutingError(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(2))
	bad := &flow.Func{ID: "bad-item", Initial: flow.Read, Fn: func(_ context.Context, stage flow.Stage) (flow.Stage, error) {
		if stage == flow.Read {
			return flow.Work, nil
		}
		return flow.Stage(42), nil
	}}
	good := newScript("good", flow.Read, flow.End)

	_, err := runWithDeadline(t, engine, []flow.Item{good, bad}, 5*time.Second)
	if !errors.Is(err, flow.ErrStageRouting) {
		t.Fatalf("expected routing error, got %v", err)
	}
	var stageErr *flow.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %T", err)
	}
	if stageErr.Item != "bad-item" || stageErr.Stage != flow.Work || stageErr.Next != flow.Stage(42) {
		t.Fatalf("unexpected stage error: %+v", stageErr)
	}
	if flow.ErrorKind(err) != "routing" {
		t.Fatalf("ErrorKind = %q", flow.ErrorKind(err))
	}
}

func TestRunZeroStageIsRoutingError(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(1))
	unset := &flow.Func{ID: "unset", Initial: flow.Gather, Fn: func(context.Context, flow.Stage) (flow.Stage, error) {
		return 0, nil
	}}
	_, err := runWithDeadline(t, engine, []flow.Item{unset}, 5*time.Second)
	if !errors.Is(err, flow.ErrStageRouting) {
		t.Fatalf("expected routing error, got %v", err)
	}
}

func TestRunExecuteErrorFailsFast(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(4))
	cause := errors.New("corrupt texture")
	items := []flow.Item{
		&flow.Func{ID: "broken", Initial: flow.Work, Fn: func(context.Context, flow.Stage) (flow.Stage, error) {
			return 0, cause
		}},
	}
	// Items that would otherwise never finish; the failure must still abort the run.
	for i := range 10 {
		items = append(items, &flow.Func{ID: fmt.Sprintf("spin-%d", i), Initial: flow.Work, Fn: func(ctx context.Context, _ flow.Stage) (flow.Stage, error) {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Millisecond):
				return flow.Work, nil
			}
		}})
	}

	_, err := runWithDeadline(t, engine, items, 5*time.Second)
	if !errors.Is(err, flow.ErrWorkerFailure) {
		t.Fatalf("expected worker failure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("run should fail on the item error, not the deadline: %v", err)
	}
	var stageErr *flow.StageError
	if !errors.As(err, &stageErr) || stageErr.Item != "broken" || stageErr.Stage != flow.Work {
		t.Fatalf("unexpected stage error: %+v", stageErr)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(1))
	panicky := &flow.Func{ID: "panicky", Initial: flow.Write, Fn: func(context.Context, flow.Stage) (flow.Stage, error) {
		panic("boom")
	}}

	_, err := runWithDeadline(t, engine, []flow.Item{panicky}, 5*time.Second)
	if !errors.Is(err, flow.ErrWorkerFailure) {
		t.Fatalf("expected worker failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "panic in write: boom") {
		t.Fatalf("expected panic message, got %q", err.Error())
	}
}

func TestRunRejectsInvalidInitialStage(t *testing.T) {
	engine := newEngine(t)
	called := false
	item := &flow.Func{ID: "nowhere", Initial: flow.Stage(9), Fn: func(context.Context, flow.Stage) (flow.Stage, error) {
		called = true
		return flow.End, nil
	}}

	report, err := engine.Run(context.Background(), []flow.Item{item})
	if !errors.Is(err, flow.ErrStageRouting) {
		t.Fatalf("expected routing error, got %v", err)
	}
	if called {
		t.Fatal("item must not execute when its initial stage is invalid")
	}
	if report == nil || len(report.Arrivals) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunRejectsNilItem(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.Run(context.Background(), []flow.Item{nil}); !errors.Is(err, flow.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunStartingAtEndArrivesWithoutExecuting(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(1))
	item := newScript("already-done", flow.End)
	report, err := runWithDeadline(t, engine, []flow.Item{item}, 5*time.Second)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Arrivals) != 1 || len(item.seen) != 0 {
		t.Fatalf("arrivals=%d executions=%v", len(report.Arrivals), item.seen)
	}
}

func TestRunWithNoItems(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(3))
	report, err := runWithDeadline(t, engine, nil, 5*time.Second)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Arrivals) != 0 || report.Pending != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunReusesEngine(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(2))
	for round := range 3 {
		items := []flow.Item{newScript(fmt.Sprintf("r%d", round), flow.Read, flow.Write, flow.End)}
		report, err := runWithDeadline(t, engine, items, 5*time.Second)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if len(report.Arrivals) != 1 {
			t.Fatalf("round %d arrivals = %d", round, len(report.Arrivals))
		}
	}
}

func TestRunCallerIdentifiersFallBackToIndex(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(1))
	items := []flow.Item{&flow.Func{Initial: flow.Read}, &flow.Func{ID: "  ", Initial: flow.Read}}
	report, err := runWithDeadline(t, engine, items, 5*time.Second)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	ids := []string{report.Arrivals[0].ID, report.Arrivals[1].ID}
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"item-0", "item-1"}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	cases := map[string][]flow.Option{
		"zero workers":           {flow.WithWorkers(0)},
		"negative workers":       {flow.WithWorkers(-2)},
		"zero capacity":          {flow.WithQueueCapacity(0)},
		"unknown stage capacity": {flow.WithStageCapacity(flow.Stage(42), 4)},
		"zero stage capacity":    {flow.WithStageCapacity(flow.Work, 0)},
		"negative drain timeout": {flow.WithDrainTimeout(-time.Second)},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := flow.New(opts...); !errors.Is(err, flow.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestNewAppliesCapacities(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(5), flow.WithQueueCapacity(16), flow.WithStageCapacity(flow.Work, 64))
	if engine.Workers() != 5 {
		t.Fatalf("workers = %d", engine.Workers())
	}
	if engine.Capacity(flow.Read) != 16 || engine.Capacity(flow.Work) != 64 {
		t.Fatalf("capacities read=%d work=%d", engine.Capacity(flow.Read), engine.Capacity(flow.Work))
	}
	if flow.DefaultQueueCapacity != 128 {
		t.Fatalf("default capacity = %d", flow.DefaultQueueCapacity)
	}
	if newEngine(t).Workers() < 1 {
		t.Fatal("default worker count must be positive")
	}
}

func TestRunExecuteContextCarriesItemStageAndWorker(t *testing.T) {
	engine := newEngine(t, flow.WithWorkers(1))

	type seen struct{ item, stage, worker string }
	var visits []seen
	item := &flow.Func{
		ID:      "ui/menu.json",
		Initial: flow.Read,
		Fn: func(ctx context.Context, stage flow.Stage) (flow.Stage, error) {
			id, _ := services.ItemIDFromContext(ctx)
			st, stOK := services.StageFromContext(ctx)
			worker, workerOK := services.WorkerFromContext(ctx)
			if !stOK || !workerOK {
				return 0, fmt.Errorf("context missing stage=%v worker=%v", stOK, workerOK)
			}
			visits = append(visits, seen{item: id, stage: st, worker: worker})
			if stage == flow.Read {
				return flow.Work, nil
			}
			return flow.End, nil
		},
	}

	if _, err := runWithDeadline(t, engine, []flow.Item{item}, 5*time.Second); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []seen{
		{item: "ui/menu.json", stage: "read", worker: "read"},
		{item: "ui/menu.json", stage: "work", worker: "work-1"},
	}
	if !slices.Equal(visits, want) {
		t.Fatalf("execute contexts = %+v, want %+v", visits, want)
	}
}
