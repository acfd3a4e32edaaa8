package flow

import (
	"sort"
	"time"
)

// Arrival is an item drained from End together with the stages it visited.
type Arrival struct {
	Item Item
	ID   string
	Path []Stage
}

// Hops returns the number of stages executed before reaching End.
func (a Arrival) Hops() int {
	if len(a.Path) == 0 {
		return 0
	}
	return len(a.Path) - 1
}

// StageStats aggregates executions for one stage across all of its workers.
type StageStats struct {
	Stage   Stage
	Workers int
	Visits  int
	Busy    time.Duration
}

// Report summarizes a run. Arrivals are in End-arrival order; Pending counts
// messages left in any queue after the workers joined.
type Report struct {
	RunID      string
	Workers    int
	Items      int
	Arrivals   []Arrival
	Stages     []StageStats
	Pending    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stage returns the stats recorded for a stage.
func (r *Report) Stage(stage Stage) StageStats {
	if r != nil {
		for _, st := range r.Stages {
			if st.Stage == stage {
				return st
			}
		}
	}
	return StageStats{Stage: stage}
}

// workerStats is owned by a single worker until the run joins.
type workerStats struct {
	visits int
	busy   time.Duration
}

func mergeStats(workers []*worker, arrivals int) []StageStats {
	byStage := make(map[Stage]*StageStats, len(stageNames))
	for _, stage := range Stages() {
		byStage[stage] = &StageStats{Stage: stage}
	}
	for _, w := range workers {
		st := byStage[w.stage]
		st.Workers++
		st.Visits += w.stats.visits
		st.Busy += w.stats.busy
	}
	byStage[End].Visits = arrivals

	out := make([]StageStats, 0, len(byStage))
	for _, st := range byStage {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}
