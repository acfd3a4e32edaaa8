package history

import (
	"time"

	"actorflow/internal/flow"
)

// Status describes how a run ended.
type Status string

const (
	// StatusCompleted marks a run where every item reached End.
	StatusCompleted Status = "completed"
	// StatusFailed marks a run aborted by an item failure, cancellation, or timeout.
	StatusFailed Status = "failed"
)

// Run is one persisted engine run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Items        int
	Arrived      int
	Workers      int
	Pending      int
	Status       Status
	ErrorKind    string
	ErrorMessage string
	SourceDir    string
	Stages       []StageRecord
}

// StageRecord holds the aggregated counters for one stage of a run.
type StageRecord struct {
	Stage   string
	Workers int
	Visits  int
	Busy    time.Duration
}

// Duration returns the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run ended in error.
func (r *Run) Failed() bool {
	return r != nil && r.Status == StatusFailed
}

// FromReport converts an engine report and its run error into a Run.
func FromReport(report *flow.Report, runErr error, sourceDir string) *Run {
	run := &Run{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Items:      report.Items,
		Arrived:    len(report.Arrivals),
		Workers:    report.Workers,
		Pending:    report.Pending,
		Status:     StatusCompleted,
		SourceDir:  sourceDir,
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if runErr != nil {
		run.Status = StatusFailed
		run.ErrorKind = flow.ErrorKind(runErr)
		run.ErrorMessage = runErr.Error()
	}
	for _, st := range report.Stages {
		run.Stages = append(run.Stages, StageRecord{
			Stage:   st.Stage.String(),
			Workers: st.Workers,
			Visits:  st.Visits,
			Busy:    st.Busy,
		})
	}
	return run
}
