package preflight

import (
	"context"
	"fmt"
	"strings"

	"actorflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Output and state directories are created by the caller beforehand; the
// state directory is only checked when history is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckReadableDirectory("Source directory", cfg.Paths.SourceDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}
	if ctx.Err() != nil {
		results = append(results, Result{Name: "Context", Detail: ctx.Err().Error()})
	}
	return results
}

// Failures returns the failed results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Error summarizes failed results as a single error, or nil when all passed.
func Error(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
