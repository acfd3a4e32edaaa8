package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"actorflow/internal/config"
	"actorflow/internal/cook"
	"actorflow/internal/flow"
	"actorflow/internal/history"
	"actorflow/internal/logging"
	"actorflow/internal/preflight"
	"actorflow/internal/telemetry"
)

type cookSummary struct {
	RunID    string         `json:"run_id"`
	Status   string         `json:"status"`
	Items    int            `json:"items"`
	Arrived  int            `json:"arrived"`
	Workers  int            `json:"workers"`
	Pending  int            `json:"pending"`
	Duration string         `json:"duration"`
	Manifest string         `json:"manifest,omitempty"`
	Error    string         `json:"error,omitempty"`
	Stages   []stageSummary `json:"stages"`
}

type stageSummary struct {
	Stage   string `json:"stage"`
	Workers int    `json:"workers"`
	Visits  int    `json:"visits"`
	BusyMS  int64  `json:"busy_ms"`
}

func newCookCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "cook",
		Short: "Run every asset in the source directory through the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Flow.Workers = workers
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return runCook(cmd, cfg, logger, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Override the Work stage pool size")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func runCook(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, jsonOutput bool) error {
	parent := cmd.Context()

	if err := preflight.Error(preflight.RunAll(parent, cfg)); err != nil {
		return err
	}

	lock, err := cook.Lock(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "release output lock failed", "lock_release_failed", logging.Error(err))
		}
	}()

	shutdown, err := telemetry.Setup(parent, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logging.WarnWithContext(logger, "telemetry shutdown failed", "telemetry_shutdown_failed", logging.Error(err))
		}
	}()

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := cook.Cook(runCtx, engine, cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	if result == nil || result.Report == nil {
		return runErr
	}

	if cfg.History.Enabled {
		if err := recordRun(parent, cfg, result.Report, runErr, logger); err != nil {
			logging.WarnWithContext(logger, "record run history failed", "history_record_failed", logging.Error(err))
		}
	}

	summary := summarize(result, runErr)
	if jsonOutput {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		printCookSummary(cmd, summary)
	}

	if runErr != nil {
		return fmt.Errorf("cook: %w", runErr)
	}
	return nil
}

func recordRun(ctx context.Context, cfg *config.Config, report *flow.Report, runErr error, logger *slog.Logger) error {
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Record(ctx, report, runErr, cfg.Paths.SourceDir)
	if err != nil {
		return err
	}
	logger.Debug("run recorded",
		logging.String(logging.FieldEventType, "history_recorded"),
		logging.String("run_id", run.ID),
		logging.String("status", string(run.Status)),
	)

	if cfg.History.KeepRuns > 0 {
		removed, err := store.Prune(ctx, cfg.History.KeepRuns)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Debug("history pruned",
				logging.String(logging.FieldEventType, "history_pruned"),
				logging.Int64("removed", removed),
			)
		}
	}
	return nil
}

func summarize(result *cook.Result, runErr error) cookSummary {
	report := result.Report
	summary := cookSummary{
		RunID:    report.RunID,
		Status:   string(history.StatusCompleted),
		Items:    report.Items,
		Arrived:  len(report.Arrivals),
		Workers:  report.Workers,
		Pending:  report.Pending,
		Duration: report.Duration().Round(time.Millisecond).String(),
		Manifest: result.ManifestPath,
	}
	if runErr != nil {
		summary.Status = string(history.StatusFailed)
		summary.Error = runErr.Error()
		if errors.Is(runErr, context.Canceled) {
			summary.Error = "interrupted"
		}
	}
	for _, st := range report.Stages {
		summary.Stages = append(summary.Stages, stageSummary{
			Stage:   st.Stage.String(),
			Workers: st.Workers,
			Visits:  st.Visits,
			BusyMS:  st.Busy.Milliseconds(),
		})
	}
	return summary
}

func printCookSummary(cmd *cobra.Command, summary cookSummary) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(summary.Stages))
	for _, st := range summary.Stages {
		rows = append(rows, []string{
			st.Stage,
			strconv.Itoa(st.Workers),
			strconv.Itoa(st.Visits),
			formatMillis(st.BusyMS),
		})
	}
	fmt.Fprintln(out, renderTable("Run "+summary.RunID, stageColumns, rows))
	fmt.Fprintf(out, "Status: %s\n", summary.Status)
	fmt.Fprintf(out, "Assets: %d of %d arrived in %s (%d workers)\n", summary.Arrived, summary.Items, summary.Duration, summary.Workers)
	if summary.Pending > 0 {
		fmt.Fprintf(out, "Pending: %d\n", summary.Pending)
	}
	if summary.Manifest != "" {
		fmt.Fprintf(out, "Manifest: %s\n", summary.Manifest)
	}
}

var stageColumns = []column{
	{header: "Stage"},
	{header: "Workers", align: alignRight},
	{header: "Visits", align: alignRight},
	{header: "Busy", align: alignRight},
}

func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
