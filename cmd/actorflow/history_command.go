package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"actorflow/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded pipeline runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled (set history.enabled = true)")
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format(time.DateTime),
						run.Duration().Round(time.Millisecond).String(),
						fmt.Sprintf("%d/%d", run.Arrived, run.Items),
						strconv.Itoa(run.Workers),
						string(run.Status),
						run.ErrorKind,
					})
				}
				fmt.Fprintln(out, renderTable("", runColumns, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 lists all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

var runColumns = []column{
	{header: "ID"},
	{header: "Started"},
	{header: "Duration", align: alignRight},
	{header: "Arrived", align: alignRight},
	{header: "Workers", align: alignRight},
	{header: "Status"},
	{header: "Error"},
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its per-stage counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				if jsonOutput {
					return writeJSON(cmd, run)
				}
				printRun(cmd, run)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}

func printRun(cmd *cobra.Command, run *history.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Duration: %s\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "Arrived:  %d of %d\n", run.Arrived, run.Items)
	fmt.Fprintf(out, "Workers:  %d\n", run.Workers)
	fmt.Fprintf(out, "Drained:  %s\n", yesNo(run.Pending == 0))
	if run.SourceDir != "" {
		fmt.Fprintf(out, "Source:   %s\n", run.SourceDir)
	}
	if run.Failed() {
		fmt.Fprintf(out, "Error:    [%s] %s\n", run.ErrorKind, run.ErrorMessage)
	}
	if len(run.Stages) == 0 {
		return
	}
	rows := make([][]string, 0, len(run.Stages))
	for _, st := range run.Stages {
		rows = append(rows, []string{
			st.Stage,
			strconv.Itoa(st.Workers),
			strconv.Itoa(st.Visits),
			st.Busy.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable("", stageColumns, rows))
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") {
				keep = cfg.History.KeepRuns
			}
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of newest runs to keep (defaults to history.keep_runs)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
