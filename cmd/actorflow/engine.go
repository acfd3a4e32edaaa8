package main

import (
	"fmt"
	"log/slog"
	"sort"

	"actorflow/internal/config"
	"actorflow/internal/flow"
)

// newEngine builds a flow engine from the [flow] configuration section.
func newEngine(cfg *config.Config, logger *slog.Logger) (*flow.Engine, error) {
	opts := []flow.Option{
		flow.WithWorkers(cfg.Flow.Workers),
		flow.WithQueueCapacity(cfg.Flow.QueueCapacity),
		flow.WithDrainTimeout(cfg.DrainTimeout()),
		flow.WithLogger(logger),
	}

	names := make([]string, 0, len(cfg.Flow.StageCapacity))
	for name := range cfg.Flow.StageCapacity {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stage, err := flow.ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("flow.stage_capacity: %w", err)
		}
		opts = append(opts, flow.WithStageCapacity(stage, cfg.Flow.StageCapacity[name]))
	}

	return flow.New(opts...)
}
