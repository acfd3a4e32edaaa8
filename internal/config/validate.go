package config

import (
	"errors"
	"fmt"
	"sort"

	"actorflow/internal/flow"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFlow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == "" {
		return errors.New("paths.source_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.source_dir")
	}
	return nil
}

func (c *Config) validateFlow() error {
	if c.Flow.Workers < 1 {
		return fmt.Errorf("flow.workers must be at least 1 (got %d)", c.Flow.Workers)
	}
	if c.Flow.QueueCapacity < 1 {
		return fmt.Errorf("flow.queue_capacity must be at least 1 (got %d)", c.Flow.QueueCapacity)
	}
	if c.Flow.DrainTimeoutSeconds < 0 {
		return errors.New("flow.drain_timeout_seconds must be non-negative")
	}
	names := make([]string, 0, len(c.Flow.StageCapacity))
	for name := range c.Flow.StageCapacity {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := flow.ParseStage(name); err != nil {
			return fmt.Errorf("flow.stage_capacity: %w", err)
		}
		if c.Flow.StageCapacity[name] < 1 {
			return fmt.Errorf("flow.stage_capacity.%s must be at least 1", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console, json, or auto)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.KeepRuns < 0 {
		return errors.New("history.keep_runs must be non-negative")
	}
	if c.History.Enabled && c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint must be set when telemetry.enabled is true")
	}
	return nil
}
