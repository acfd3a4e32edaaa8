package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the source, output, and state directories.
type Paths struct {
	SourceDir string `toml:"source_dir" env:"ACTORFLOW_SOURCE_DIR"`
	OutputDir string `toml:"output_dir" env:"ACTORFLOW_OUTPUT_DIR"`
	StateDir  string `toml:"state_dir" env:"ACTORFLOW_STATE_DIR"`
}

// Flow contains engine sizing and shutdown settings.
type Flow struct {
	Workers             int            `toml:"workers" env:"ACTORFLOW_WORKERS"`
	QueueCapacity       int            `toml:"queue_capacity" env:"ACTORFLOW_QUEUE_CAPACITY"`
	DrainTimeoutSeconds int            `toml:"drain_timeout_seconds" env:"ACTORFLOW_DRAIN_TIMEOUT_SECONDS"`
	StageCapacity       map[string]int `toml:"stage_capacity"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"ACTORFLOW_LOG_FORMAT"`
	Level  string `toml:"level" env:"ACTORFLOW_LOG_LEVEL"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled  bool `toml:"enabled" env:"ACTORFLOW_HISTORY_ENABLED"`
	KeepRuns int  `toml:"keep_runs" env:"ACTORFLOW_HISTORY_KEEP_RUNS"`
}

// Telemetry contains OTLP trace export settings.
type Telemetry struct {
	Enabled     bool   `toml:"enabled" env:"ACTORFLOW_OTEL_ENABLED"`
	Endpoint    string `toml:"endpoint" env:"ACTORFLOW_OTEL_ENDPOINT"`
	ServiceName string `toml:"service_name" env:"ACTORFLOW_OTEL_SERVICE_NAME"`
}

// Config encapsulates all configuration values for actorflow.
//
// Configuration sections by subsystem:
//   - Paths: asset source, cooked output, and state directories
//   - Flow: worker pool size, queue capacities, drain timeout
//   - Logging: log format and level
//   - History: run history retention
//   - Telemetry: OTLP trace export
type Config struct {
	Paths     Paths     `toml:"paths"`
	Flow      Flow      `toml:"flow"`
	Logging   Logging   `toml:"logging"`
	History   History   `toml:"history"`
	Telemetry Telemetry `toml:"telemetry"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file is decoded. The returned config has
// all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and state directories. The source
// directory is never created; a missing source is a preflight failure.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DrainTimeout returns the configured drain timeout; zero disables it.
func (c *Config) DrainTimeout() time.Duration {
	if c.Flow.DrainTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Flow.DrainTimeoutSeconds) * time.Second
}

// LogPath returns the log file appended to inside the state directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, logFileName)
}

// HistoryPath returns the location of the run history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, historyFileName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
