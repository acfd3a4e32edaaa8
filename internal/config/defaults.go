package config

const (
	defaultConfigPath       = "~/.config/actorflow/config.toml"
	projectConfigName       = "actorflow.toml"
	historyFileName         = "history.db"
	logFileName             = "actorflow.log"
	defaultSourceDir        = "assets"
	defaultOutputDir        = "cooked"
	defaultStateDir         = "~/.local/share/actorflow"
	defaultQueueCapacity    = 128
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultHistoryKeepRuns  = 200
	defaultTelemetryService = "actorflow"
)

// Default returns a Config populated with repository defaults. A zero worker
// count is resolved to the CPU count during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Flow: Flow{
			QueueCapacity: defaultQueueCapacity,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled:  true,
			KeepRuns: defaultHistoryKeepRuns,
		},
		Telemetry: Telemetry{
			ServiceName: defaultTelemetryService,
		},
	}
}
