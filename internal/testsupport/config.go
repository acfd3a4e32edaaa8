package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"actorflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The source directory is created empty; output and state are left for the
// code under test to create.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Flow.Workers = 2
	cfgVal.Logging.Format = "json"

	if err := os.MkdirAll(cfgVal.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers overrides the Work stage pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Flow.Workers = n
	}
}

// WithQueueCapacity overrides the shared queue capacity on the test config.
func WithQueueCapacity(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Flow.QueueCapacity = n
	}
}

// WithoutHistory disables the run history database.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithSourceFiles writes the given relative path to contents map into the
// source directory.
func WithSourceFiles(files map[string]string) ConfigOption {
	return func(b *configBuilder) {
		for rel, contents := range files {
			WriteText(b.t, filepath.Join(b.cfg.Paths.SourceDir, rel), contents)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}
