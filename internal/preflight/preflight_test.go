package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"actorflow/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableDirectory_Empty(t *testing.T) {
	if result := CheckReadableDirectory("source", ""); result.Passed {
		t.Fatal("expected failure for unset path")
	}
}

func TestRunAll(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "src")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StateDir = filepath.Join(base, "state")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results with history enabled, got %d", len(results))
	}
	err := Error(results)
	if err == nil {
		t.Fatal("expected failures for missing directories")
	}
	if !strings.Contains(err.Error(), "Source directory") {
		t.Fatalf("expected source directory in error, got %v", err)
	}

	for _, dir := range []string{cfg.Paths.SourceDir, cfg.Paths.OutputDir, cfg.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	results = RunAll(context.Background(), &cfg)
	if err := Error(results); err != nil {
		t.Fatalf("expected all checks to pass, got %v", err)
	}

	cfg.History.Enabled = false
	if got := len(RunAll(context.Background(), &cfg)); got != 2 {
		t.Fatalf("expected state check to be skipped, got %d results", got)
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
