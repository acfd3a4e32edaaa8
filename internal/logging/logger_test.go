package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"actorflow/internal/logging"
	"actorflow/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewCreatesLogFileDirectories(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "state", "nested", "actorflow.log")

	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello state dir")

	content := readLog(t, logPath)
	if !strings.Contains(content, "hello state dir") {
		t.Fatalf("expected message in state log, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "flow").Info("item executed",
		logging.String(logging.FieldWorker, "work-2"),
		logging.String(logging.FieldItemID, "mesh.obj"),
		logging.String(logging.FieldStage, "work"),
		logging.Int("hops", 3),
	)

	content := readLog(t, logPath)
	for _, fragment := range []string{"INFO  flow:", "work-2 · mesh.obj (work) item executed", " hops=3"} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
	if strings.Count(content, "\n") != 1 {
		t.Fatalf("expected a single line, got %q", content)
	}
}

func TestConsoleLoggerShortensRunAndQuotesValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-run.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With(logging.String(logging.FieldRunID, "1a2b3c4d-5e6f-7a8b")).
		WithGroup("cook").
		Warn("asset skipped", logging.String("reason", "hidden file"), logging.String("name", "a=b"))

	content := readLog(t, logPath)
	for _, fragment := range []string{"WARN ", "[run 1a2b3c4d]", `cook.reason="hidden file"`, `cook.name="a=b"`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
	if strings.Contains(content, "run_id=") {
		t.Fatalf("run id should be lifted into the prefix, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", "k"} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected key %q in %v", key, record)
		}
	}
	if record["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden") || !strings.Contains(content, "shown") {
		t.Fatalf("expected info level filtering, got %q", content)
	}
}

func TestAutoFormatFallsBackToJSONForFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "auto.log")
	logger, err := logging.New(logging.Options{Format: "auto", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("auto message")

	if content := readLog(t, logPath); !strings.HasPrefix(content, "{") {
		t.Fatalf("expected json output for non-terminal output, got %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-9")
	ctx = services.WithItemID(ctx, "tex.png")
	ctx = services.WithStage(ctx, "read")

	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	want := map[string]string{
		logging.FieldRunID:  "run-9",
		logging.FieldItemID: "tex.png",
		logging.FieldStage:  "read",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
}

func TestFormatSubject(t *testing.T) {
	cases := []struct {
		worker, item, stage string
		want                string
	}{
		{"work-1", "a", "work", "work-1 · a (work)"},
		{"read", "a", "read", "a (read)"},
		{"", "", "gather", "gather"},
		{"", "b", "", "b"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		if got := logging.FormatSubject(tc.worker, tc.item, tc.stage); got != tc.want {
			t.Fatalf("FormatSubject(%q, %q, %q) = %q, want %q", tc.worker, tc.item, tc.stage, got, tc.want)
		}
	}
}

func TestJSONLoggerFlattensDurationsAndErrors(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json-values.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("item finished",
		logging.Duration("elapsed", 1500*time.Millisecond),
		logging.Error(errors.New("disk full")),
	)

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["elapsed"] != "1.5s" {
		t.Fatalf("expected elapsed rendered as 1.5s, got %v", record["elapsed"])
	}
	if record["error"] != "disk full" {
		t.Fatalf("expected error rendered as text, got %v", record["error"])
	}
	ts, _ := record["ts"].(string)
	if _, err := time.Parse("2006-01-02T15:04:05.000Z07:00", ts); err != nil || !strings.HasSuffix(ts, "Z") || len(ts) != len("2006-01-02T15:04:05.000Z") {
		t.Fatalf("expected fixed-width UTC timestamp, got %q", ts)
	}
	caller, _ := record["caller"].(string)
	if !strings.HasPrefix(caller, "logger_test.go:") {
		t.Fatalf("expected caller file:line, got %v", record["caller"])
	}
}
