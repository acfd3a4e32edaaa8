package history

import (
	"database/sql"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, started_at, finished_at, items, arrived, workers, pending, status, error_kind, error_message, source_dir"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		startedRaw   string
		finishedRaw  string
		status       string
		errorKind    sql.NullString
		errorMessage sql.NullString
		sourceDir    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finishedRaw,
		&run.Items,
		&run.Arrived,
		&run.Workers,
		&run.Pending,
		&status,
		&errorKind,
		&errorMessage,
		&sourceDir,
	); err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	run.Status = Status(status)
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.SourceDir = sourceDir.String
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("%", "", "_", "")
	return replacer.Replace(value)
}
