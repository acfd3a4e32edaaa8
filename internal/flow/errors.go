package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("flow: configuration error")
	ErrStageRouting  = errors.New("flow: stage routing error")
	ErrWorkerFailure = errors.New("flow: worker failure")
	ErrDrainTimeout  = errors.New("flow: drain timeout")
)

// StageError describes a fatal failure tied to a specific item. Kind is one of
// ErrStageRouting or ErrWorkerFailure and is matched by errors.Is.
type StageError struct {
	Kind  error
	Item  string
	Stage Stage
	Next  Stage
	Err   error
}

func (e *StageError) Error() string {
	parts := make([]string, 0, 4)
	kind := ErrWorkerFailure
	if e.Kind != nil {
		kind = e.Kind
	}
	parts = append(parts, kind.Error())
	if item := strings.TrimSpace(e.Item); item != "" {
		parts = append(parts, "item "+item)
	}
	if e.Stage != 0 {
		parts = append(parts, "stage "+e.Stage.String())
	}
	if errors.Is(kind, ErrStageRouting) {
		parts = append(parts, "next "+e.Next.String())
	}
	msg := strings.Join(parts, ": ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind marker and the underlying cause.
func (e *StageError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// ErrorKind classifies the failure for callers that map errors to statuses.
func (e *StageError) ErrorKind() string {
	if errors.Is(e.Kind, ErrStageRouting) {
		return "routing"
	}
	return "worker_failure"
}

// ErrorKind returns a short classification for any error produced by Run.
func ErrorKind(err error) string {
	var stageErr *StageError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &stageErr):
		return stageErr.ErrorKind()
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDrainTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
