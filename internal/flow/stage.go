package flow

import (
	"fmt"
	"strings"
)

// Stage labels a pipeline phase. Stages are routing keys, not a sequence.
type Stage uint8

// The zero Stage is invalid so an item that never sets its next hop is caught
// as a routing error.
const (
	Read Stage = iota + 1
	Write
	Gather
	Work
	End
)

var stageNames = map[Stage]string{
	Read:   "read",
	Write:  "write",
	Gather: "gather",
	Work:   "work",
	End:    "end",
}

// Stages returns the closed stage set in a stable order.
func Stages() []Stage {
	return []Stage{Read, Write, Gather, Work, End}
}

// Valid reports whether s belongs to the known stage set.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Parallel reports whether the stage is served by the worker pool.
func (s Stage) Parallel() bool { return s == Work }

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// ParseStage resolves a case-insensitive stage name.
func ParseStage(value string) (Stage, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	for stage, name := range stageNames {
		if name == needle {
			return stage, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", value)
}
