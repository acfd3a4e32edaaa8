package flow

import (
	"context"
	"fmt"
	"strings"
)

// Item is a unit of work driven through the engine. Execute performs the
// processing for the given stage and returns the stage the item wants to
// visit next. The engine never calls Execute concurrently for the same item.
//
// Execute must not block indefinitely on resources outside the pipeline;
// single-worker stages stall entirely while one item holds their worker.
type Item interface {
	Start() Stage
	Execute(ctx context.Context, stage Stage) (Stage, error)
}

// Identifier is implemented by items that carry a stable name used in logs,
// reports, and errors.
type Identifier interface {
	ItemID() string
}

// Func adapts a closure to the Item contract.
type Func struct {
	ID      string
	Initial Stage
	Fn      func(ctx context.Context, stage Stage) (Stage, error)
}

// Start returns the configured initial stage.
func (f *Func) Start() Stage { return f.Initial }

// Execute invokes the wrapped closure.
func (f *Func) Execute(ctx context.Context, stage Stage) (Stage, error) {
	if f.Fn == nil {
		return End, nil
	}
	return f.Fn(ctx, stage)
}

// ItemID returns the configured identifier.
func (f *Func) ItemID() string { return f.ID }

func itemID(item Item, index int) string {
	if named, ok := item.(Identifier); ok {
		if id := strings.TrimSpace(named.ItemID()); id != "" {
			return id
		}
	}
	return fmt.Sprintf("item-%d", index)
}
