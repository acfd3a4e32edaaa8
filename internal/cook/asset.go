package cook

import (
	"context"
	"os"

	"actorflow/internal/fileutil"
	"actorflow/internal/flow"
	"actorflow/internal/services"
)

// Asset is one source file moving through the cook pipeline. Its unexported
// state is only touched by the worker currently executing it.
type Asset struct {
	Name   string
	Title  string
	Kind   Kind
	Source string
	Target string

	manifest *Manifest
	buf      Buffer
	size     int64
	digest   string
}

// Start implements flow.Item.
func (a *Asset) Start() flow.Stage { return flow.Read }

// ItemID implements flow.Identifier.
func (a *Asset) ItemID() string { return a.Name }

// Digest returns the SHA-256 of the cooked bytes once Work has run.
func (a *Asset) Digest() string { return a.digest }

// Execute implements flow.Item.
func (a *Asset) Execute(ctx context.Context, stage flow.Stage) (flow.Stage, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	switch stage {
	case flow.Read:
		return a.read()
	case flow.Work:
		return a.work()
	case flow.Gather:
		return a.gather()
	case flow.Write:
		return a.write()
	default:
		return 0, services.Wrap(services.ErrValidation, stage.String(), "execute", "asset has no handler for this stage", nil)
	}
}

func (a *Asset) read() (flow.Stage, error) {
	data, err := os.ReadFile(a.Source)
	if err != nil {
		return 0, services.Wrap(services.ErrNotFound, "read", "load source", a.Source, err)
	}
	a.buf.Set(data)
	a.size = int64(len(data))
	if a.buf.IsEmpty() {
		return flow.Gather, nil
	}
	return flow.Work, nil
}

func (a *Asset) work() (flow.Stage, error) {
	if a.Kind == KindText {
		a.buf.Set(NormalizeText(a.buf.Bytes()))
	}
	a.digest = fileutil.SHA256Hex(a.buf.Bytes())
	return flow.Gather, nil
}

func (a *Asset) gather() (flow.Stage, error) {
	if a.manifest != nil {
		a.manifest.add(Entry{
			Name:       a.Name,
			Title:      a.Title,
			Kind:       a.Kind,
			Size:       a.size,
			CookedSize: int64(a.buf.Size),
			Digest:     a.digest,
			Output:     a.Target,
		})
	}
	return flow.Write, nil
}

func (a *Asset) write() (flow.Stage, error) {
	if err := fileutil.WriteFileAtomic(a.Target, a.buf.Bytes()); err != nil {
		return 0, services.Wrap(services.ErrTransient, "write", "store cooked asset", a.Target, err)
	}
	a.buf.Clear()
	return flow.End, nil
}
