package cook

import (
	"context"
	"fmt"
	"path/filepath"

	"actorflow/internal/flow"
)

// Result is the outcome of a cook run.
type Result struct {
	Assets       []*Asset
	Manifest     *Manifest
	ManifestPath string
	Report       *flow.Report
}

// Cook plans sourceDir, runs every asset through engine, and writes the
// manifest into outputDir when the run succeeds. On failure the partial
// result is returned with the engine error and no manifest is written.
func Cook(ctx context.Context, engine *flow.Engine, sourceDir, outputDir string) (*Result, error) {
	manifest := NewManifest(sourceDir, outputDir)
	assets, err := Plan(sourceDir, outputDir, manifest)
	if err != nil {
		return nil, err
	}
	result := &Result{Assets: assets, Manifest: manifest}

	report, err := engine.Run(ctx, Items(assets))
	result.Report = report
	if err != nil {
		return result, err
	}

	path := filepath.Join(outputDir, ManifestFileName)
	if err := manifest.WriteFile(path); err != nil {
		return result, fmt.Errorf("cook %s: %w", sourceDir, err)
	}
	result.ManifestPath = path
	return result, nil
}
