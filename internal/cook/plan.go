package cook

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"actorflow/internal/flow"
)

// Plan walks sourceDir and returns one Asset per regular file, sorted by
// name. Hidden files and directories are skipped, as is outputDir when it
// is nested inside sourceDir. Every asset gathers into
// manifest and writes below outputDir at the same relative path.
func Plan(sourceDir, outputDir string, manifest *Manifest) ([]*Asset, error) {
	sourceDir = filepath.Clean(sourceDir)
	outputDir = filepath.Clean(outputDir)
	var assets []*Asset
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != sourceDir && path == outputDir {
			return filepath.SkipDir
		}
		if path != sourceDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		assets = append(assets, &Asset{
			Name:     name,
			Title:    TitleFor(name),
			Kind:     KindFor(name),
			Source:   path,
			Target:   filepath.Join(outputDir, rel),
			manifest: manifest,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", sourceDir, err)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

// Items adapts assets to the engine's item list.
func Items(assets []*Asset) []flow.Item {
	items := make([]flow.Item, len(assets))
	for i, a := range assets {
		items[i] = a
	}
	return items
}
