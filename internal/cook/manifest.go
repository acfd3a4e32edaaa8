package cook

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"actorflow/internal/fileutil"
)

// ManifestFileName is written to the output directory after a successful run.
const ManifestFileName = "manifest.json"

const manifestVersion = 1

// Entry describes one cooked asset.
type Entry struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Kind       Kind   `json:"kind"`
	Size       int64  `json:"size"`
	CookedSize int64  `json:"cooked_size"`
	Digest     string `json:"sha256,omitempty"`
	Output     string `json:"output"`
}

// Manifest collects entries during the Gather stage.
type Manifest struct {
	SourceDir string
	OutputDir string
	entries   []Entry
}

type manifestFile struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	SourceDir   string    `json:"source_dir"`
	OutputDir   string    `json:"output_dir"`
	Entries     []Entry   `json:"entries"`
}

// NewManifest creates an empty manifest for a cook of sourceDir into outputDir.
func NewManifest(sourceDir, outputDir string) *Manifest {
	return &Manifest{SourceDir: sourceDir, OutputDir: outputDir}
}

func (m *Manifest) add(entry Entry) {
	m.entries = append(m.entries, entry)
}

// Len returns the number of gathered entries.
func (m *Manifest) Len() int { return len(m.entries) }

// Entries returns a copy of the entries sorted by name.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WriteFile stores the manifest as indented JSON.
func (m *Manifest) WriteFile(path string) error {
	payload := manifestFile{
		Version:     manifestVersion,
		GeneratedAt: time.Now().UTC(),
		SourceDir:   m.SourceDir,
		OutputDir:   m.OutputDir,
		Entries:     m.Entries(),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteFile.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var payload manifestFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if payload.Version != manifestVersion {
		return nil, fmt.Errorf("manifest version %d not supported", payload.Version)
	}
	return &Manifest{SourceDir: payload.SourceDir, OutputDir: payload.OutputDir, entries: payload.Entries}, nil
}
