package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates an empty manifest with defaults.
func New(target, sourceDir string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Target:      target,
		SourceDir:   sourceDir,
		Files:       make(map[string]Entry),
	}
}

// ComputeStats recalculates aggregate statistics from files.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalFiles = len(m.Files)
	for _, e := range m.Files {
		s.TotalInputBytes += e.Source.Size
		if e.Output != nil {
			s.Converted++
			s.TotalOutputBytes += e.Output.Size
		} else {
			s.Failed++
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to a JSON file with stable ordering.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Read parses the manifest at path. Unknown fields are ignored.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
