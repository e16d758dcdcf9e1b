package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/tomvoet/imgconv/internal/hasher"
)

// Check verifies m against the files under baseDir and returns one message
// per problem, in file key order. An empty result means the manifest is
// consistent.
func Check(m *Manifest, baseDir string) []string {
	var errs []string

	if m.Version != SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	keys := make([]string, 0, len(m.Files))
	for k := range m.Files {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	seenPaths := map[string]string{}
	for _, key := range keys {
		e := m.Files[key]

		if e.Source.Type == "" {
			errs = append(errs, fmt.Sprintf("file %q: missing source type", key))
		}

		switch {
		case e.Output == nil && e.Error == nil:
			errs = append(errs, fmt.Sprintf("file %q: neither output nor error", key))
			continue
		case e.Output != nil && e.Error != nil:
			errs = append(errs, fmt.Sprintf("file %q: both output and error", key))
			continue
		case e.Error != nil:
			if e.Error.Kind == "" {
				errs = append(errs, fmt.Sprintf("file %q: error without kind", key))
			}
			continue
		}

		out := e.Output
		if out.Type != m.Target {
			errs = append(errs, fmt.Sprintf("file %q: output type %q differs from target %q", key, out.Type, m.Target))
		}
		if out.Path == "" {
			errs = append(errs, fmt.Sprintf("file %q: missing output path", key))
			continue
		}
		if prev, ok := seenPaths[out.Path]; ok {
			errs = append(errs, fmt.Sprintf("file %q: duplicate output path %q (also %q)", key, out.Path, prev))
		}
		seenPaths[out.Path] = key

		fullPath := filepath.Join(baseDir, filepath.FromSlash(out.Path))
		info, err := os.Stat(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("file %q: output not found: %s", key, out.Path))
			continue
		}
		if info.Size() != out.Size {
			errs = append(errs, fmt.Sprintf("file %q: size mismatch: manifest=%d, disk=%d", key, out.Size, info.Size()))
			continue
		}
		sum, err := hasher.SumFile(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("file %q: %v", key, err))
		} else if sum != out.Hash {
			errs = append(errs, fmt.Sprintf("file %q: hash mismatch: manifest=%s, disk=%s", key, out.Hash, sum))
		}
	}

	// Verify stats consistency.
	want := Manifest{Files: m.Files}
	want.ComputeStats()
	if m.Stats != want.Stats {
		errs = append(errs, fmt.Sprintf("stats mismatch: manifest=%+v, computed=%+v", m.Stats, want.Stats))
	}

	return errs
}
