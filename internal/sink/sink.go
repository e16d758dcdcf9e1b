// Package sink stores conversion results.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomvoet/imgconv/internal/format"
)

// Sink saves a finished result under name and returns where it went.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// FileSink writes results into a directory.
type FileSink struct {
	Dir string
}

// Save writes data to Dir/name through a temp file and a rename, so a
// reader never sees a partial file. name may contain slash-separated
// subdirectories but must stay inside Dir. No handle is kept open.
func (s FileSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	rel := filepath.Clean(filepath.FromSlash(name))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid output name %q", name)
	}
	dst := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return dst, nil
}

// Tee saves to Primary and then to every Mirror. It returns the primary
// location.
type Tee struct {
	Primary Sink
	Mirrors []Sink
}

func (t Tee) Save(ctx context.Context, name string, data []byte) (string, error) {
	loc, err := t.Primary.Save(ctx, name, data)
	if err != nil {
		return "", err
	}
	for _, m := range t.Mirrors {
		if _, err := m.Save(ctx, name, data); err != nil {
			return loc, err
		}
	}
	return loc, nil
}

// OutputName replaces the extension of inputName with the canonical
// extension of outputMime. Directories are stripped.
func OutputName(inputName, outputMime string) string {
	base := filepath.Base(inputName)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	ext, ok := format.ExtensionFor(outputMime)
	if !ok {
		return base
	}
	return base + "." + ext
}
