package pipeline

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tomvoet/imgconv/internal/format"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the slash-separated path relative to the input directory.
	RelPath string
	// Type is the MIME type resolved from the file name.
	Type string
	// Size is the file size in bytes.
	Size int64
}

// Key returns RelPath without its extension.
func (s Source) Key() string {
	dir, base := path.Split(s.RelPath)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return dir + base[:i]
	}
	return s.RelPath
}

// ScanImages walks the input directory and returns every file whose
// extension is in the input format table. Hidden directories are skipped,
// as is skipDir (typically the output directory when it lies inside the
// input).
func ScanImages(inputDir, skipDir string) ([]Source, error) {
	var sources []Source

	err := filepath.Walk(inputDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != inputDir && (strings.HasPrefix(info.Name(), ".") || p == skipDir) {
				return filepath.SkipDir
			}
			return nil
		}

		mime := format.Resolve(format.File{Name: info.Name()})
		if mime == format.Fallback {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, p)
		if err != nil {
			return err
		}

		sources = append(sources, Source{
			AbsPath: p,
			RelPath: filepath.ToSlash(relPath),
			Type:    mime,
			Size:    info.Size(),
		})
		return nil
	})

	return sources, err
}
