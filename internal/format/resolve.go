package format

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is a user-supplied file: its name, the MIME type reported by whoever
// handed it over (often empty), and its raw bytes.
type File struct {
	Name string
	Type string
	Data []byte
}

// FileFromPath reads a file from disk. Type is left empty; the filesystem
// reports no MIME type, the same as a browser for unsniffable formats.
func FileFromPath(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Resolve determines the MIME type of f.
//
// A non-empty f.Type is returned verbatim and is not checked against the
// registry. Otherwise the text after the last dot in f.Name is compared
// case-sensitively with the input table and the first match in table order
// wins. If there is no extension or no match, Fallback is returned.
func Resolve(f File) string {
	if f.Type != "" {
		return f.Type
	}

	ext, ok := extension(f.Name)
	if !ok {
		return Fallback
	}
	for _, e := range Input() {
		if e.Extension == ext {
			return e.MimeType
		}
	}
	return Fallback
}

func extension(name string) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}
	return name[i+1:], true
}
