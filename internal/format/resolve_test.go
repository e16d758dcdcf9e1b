package format

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		file File
		want string
	}{
		{"reported type wins", File{Name: "photo.qoi", Type: "image/png"}, "image/png"},
		{"reported type not validated", File{Name: "x.png", Type: "text/plain"}, "text/plain"},
		{"qoi by extension", File{Name: "photo.qoi"}, "image/x-qoi"},
		{"svg is decode-only but resolvable", File{Name: "logo.svg"}, "image/svg+xml"},
		{"farbfeld", File{Name: "img.ff"}, "image/farbfeld"},
		{"no extension", File{Name: "noext"}, Fallback},
		{"unknown extension", File{Name: "data.xyz"}, Fallback},
		{"multi-dot uses last segment", File{Name: "archive.png.tga"}, "image/x-targa"},
		{"case sensitive", File{Name: "PHOTO.QOI"}, Fallback},
		{"trailing dot", File{Name: "photo."}, Fallback},
		{"jpg is not an alias here", File{Name: "photo.jpg"}, Fallback},
		{"hidden file with extension", File{Name: ".hdr"}, "image/vnd.radiance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.file); got != tt.want {
				t.Errorf("Resolve(%+v) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.tga")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := FileFromPath(path)
	if err != nil {
		t.Fatalf("FileFromPath: %v", err)
	}
	if f.Name != "sample.tga" || f.Type != "" || len(f.Data) != 3 {
		t.Errorf("unexpected file: %+v", f)
	}
	if got := Resolve(f); got != "image/x-targa" {
		t.Errorf("Resolve = %q", got)
	}

	if _, err := FileFromPath(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
