package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomvoet/imgconv/internal/hasher"
)

func TestManifestRoundtrip(t *testing.T) {
	m := New("image/webp", "/src")
	m.BuildInfo = &BuildInfo{Workers: 4, QueueDepth: 2, Isolated: true}
	m.Files["cards/card-1.png"] = Entry{
		Source: SourceInfo{Type: "image/png", Size: 100000},
		Output: &OutputInfo{
			Type: "image/webp", Size: 5000, Hash: "abcd1234abcd1234",
			Path: "cards/card-1.abcd1234.webp", DurationMS: 12,
		},
	}
	m.Files["broken.png"] = Entry{
		Source: SourceInfo{Type: "image/png", Size: 10},
		Error:  &ErrorInfo{Kind: "decode", Message: "png: invalid format"},
	}

	// Write to temp file.
	path := filepath.Join(t.TempDir(), FileName)
	if err := WriteJSON(m, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Read back and parse.
	m2, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Verify fields.
	if m2.Version != SupportedManifestVersion {
		t.Errorf("version: got %d, want %d", m2.Version, SupportedManifestVersion)
	}
	if m2.Target != "image/webp" {
		t.Errorf("target: got %q", m2.Target)
	}
	if m2.BuildInfo == nil {
		t.Fatal("build_info missing")
	}
	if m2.BuildInfo.Workers != 4 || !m2.BuildInfo.Isolated {
		t.Errorf("build_info: got %+v", *m2.BuildInfo)
	}

	e, ok := m2.Files["cards/card-1.png"]
	if !ok {
		t.Fatal("entry cards/card-1.png missing")
	}
	if e.Output == nil || e.Output.Path != "cards/card-1.abcd1234.webp" {
		t.Errorf("output: got %+v", e.Output)
	}
	if e.Error != nil {
		t.Errorf("unexpected error: %+v", e.Error)
	}
	if f := m2.Files["broken.png"]; f.Error == nil || f.Error.Kind != "decode" {
		t.Errorf("failed entry: got %+v", f)
	}

	// Stats.
	want := Stats{TotalInputBytes: 100010, TotalOutputBytes: 5000, TotalFiles: 2, Converted: 1, Failed: 1}
	if m2.Stats != want {
		t.Errorf("stats: got %+v, want %+v", m2.Stats, want)
	}
}

func TestManifestVersion(t *testing.T) {
	m := New("image/png", ".")
	if m.Version != SupportedManifestVersion {
		t.Errorf("new manifest version: got %d, want %d", m.Version, SupportedManifestVersion)
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestManifestIgnoresUnknownFields(t *testing.T) {
	// Simulate a future manifest with extra fields.
	raw := `{
		"version": 1,
		"generated_at": "2025-01-01T00:00:00Z",
		"target": "image/png",
		"source_dir": "./",
		"future_field": "should be ignored",
		"build_info": { "workers": 8, "queue_depth": 4, "new_flag": true },
		"files": {},
		"stats": { "total_input_bytes": 0, "total_output_bytes": 0, "total_files": 0, "new_stat": 42 }
	}`

	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal with unknown fields: %v", err)
	}
	if m.Version != 1 {
		t.Errorf("version: got %d", m.Version)
	}
	if m.BuildInfo == nil || m.BuildInfo.Workers != 8 {
		t.Error("build_info not parsed correctly")
	}
}

func writeOutput(t *testing.T, dir, rel string, data []byte) *OutputInfo {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return &OutputInfo{Type: "image/png", Size: int64(len(data)), Hash: hasher.Sum(data), Path: rel}
}

func TestCheckValid(t *testing.T) {
	dir := t.TempDir()
	m := New("image/png", "/src")
	m.Files["a.gif"] = Entry{Source: SourceInfo{Type: "image/gif", Size: 3}, Output: writeOutput(t, dir, "a.1.png", []byte("aaa"))}
	m.Files["sub/b.gif"] = Entry{Source: SourceInfo{Type: "image/gif", Size: 3}, Output: writeOutput(t, dir, "sub/b.2.png", []byte("bb"))}
	m.Files["c.gif"] = Entry{Source: SourceInfo{Type: "image/gif", Size: 1}, Error: &ErrorInfo{Kind: "decode", Message: "bad"}}
	m.ComputeStats()

	if errs := Check(m, dir); len(errs) != 0 {
		t.Errorf("expected valid manifest, got %v", errs)
	}
}

func TestCheckProblems(t *testing.T) {
	dir := t.TempDir()
	good := writeOutput(t, dir, "a.png", []byte("aaa"))

	tampered := writeOutput(t, dir, "t.png", []byte("xyz"))
	tampered.Hash = hasher.Sum([]byte("abc"))

	short := writeOutput(t, dir, "s.png", []byte("s"))
	short.Size = 99

	missing := &OutputInfo{Type: "image/png", Size: 1, Hash: "00", Path: "gone.png"}

	m := New("image/png", "/src")
	m.Version = 7
	m.Files["a"] = Entry{Source: SourceInfo{Type: "image/gif"}, Output: good}
	m.Files["b"] = Entry{Source: SourceInfo{Type: "image/gif"}, Output: good}
	m.Files["c"] = Entry{Source: SourceInfo{Type: "image/gif"}}
	m.Files["d"] = Entry{Source: SourceInfo{Type: "image/gif"}, Output: good, Error: &ErrorInfo{Kind: "io"}}
	m.Files["e"] = Entry{Source: SourceInfo{Type: "image/gif"}, Output: tampered}
	m.Files["f"] = Entry{Source: SourceInfo{Type: "image/gif"}, Output: short}
	m.Files["g"] = Entry{Source: SourceInfo{Type: "image/gif"}, Output: missing}
	m.Files["h"] = Entry{Error: &ErrorInfo{}}

	errs := Check(m, dir)
	want := []string{
		"unsupported manifest version",
		`file "b": duplicate output path`,
		`file "c": neither output nor error`,
		`file "d": both output and error`,
		`file "e": hash mismatch`,
		`file "f": size mismatch`,
		`file "g": output not found`,
		`file "h": missing source type`,
		`file "h": error without kind`,
		"stats mismatch",
	}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors, want %d: %v", len(errs), len(want), errs)
	}
	for i, w := range want {
		if !strings.Contains(errs[i], w) {
			t.Errorf("errs[%d] = %q, want it to contain %q", i, errs[i], w)
		}
	}
}
