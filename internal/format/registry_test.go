package format

import (
	"testing"
)

func TestOutputClosedUnderInput(t *testing.T) {
	for _, e := range Output() {
		if !IsInput(e.MimeType) {
			t.Errorf("output type %q missing from input table", e.MimeType)
		}
	}
}

func TestTablesHaveUniqueKeys(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Input() {
		if seen[e.MimeType] {
			t.Errorf("duplicate MIME type %q", e.MimeType)
		}
		seen[e.MimeType] = true
	}
	if dups := Duplicates(Output()); len(dups) > 0 {
		t.Errorf("duplicate output extensions: %v", dups)
	}
	if dups := Duplicates(Input()); len(dups) > 0 {
		t.Errorf("duplicate input extensions: %v", dups)
	}
}

func TestInputExtendsOutput(t *testing.T) {
	out := Output()
	in := Input()
	if len(in) != len(out)+1 {
		t.Fatalf("input table: got %d entries, want %d", len(in), len(out)+1)
	}
	for i := range out {
		if in[i] != out[i] {
			t.Errorf("entry %d: got %v, want %v", i, in[i], out[i])
		}
	}
	if last := in[len(in)-1]; last.MimeType != "image/svg+xml" || last.Extension != "svg" {
		t.Errorf("decode-only entry: got %v", last)
	}
	if IsOutput("image/svg+xml") {
		t.Error("svg must not be an output format")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	out := Output()
	out[0].Extension = "changed"
	if Output()[0].Extension != "jpeg" {
		t.Error("Output() exposed the underlying table")
	}
}

func TestAcceptFilter(t *testing.T) {
	want := "image/*,.ff,.hdr,.qoi,.tga,.pnm"
	if got := AcceptFilter(); got != want {
		t.Errorf("AcceptFilter() = %q, want %q", got, want)
	}
}

func TestDuplicates(t *testing.T) {
	entries := []Entry{
		{"image/a", "x"},
		{"image/b", "y"},
		{"image/c", "x"},
		{"image/d", "x"},
	}
	dups := Duplicates(entries)
	if len(dups) != 2 || dups[0] != "x" || dups[1] != "x" {
		t.Errorf("Duplicates() = %v", dups)
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"image/png", "image/png", true},
		{"png", "image/png", true},
		{".PNG", "image/png", true},
		{"jpg", "image/jpeg", true},
		{"tif", "image/tiff", true},
		{"qoi", "image/x-qoi", true},
		{"svg", "", false},
		{"image/svg+xml", "", false},
		{"bogus", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTarget(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTarget(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtensionFor(t *testing.T) {
	if ext, ok := ExtensionFor("image/svg+xml"); !ok || ext != "svg" {
		t.Errorf("svg: got %q, %v", ext, ok)
	}
	if _, ok := ExtensionFor(Fallback); ok {
		t.Error("fallback type must not have an extension")
	}
}
