// Package format holds the table of image formats imgconv knows about and
// resolves which of them a user-supplied file is.
package format

import "strings"

// Fallback is returned by Resolve when a file's format cannot be determined.
// Rejecting the content is left to the codec.
const Fallback = "application/octet-stream"

// Entry maps a MIME type to its canonical file extension (without dot).
type Entry struct {
	MimeType  string
	Extension string
}

// outputTable lists every format the codec may be asked to produce.
// Order matters: Resolve returns the first matching extension.
var outputTable = [...]Entry{
	{"image/jpeg", "jpeg"},
	{"image/png", "png"},
	{"image/webp", "webp"},
	{"image/gif", "gif"},
	{"image/bmp", "bmp"},
	{"image/tiff", "tiff"},
	{"image/x-icon", "ico"},
	{"image/avif", "avif"},
	{"image/farbfeld", "ff"},
	{"image/vnd.radiance", "hdr"},
	{"image/x-exr", "exr"},
	{"image/x-qoi", "qoi"},
	{"image/x-targa", "tga"},
	{"image/x-portable-anymap", "pnm"},
}

// decodeOnlyTable lists formats that can be read but never written.
var decodeOnlyTable = [...]Entry{
	{"image/svg+xml", "svg"},
}

// unsniffable are extensions added to the accept filter because browsers and
// filesystems usually report no MIME type for them.
var unsniffable = [...]string{"ff", "hdr", "qoi", "tga", "pnm"}

// Output returns a copy of the output-capable table.
func Output() []Entry {
	out := make([]Entry, len(outputTable))
	copy(out, outputTable[:])
	return out
}

// Input returns a copy of the input-capable table: the output table followed
// by decode-only formats.
func Input() []Entry {
	in := make([]Entry, 0, len(outputTable)+len(decodeOnlyTable))
	in = append(in, outputTable[:]...)
	in = append(in, decodeOnlyTable[:]...)
	return in
}

// AcceptFilter returns the file-picker accept string: a generic image
// wildcard plus extensions for formats that are not MIME-sniffable.
func AcceptFilter() string {
	parts := make([]string, 0, len(unsniffable)+1)
	parts = append(parts, "image/*")
	for _, ext := range unsniffable {
		parts = append(parts, "."+ext)
	}
	return strings.Join(parts, ",")
}

// ExtensionFor returns the canonical extension for an input-capable MIME type.
func ExtensionFor(mimeType string) (string, bool) {
	for _, e := range outputTable {
		if e.MimeType == mimeType {
			return e.Extension, true
		}
	}
	for _, e := range decodeOnlyTable {
		if e.MimeType == mimeType {
			return e.Extension, true
		}
	}
	return "", false
}

// IsOutput reports whether mimeType can be produced.
func IsOutput(mimeType string) bool {
	for _, e := range outputTable {
		if e.MimeType == mimeType {
			return true
		}
	}
	return false
}

// IsInput reports whether mimeType can be read.
func IsInput(mimeType string) bool {
	_, ok := ExtensionFor(mimeType)
	return ok
}

// ParseTarget accepts either a MIME type ("image/png") or an extension with
// or without a leading dot ("png", ".png") and returns the output MIME type.
// "jpg" and "tif" are accepted as aliases.
func ParseTarget(s string) (string, bool) {
	if IsOutput(s) {
		return s, true
	}
	ext := strings.TrimPrefix(strings.ToLower(s), ".")
	switch ext {
	case "jpg":
		ext = "jpeg"
	case "tif":
		ext = "tiff"
	}
	for _, e := range outputTable {
		if e.Extension == ext {
			return e.MimeType, true
		}
	}
	return "", false
}

// Duplicates returns extensions that occur more than once in entries, in
// order of their second occurrence.
func Duplicates(entries []Entry) []string {
	seen := make(map[string]bool, len(entries))
	var dups []string
	for _, e := range entries {
		if seen[e.Extension] {
			dups = append(dups, e.Extension)
			continue
		}
		seen[e.Extension] = true
	}
	return dups
}
