package codec

import (
	"fmt"
	"strings"

	"github.com/tomvoet/imgconv/internal/format"
)

// Registry holds the available encoders keyed by output MIME type.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry from the given encoders, keeping only the
// available ones. With no arguments it uses the built-in encoders plus
// avifenc from $PATH if it is installed.
func NewRegistry(encoders ...Encoder) *Registry {
	if len(encoders) == 0 {
		encoders = append(builtinEncoders(), NewAVIFEncoder("", DefaultAVIFSpeed))
	}
	r := &Registry{encoders: make(map[string]Encoder)}
	for _, enc := range encoders {
		if enc.Available() {
			r.encoders[enc.MimeType()] = enc
		}
	}
	return r
}

// Get returns the encoder for mimeType, or nil if none is available.
func (r *Registry) Get(mimeType string) Encoder {
	return r.encoders[mimeType]
}

// Available returns the MIME types that can be produced, in format table
// order.
func (r *Registry) Available() []string {
	var result []string
	for _, e := range format.Output() {
		if _, ok := r.encoders[e.MimeType]; ok {
			result = append(result, e.MimeType)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	var exts []string
	for _, m := range r.Available() {
		ext, _ := format.ExtensionFor(m)
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(exts, ", "))
}
