// Package codec converts image bytes between the formats in the format
// table. It is only reached through the worker package, which owns
// initialization and turns the errors returned here into typed protocol
// errors.
package codec

import (
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/format"
	"github.com/tomvoet/imgconv/internal/protocol"
	"github.com/tomvoet/imgconv/internal/settings"
)

var (
	// ErrUnsupported means the input or output format has no decoder or
	// encoder.
	ErrUnsupported = errors.New("unsupported conversion")
	// ErrUnknownFileType means the source type was not given and could not
	// be detected from the content.
	ErrUnknownFileType = errors.New("unknown file type")
	ErrDecode          = errors.New("decode failed")
	ErrEncode          = errors.New("encode failed")
	ErrNotInitialized  = errors.New("codec not initialized")
)

// ProgressFunc receives progress in percent and a short status message.
type ProgressFunc func(percent float64, message string)

// Options configures a Codec.
type Options struct {
	// Quality holds the default encoder quality per output MIME type.
	// Lossy settings on a request take precedence.
	Quality map[string]int

	// Encoders replaces the default encoder set. Used by tests.
	Encoders []Encoder

	// AVIFPath is the avifenc executable; empty means look it up on $PATH.
	AVIFPath  string
	AVIFSpeed int

	Logger logrus.FieldLogger
}

// Codec decodes, pre-processes and re-encodes images.
type Codec struct {
	opts     Options
	log      logrus.FieldLogger
	registry *Registry
}

func New(opts Options) *Codec {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Codec{opts: opts, log: log.WithField("component", "codec")}
}

// Init validates the options and checks which encoders are available. It
// may be called again after a failure.
func (c *Codec) Init() error {
	for mime, q := range c.opts.Quality {
		if !format.IsOutput(mime) {
			return fmt.Errorf("quality for unknown output type %q", mime)
		}
		if q < 1 || q > 100 {
			return fmt.Errorf("quality for %s out of range: %d", mime, q)
		}
	}
	encoders := c.opts.Encoders
	if len(encoders) == 0 {
		speed := c.opts.AVIFSpeed
		if speed == 0 {
			speed = DefaultAVIFSpeed
		}
		encoders = append(builtinEncoders(), NewAVIFEncoder(c.opts.AVIFPath, speed))
	}
	reg := NewRegistry(encoders...)
	if len(reg.Available()) == 0 {
		return errors.New("no encoders available")
	}
	c.registry = reg
	c.log.Debugf("initialized, %s", reg)
	return nil
}

// Registry returns the encoder registry, or nil before Init.
func (c *Codec) Registry() *Registry { return c.registry }

// Convert turns input of type inType into outType. progress may be nil.
func (c *Codec) Convert(input []byte, inType, outType string, progress ProgressFunc, s settings.Settings) ([]byte, error) {
	if c.registry == nil {
		return nil, ErrNotInitialized
	}
	if progress == nil {
		progress = func(float64, string) {}
	}

	progress(10, "Starting conversion")
	enc := c.registry.Get(outType)
	if enc == nil {
		return nil, fmt.Errorf("%w: output type %q", ErrUnsupported, outType)
	}

	progress(35, "Loading image")
	img, srcType, err := c.load(input, inType, s)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"from": srcType, "to": outType}).
		Debugf("decoded %dx%d", img.Bounds().Dx(), img.Bounds().Dy())

	progress(50, "Processing image")
	img = prepare(img, srcType, outType)

	progress(70, "Converting image")
	quality := settings.QualityOr(s, c.opts.Quality[outType])
	out, err := enc.Encode(img, quality)
	if errors.Is(err, ErrUnsupported) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, outType, err)
	}

	progress(100, "Conversion complete")
	return out, nil
}

// load decodes input. A type without a decoder is detected from the
// content instead; exr and avif are known but unreadable.
func (c *Codec) load(input []byte, inType string, s settings.Settings) (image.Image, string, error) {
	dec, isSVG, known := sourceKind(inType)
	if !known {
		if format.IsInput(inType) {
			return nil, inType, fmt.Errorf("%w: input type %q", ErrUnsupported, inType)
		}
		sniffed := sniff(input)
		if sniffed == "" {
			return nil, inType, fmt.Errorf("%w: %q", ErrUnknownFileType, inType)
		}
		c.log.Debugf("detected %s for input type %q", sniffed, inType)
		inType = sniffed
		dec, isSVG, _ = sourceKind(inType)
	}

	if isSVG {
		img, err := rasterizeSVG(input, settings.SVGOrDefault(s))
		return img, inType, err
	}
	img, err := decodeRaster(dec, input, inType)
	return img, inType, err
}

// Classify maps codec errors onto protocol error kinds.
func Classify(err error) (protocol.Kind, bool) {
	switch {
	case errors.Is(err, ErrUnsupported):
		return protocol.KindUnsupported, true
	case errors.Is(err, ErrUnknownFileType), errors.Is(err, ErrDecode):
		return protocol.KindDecode, true
	case errors.Is(err, ErrEncode):
		return protocol.KindEncode, true
	case errors.Is(err, ErrNotInitialized):
		return protocol.KindInit, true
	}
	return "", false
}
