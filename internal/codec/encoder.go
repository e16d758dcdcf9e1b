package codec

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/ftrvxmtrx/tga"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	ico "github.com/sergeymakinen/go-ico"
	"github.com/spakin/netpbm"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Encoder writes an image in one output format.
type Encoder interface {
	// MimeType returns the output format this encoder produces.
	MimeType() string

	// Encode converts the image to bytes. quality (1-100) is ignored by
	// lossless formats.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (avifenc) may not be installed.
	Available() bool
}

// DefaultQuality is used for lossy formats when neither the request nor the
// configuration names one.
const DefaultQuality = 82

func clampQuality(q int) int {
	if q <= 0 || q > 100 {
		return DefaultQuality
	}
	return q
}

// funcEncoder adapts an in-process encode function.
type funcEncoder struct {
	mime string
	fn   func(buf *bytes.Buffer, img image.Image, quality int) error
}

func (e funcEncoder) MimeType() string { return e.mime }
func (e funcEncoder) Available() bool  { return true }

func (e funcEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(64 * 1024)
	if err := e.fn(&buf, img, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// builtinEncoders are the encoders that need nothing outside the process.
func builtinEncoders() []Encoder {
	return []Encoder{
		funcEncoder{"image/jpeg", func(buf *bytes.Buffer, img image.Image, q int) error {
			return jpeg.Encode(buf, img, &jpeg.Options{Quality: clampQuality(q)})
		}},
		funcEncoder{"image/png", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return png.Encode(buf, img)
		}},
		funcEncoder{"image/webp", func(buf *bytes.Buffer, img image.Image, q int) error {
			return webp.Encode(buf, img, &webp.Options{Quality: float32(clampQuality(q))})
		}},
		funcEncoder{"image/gif", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return gif.Encode(buf, img, nil)
		}},
		funcEncoder{"image/bmp", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return bmp.Encode(buf, img)
		}},
		funcEncoder{"image/tiff", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return tiff.Encode(buf, img, &tiff.Options{Compression: tiff.Deflate})
		}},
		funcEncoder{"image/x-icon", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return ico.Encode(buf, img)
		}},
		funcEncoder{"image/x-qoi", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return qoi.Encode(buf, img)
		}},
		funcEncoder{"image/x-targa", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return tga.Encode(buf, img)
		}},
		funcEncoder{"image/x-portable-anymap", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return netpbm.Encode(buf, img, &netpbm.EncodeOptions{Format: netpbm.PPM, MaxValue: 255})
		}},
		funcEncoder{"image/farbfeld", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return encodeFarbfeld(buf, img)
		}},
		funcEncoder{"image/vnd.radiance", func(buf *bytes.Buffer, img image.Image, _ int) error {
			return rgbe.Encode(buf, toHDR(img))
		}},
	}
}

// toHDR returns img as a floating point image. 8 and 16 bit inputs map
// their full range onto [0, 1].
func toHDR(img image.Image) hdr.Image {
	if m, ok := img.(hdr.Image); ok {
		return m
	}
	b := img.Bounds()
	out := hdr.NewRGB(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out.SetRGB(x, y, hdrcolor.RGB{
				R: float64(r) / 0xffff,
				G: float64(g) / 0xffff,
				B: float64(bl) / 0xffff,
			})
		}
	}
	return out
}
