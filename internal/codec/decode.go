package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"

	"github.com/ftrvxmtrx/tga"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/jpegn"
	"github.com/mdouchement/hdr/codec/rgbe"
	ico "github.com/sergeymakinen/go-ico"
	"github.com/spakin/netpbm"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type decodeFunc func(r io.Reader) (image.Image, error)

// rasterDecoders maps a source MIME type to its decoder. SVG is handled
// separately because it needs settings.
var rasterDecoders = map[string]decodeFunc{
	"image/png": png.Decode,
	"image/jpeg": func(r io.Reader) (image.Image, error) {
		return jpegn.Decode(r, &jpegn.Options{AutoRotate: true})
	},
	"image/gif":    gif.Decode,
	"image/bmp":    bmp.Decode,
	"image/tiff":   tiff.Decode,
	"image/webp":   webp.Decode,
	"image/x-icon": ico.Decode,
	"image/x-qoi":  qoi.Decode,
	"image/x-targa": func(r io.Reader) (image.Image, error) {
		return tga.Decode(r)
	},
	"image/x-portable-anymap": func(r io.Reader) (image.Image, error) {
		return netpbm.Decode(r, nil)
	},
	"image/farbfeld":     decodeFarbfeld,
	"image/vnd.radiance": rgbe.Decode,
}

const svgMime = "image/svg+xml"

// sniffAliases maps MIME types reported by content detection onto the
// registry's keys.
var sniffAliases = map[string]string{
	"image/vnd.microsoft.icon":      "image/x-icon",
	"image/x-portable-bitmap":       "image/x-portable-anymap",
	"image/x-portable-graymap":      "image/x-portable-anymap",
	"image/x-portable-pixmap":       "image/x-portable-anymap",
	"image/x-portable-arbitrarymap": "image/x-portable-anymap",
	"image/x-tga":                   "image/x-targa",
	"image/qoi":                     "image/x-qoi",
}

// sourceKind reports how data of mimeType is read: as SVG, as a raster
// format with a decoder, or not at all.
func sourceKind(mimeType string) (raster decodeFunc, isSVG, known bool) {
	if mimeType == svgMime {
		return nil, true, true
	}
	dec, ok := rasterDecoders[mimeType]
	return dec, false, ok
}

// sniff detects the format of data from its content. It returns the
// registry MIME type or "" if the content is not a readable image.
func sniff(data []byte) string {
	if isFarbfeld(data) {
		return "image/farbfeld"
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		name := m.String()
		if alias, ok := sniffAliases[name]; ok {
			name = alias
		}
		if _, _, known := sourceKind(name); known {
			return name
		}
	}
	return ""
}

func decodeRaster(dec decodeFunc, data []byte, mimeType string) (image.Image, error) {
	img, err := dec(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, mimeType, err)
	}
	return img, nil
}
