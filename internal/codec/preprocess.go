package codec

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Largest edge an ICO entry may have.
const icoMaxEdge = 256

// opaqueTargets cannot store an alpha channel.
var opaqueTargets = map[string]bool{
	"image/jpeg":              true,
	"image/x-qoi":             true,
	"image/farbfeld":          true,
	"image/x-portable-anymap": true,
	"image/x-targa":           true,
}

const hdrMime = "image/vnd.radiance"

// prepare adapts img, decoded from source, so that the encoder for target
// can write it.
func prepare(img image.Image, source, target string) image.Image {
	if source == hdrMime && target != hdrMime {
		img = toRGBA8(img)
	}
	switch {
	case opaqueTargets[target]:
		return dropAlpha(img)
	case target == "image/x-icon":
		return fitIcon(img)
	}
	return img
}

// toRGBA8 clamps a floating point image to 8 bits per channel.
func toRGBA8(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// dropAlpha returns an opaque copy of img. Alpha is discarded, not
// composited onto a background.
func dropAlpha(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// fitIcon scales img so that it fits into 256x256, keeping its aspect ratio.
// Smaller images are scaled up.
func fitIcon(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}
	if w >= h {
		return imaging.Resize(img, icoMaxEdge, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, icoMaxEdge, imaging.Lanczos)
}
