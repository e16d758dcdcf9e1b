package codec

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/tomvoet/imgconv/internal/settings"
)

// rasterizeSVG renders an SVG document onto a transparent canvas of exactly
// s.Width x s.Height pixels. The drawing is scaled to fit the canvas with
// its aspect ratio kept and anchored at the top-left corner.
func rasterizeSVG(data []byte, s settings.SVG) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: svg: %v", ErrDecode, err)
	}

	canvas := s.Dimensions()
	src := settings.NewDimensions(icon.ViewBox.W, icon.ViewBox.H)
	if src.Width <= 0 || src.Height <= 0 {
		src = canvas
	}
	fit := src.Fit(canvas.Width, canvas.Height)

	w, h := int(s.Width), int(s.Height)
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, math.Round(fit.Width), math.Round(fit.Height))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return rgba, nil
}
