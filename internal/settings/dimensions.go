package settings

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimensions is a width/height pair, typically the intrinsic size of a
// vector image.
type Dimensions struct {
	Width  float64
	Height float64
}

func NewDimensions(width, height float64) Dimensions {
	return Dimensions{Width: width, Height: height}
}

// FromViewBox parses an SVG viewBox ("min-x min-y width height") and keeps
// the width and height. Components may be separated by whitespace and/or
// commas.
func FromViewBox(viewBox string) (Dimensions, error) {
	fields := strings.FieldsFunc(viewBox, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return Dimensions{}, fmt.Errorf("viewBox %q: want 4 components, got %d", viewBox, len(fields))
	}

	var vals [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Dimensions{}, fmt.Errorf("viewBox %q: component %d: %w", viewBox, i, err)
		}
		vals[i] = v
	}
	return NewDimensions(vals[2], vals[3]), nil
}

// AspectRatio returns width / height.
func (d Dimensions) AspectRatio() float64 {
	return d.Width / d.Height
}

// ViewBoxOf returns the viewBox size of the root element of an SVG
// document.
func ViewBoxOf(data []byte) (Dimensions, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return Dimensions{}, fmt.Errorf("svg root element: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "viewBox" {
				return FromViewBox(a.Value)
			}
		}
		return Dimensions{}, errors.New("svg root element has no viewBox")
	}
}

// SVGSize completes a requested raster size for a drawing of size d. A zero
// side is derived from the other one and d's aspect ratio; if that is not
// possible it is taken from def.
func (d Dimensions) SVGSize(width, height uint32, def SVG) SVG {
	known := d.Width > 0 && d.Height > 0
	switch {
	case width > 0 && height > 0:
		return SVG{Width: width, Height: height}
	case width > 0 && known:
		return SVG{Width: width, Height: side(float64(width) / d.AspectRatio())}
	case height > 0 && known:
		return SVG{Width: side(float64(height) * d.AspectRatio()), Height: height}
	}
	s := def
	if width > 0 {
		s.Width = width
	}
	if height > 0 {
		s.Height = height
	}
	return s
}

func side(v float64) uint32 {
	return uint32(max(1, math.Round(v)))
}

// Fit scales d to the largest size that fits within maxW x maxH while
// keeping the aspect ratio. Either side may grow or shrink.
func (d Dimensions) Fit(maxW, maxH float64) Dimensions {
	if d.Width <= 0 || d.Height <= 0 {
		return NewDimensions(maxW, maxH)
	}
	scale := math.Min(maxW/d.Width, maxH/d.Height)
	return NewDimensions(d.Width*scale, d.Height*scale)
}
