package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViewBox(t *testing.T) {
	d, err := FromViewBox("0 0 640 480")
	require.NoError(t, err)
	assert.Equal(t, 640.0, d.Width)
	assert.Equal(t, 480.0, d.Height)
	assert.InDelta(t, 640.0/480.0, d.AspectRatio(), 1e-12)
}

func TestViewBoxOf(t *testing.T) {
	d, err := ViewBoxOf([]byte(`<?xml version="1.0"?>
<!-- badge -->
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 32"><rect width="64" height="32"/></svg>`))
	require.NoError(t, err)
	assert.Equal(t, NewDimensions(64, 32), d)

	_, err = ViewBoxOf([]byte(`<svg width="10" height="10"></svg>`))
	assert.Error(t, err)
	_, err = ViewBoxOf([]byte("not xml"))
	assert.Error(t, err)
}

func TestSVGSize(t *testing.T) {
	wide := NewDimensions(64, 32)
	def := SVG{Width: 100, Height: 100}
	tests := []struct {
		name          string
		d             Dimensions
		width, height uint32
		want          SVG
	}{
		{"both given", wide, 30, 40, SVG{Width: 30, Height: 40}},
		{"height from width", wide, 200, 0, SVG{Width: 200, Height: 100}},
		{"width from height", wide, 0, 50, SVG{Width: 100, Height: 50}},
		{"never below one pixel", NewDimensions(1000, 1), 10, 0, SVG{Width: 10, Height: 1}},
		{"neither given", wide, 0, 0, def},
		{"unknown size", Dimensions{}, 0, 70, SVG{Width: 100, Height: 70}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.SVGSize(tt.width, tt.height, def))
		})
	}
}

func TestFromViewBoxIgnoresOrigin(t *testing.T) {
	d, err := FromViewBox("-10,5.5, 24.5 12")
	require.NoError(t, err)
	assert.Equal(t, NewDimensions(24.5, 12), d)
}

func TestFromViewBoxErrors(t *testing.T) {
	for _, vb := range []string{"", "0 0 10", "0 0 10 20 30", "0 0 ten 20"} {
		_, err := FromViewBox(vb)
		assert.Error(t, err, "viewBox %q", vb)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		d          Dimensions
		maxW, maxH float64
		want       Dimensions
	}{
		{"wide shrinks to width", NewDimensions(200, 100), 100, 100, NewDimensions(100, 50)},
		{"tall shrinks to height", NewDimensions(50, 200), 100, 100, NewDimensions(25, 100)},
		{"small grows", NewDimensions(10, 10), 100, 50, NewDimensions(50, 50)},
		{"degenerate takes box", NewDimensions(0, 10), 30, 40, NewDimensions(30, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.d.Fit(tt.maxW, tt.maxH)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
		})
	}
}

func TestSVGDimensions(t *testing.T) {
	assert.Equal(t, NewDimensions(100, 100), DefaultSVG.Dimensions())
}
