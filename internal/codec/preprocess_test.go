package codec

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareDropsAlphaForOpaqueTargets(t *testing.T) {
	src := testImage(4, 3, 0x40)
	for target := range opaqueTargets {
		out := prepare(src, "image/png", target)
		assert.Equal(t, image.Rect(0, 0, 4, 3), out.Bounds())
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				_, _, _, a := out.At(x, y).RGBA()
				assert.Equal(t, uint32(0xffff), a, "%s at %d,%d", target, x, y)
			}
		}
	}
}

func TestPrepareKeepsAlphaElsewhere(t *testing.T) {
	src := testImage(4, 3, 0x40)
	assert.Same(t, src, prepare(src, "image/png", "image/png").(*image.NRGBA))
}

func TestPrepareFlattensHDR(t *testing.T) {
	src := toHDR(testImage(3, 2, 0xff))
	out := prepare(src, "image/vnd.radiance", "image/png")
	assert.IsType(t, &image.RGBA{}, out)
	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())

	assert.Equal(t, src, prepare(src, "image/vnd.radiance", "image/vnd.radiance"))
}

func TestFitIcon(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want image.Rectangle
	}{
		{"wide downscale", 1024, 512, image.Rect(0, 0, 256, 128)},
		{"tall downscale", 300, 600, image.Rect(0, 0, 128, 256)},
		{"small upscale", 16, 16, image.Rect(0, 0, 256, 256)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := prepare(testImage(tt.w, tt.h, 0xff), "image/png", "image/x-icon")
			assert.Equal(t, tt.want, out.Bounds())
		})
	}
}

func TestSniff(t *testing.T) {
	assert.Equal(t, "image/png", sniff(pngBytes(t, testImage(2, 2, 0xff))))
	assert.Equal(t, "image/svg+xml", sniff([]byte(testSVG)))
	assert.Equal(t, "", sniff([]byte("plain text")))
}
