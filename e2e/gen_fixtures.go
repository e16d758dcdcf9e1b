//go:build ignore

// gen_fixtures creates small test images for the imgconv smoke test: raster
// inputs in several formats, an SVG, a corrupt file and one with an
// unrecognised extension that must be sniffed.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/xfmoulet/qoi"
)

const badgeSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 32">
  <rect x="2" y="2" width="60" height="28" rx="6" fill="#dc3c1e"/>
  <circle cx="16" cy="16" r="8" fill="#ffffff"/>
</svg>
`

type fixture struct {
	name   string
	encode func(io.Writer) error
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]

	banner := fill(400, 225, func(x, y int) color.NRGBA {
		return color.NRGBA{R: uint8(x * 255 / 400), G: uint8(y * 255 / 225), B: 128, A: 255}
	})
	logo := fill(100, 100, func(x, _ int) color.NRGBA {
		return color.NRGBA{R: 220, G: 60, B: 30, A: uint8(x * 255 / 100)}
	})

	fixtures := []fixture{
		{"banner.jpeg", func(w io.Writer) error { return jpeg.Encode(w, banner, &jpeg.Options{Quality: 85}) }},
		// Alpha survives png and qoi; a jpeg target must flatten it.
		{"logo.png", func(w io.Writer) error { return png.Encode(w, logo) }},
		{"logo.qoi", func(w io.Writer) error { return qoi.Encode(w, logo) }},
		{"badge.svg", raw(badgeSVG)},
		// PNG bytes under an extension the registry does not know.
		{"mystery.img", func(w io.Writer) error { return png.Encode(w, banner.SubImage(image.Rect(0, 0, 32, 32))) }},
		{"broken.png", raw("not an image")},
	}
	for i := 1; i <= 3; i++ {
		card := framed(200, 150, uint8(i*60))
		fixtures = append(fixtures, fixture{
			filepath.Join("cards", fmt.Sprintf("card-%d.png", i)),
			func(w io.Writer) error { return png.Encode(w, card) },
		})
	}

	for _, f := range fixtures {
		if err := write(filepath.Join(dir, f.name), f.encode); err != nil {
			fmt.Fprintf(os.Stderr, "[gen_fixtures] %s: %v\n", f.name, err)
			os.Exit(1)
		}
	}
	fmt.Fprintf(os.Stderr, "[gen_fixtures] created %d fixtures in %s\n", len(fixtures), dir)
}

func fill(w, h int, at func(x, y int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, at(x, y))
		}
	}
	return img
}

// framed is a solid card with a 4px white border.
func framed(w, h int, base uint8) *image.NRGBA {
	return fill(w, h, func(x, y int) color.NRGBA {
		if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
			return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
	})
}

func raw(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func write(path string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
