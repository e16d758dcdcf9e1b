package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

const farbfeldMagic = "farbfeld"

// Largest farbfeld image we agree to allocate, in pixels.
const farbfeldMaxPixels = 1 << 28

// decodeFarbfeld reads a farbfeld image: magic, big-endian uint32 width and
// height, then width*height big-endian RGBA16 pixels.
func decodeFarbfeld(r io.Reader) (image.Image, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("farbfeld header: %w", err)
	}
	if string(hdr[:8]) != farbfeldMagic {
		return nil, errors.New("not a farbfeld image")
	}
	w := binary.BigEndian.Uint32(hdr[8:12])
	h := binary.BigEndian.Uint32(hdr[12:16])
	if uint64(w)*uint64(h) > farbfeldMaxPixels {
		return nil, fmt.Errorf("farbfeld image too large: %dx%d", w, h)
	}

	img := image.NewNRGBA64(image.Rect(0, 0, int(w), int(h)))
	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return nil, fmt.Errorf("farbfeld pixels: %w", err)
	}
	// Pix is big-endian NRGBA64, the same layout as the file.
	return img, nil
}

func encodeFarbfeld(w io.Writer, img image.Image) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	var hdr [16]byte
	copy(hdr[:], farbfeldMagic)
	binary.BigEndian.PutUint32(hdr[8:], uint32(b.Dx()))
	binary.BigEndian.PutUint32(hdr[12:], uint32(b.Dy()))
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	var px [8]byte
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			binary.BigEndian.PutUint16(px[0:], c.R)
			binary.BigEndian.PutUint16(px[2:], c.G)
			binary.BigEndian.PutUint16(px[4:], c.B)
			binary.BigEndian.PutUint16(px[6:], c.A)
			if _, err := bw.Write(px[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func isFarbfeld(data []byte) bool {
	return bytes.HasPrefix(data, []byte(farbfeldMagic))
}
