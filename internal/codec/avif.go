package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// DefaultAVIFSpeed is the avifenc speed used when none is configured.
const DefaultAVIFSpeed = 6

// avifTool produces AVIF by running the libavif command-line encoder on a
// PNG copy of the image.
type avifTool struct {
	bin   string // resolved executable, empty if not found
	speed int
}

// NewAVIFEncoder returns an encoder that runs avifenc from path, or from
// $PATH when path is empty. speed runs from 0 (slowest) to 10.
func NewAVIFEncoder(path string, speed int) Encoder {
	if path == "" {
		path = "avifenc"
	}
	bin, err := exec.LookPath(path)
	if err != nil {
		bin = ""
	}
	return &avifTool{bin: bin, speed: speed}
}

func (t *avifTool) MimeType() string { return "image/avif" }

func (t *avifTool) Available() bool { return t.bin != "" }

func (t *avifTool) Encode(img image.Image, quality int) ([]byte, error) {
	if !t.Available() {
		return nil, fmt.Errorf("%w: avifenc not found", ErrUnsupported)
	}

	var src bytes.Buffer
	if err := png.Encode(&src, img); err != nil {
		return nil, fmt.Errorf("stage png: %w", err)
	}

	dir, err := os.MkdirTemp("", "imgconv-avif-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in, out := filepath.Join(dir, "in.png"), filepath.Join(dir, "out.avif")
	if err := os.WriteFile(in, src.Bytes(), 0o600); err != nil {
		return nil, err
	}

	cmd := exec.Command(t.bin,
		"-q", strconv.Itoa(clampQuality(quality)),
		"-s", strconv.Itoa(t.speed),
		in, out,
	)
	if msg, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("avifenc: %w: %s", err, bytes.TrimSpace(msg))
	}
	return os.ReadFile(out)
}
