// Package settings defines the per-conversion options that travel with a
// request. Settings is a tagged union: the JSON form carries a "type" field
// and only the fields of that variant.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Variant tags.
const (
	KindSVG   = "svg"
	KindLossy = "lossy"
)

// ErrUnknownKind is returned by Decode for an unrecognised "type" tag.
var ErrUnknownKind = errors.New("unknown settings type")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Settings is implemented by every variant.
type Settings interface {
	Kind() string
}

// SVG sets the raster size a vector input is rendered into.
type SVG struct {
	Width  uint32 `json:"width" validate:"gte=1,lte=16384"`
	Height uint32 `json:"height" validate:"gte=1,lte=16384"`
}

// DefaultSVG is used when a vector input arrives without SVG settings.
var DefaultSVG = SVG{Width: 100, Height: 100}

func (SVG) Kind() string { return KindSVG }

// Dimensions returns the raster target as Dimensions.
func (s SVG) Dimensions() Dimensions {
	return NewDimensions(float64(s.Width), float64(s.Height))
}

// Lossy sets the encoder quality for lossy output formats.
type Lossy struct {
	Quality int `json:"quality" validate:"gte=1,lte=100"`
}

func (Lossy) Kind() string { return KindLossy }

// Validate checks the field constraints of s. A nil s is valid.
func Validate(s Settings) error {
	if s == nil {
		return nil
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%s settings: %w", s.Kind(), err)
	}
	return nil
}

// Marshal encodes s with its "type" tag. A nil s encodes as null.
func Marshal(s Settings) ([]byte, error) {
	switch v := s.(type) {
	case nil:
		return []byte("null"), nil
	case SVG:
		type plain SVG
		return json.Marshal(struct {
			Type string `json:"type"`
			plain
		}{KindSVG, plain(v)})
	case *SVG:
		return Marshal(*v)
	case Lossy:
		type plain Lossy
		return json.Marshal(struct {
			Type string `json:"type"`
			plain
		}{KindLossy, plain(v)})
	case *Lossy:
		return Marshal(*v)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind())
	}
}

// Decode parses a tagged settings object. Empty input and JSON null yield
// nil settings.
func Decode(raw []byte) (Settings, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	var s Settings
	switch tag.Type {
	case KindSVG:
		var v SVG
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("parse svg settings: %w", err)
		}
		s = v
	case KindLossy:
		var v Lossy
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("parse lossy settings: %w", err)
		}
		s = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag.Type)
	}

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// SVGOrDefault returns s as SVG settings, or DefaultSVG if s is another
// variant or nil.
func SVGOrDefault(s Settings) SVG {
	switch v := s.(type) {
	case SVG:
		return v
	case *SVG:
		if v != nil {
			return *v
		}
	}
	return DefaultSVG
}

// QualityOr returns the quality carried by Lossy settings, or def.
func QualityOr(s Settings, def int) int {
	switch v := s.(type) {
	case Lossy:
		return v.Quality
	case *Lossy:
		if v != nil {
			return v.Quality
		}
	}
	return def
}
