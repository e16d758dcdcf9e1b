package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomvoet/imgconv/internal/format"
)

const appName = "imgconv"

type Config struct {
	Workers    int    `koanf:"workers" validate:"gte=1,lte=256"`
	QueueDepth int    `koanf:"queue_depth" validate:"gte=0,lte=1024"`
	Isolate    bool   `koanf:"isolate"`    // run conversions in a child process
	OutputDir  string `koanf:"output_dir"` // empty means next to the input

	// Quality per output format extension, e.g. jpeg = 85.
	Quality map[string]int `koanf:"quality" validate:"dive,gte=1,lte=100"`

	SVG   SVGConfig   `koanf:"svg"`
	AVIF  AVIFConfig  `koanf:"avif"`
	Minio MinioConfig `koanf:"minio"`
}

// AVIFConfig locates the external AVIF encoder.
type AVIFConfig struct {
	Path  string `koanf:"path"` // empty means look up avifenc on $PATH
	Speed int    `koanf:"speed" validate:"gte=0,lte=10"`
}

// SVGConfig is the default raster size for vector input.
type SVGConfig struct {
	Width  uint32 `koanf:"width" validate:"gte=1,lte=16384"`
	Height uint32 `koanf:"height" validate:"gte=1,lte=16384"`
}

// MinioConfig enables uploading results to object storage when Endpoint
// is set.
type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key" validate:"required_with=Endpoint"`
	SecretKey string `koanf:"secret_key" validate:"required_with=Endpoint"`
	Bucket    string `koanf:"bucket" validate:"required_with=Endpoint"`
	Prefix    string `koanf:"prefix"`
	SSL       bool   `koanf:"ssl"`
}

var validate = validator.New()

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Workers:    min(runtime.NumCPU(), 256),
		QueueDepth: 4,
		Quality:    map[string]int{},
		SVG:        SVGConfig{Width: 100, Height: 100},
		AVIF:       AVIFConfig{Speed: 6},
	}
}

// Load reads the config files in order of priority (last wins) and then
// explicit, if non-empty. A missing explicit file is an error; missing
// search-path files are skipped.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}
	if explicit != "" {
		if err := k.Load(file.Provider(explicit), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", explicit, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.OutputDir = expandPath(cfg.OutputDir)
	cfg.AVIF.Path = expandPath(cfg.AVIF.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and that quality keys name output formats.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for ext := range c.Quality {
		if _, ok := c.qualityMime(ext); !ok {
			return fmt.Errorf("invalid config: quality for unknown format %q", ext)
		}
	}
	return nil
}

// QualityByMime returns the [quality] table keyed by output MIME type.
func (c *Config) QualityByMime() map[string]int {
	out := make(map[string]int, len(c.Quality))
	for ext, q := range c.Quality {
		if mime, ok := c.qualityMime(ext); ok {
			out[mime] = q
		}
	}
	return out
}

func (c *Config) qualityMime(key string) (string, bool) {
	return format.ParseTarget(key)
}

// HasMinio returns true if uploads to object storage are configured.
func (c *Config) HasMinio() bool {
	return c.Minio.Endpoint != ""
}

// Path returns where imgconv looks for its user config file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func searchPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/imgconv/config.toml
		Path(),
		// 2. ./imgconv.toml (pwd, highest priority)
		appName + ".toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
