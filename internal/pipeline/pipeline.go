// Package pipeline converts every image in a directory tree to one target
// format through a worker dispatcher and records the outcome in a manifest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/manifest"
	"github.com/tomvoet/imgconv/internal/settings"
	"github.com/tomvoet/imgconv/internal/sink"
	"github.com/tomvoet/imgconv/internal/worker"
)

// Config holds all parameters for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Target    string // output MIME type
	Settings  settings.Settings
	// SettingsFor, if set, picks the settings per source MIME type and
	// takes precedence over Settings.
	SettingsFor func(inputType string, data []byte) settings.Settings

	Dispatcher worker.Dispatcher
	// Sink receives outputs. Defaults to a FileSink on OutputDir.
	Sink sink.Sink
	// Concurrency bounds the jobs in flight. Defaults to NumCPU.
	Concurrency int

	// BuildInfo is copied into the manifest.
	BuildInfo *manifest.BuildInfo
	Log       logrus.FieldLogger
}

// Pipeline orchestrates a batch conversion.
type Pipeline struct {
	cfg Config
	log logrus.FieldLogger
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Sink == nil {
		cfg.Sink = sink.FileSink{Dir: cfg.OutputDir}
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{cfg: cfg, log: log.WithField("component", "pipeline")}
}

// Run converts every discovered image and returns the manifest. Individual
// failures are recorded in the manifest; Run fails only if nothing was
// found, every file failed, or ctx ended.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	if p.cfg.Dispatcher == nil {
		return nil, errors.New("pipeline: no dispatcher")
	}

	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.InputDir, p.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	p.log.Debugf("found %d images", len(sources))

	// Step 2: Convert in parallel.
	results := make([]result, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Concurrency)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			p.log.Debugf("converting: %s", s.RelPath)
			results[idx] = p.convert(ctx, s)
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: Collect results into manifest.
	m := manifest.New(p.cfg.Target, p.cfg.InputDir)
	m.BuildInfo = p.cfg.BuildInfo

	var failed int
	for i, r := range results {
		m.Files[sources[i].RelPath] = r.entry
		if r.entry.Error != nil {
			failed++
			p.log.WithField("kind", r.entry.Error.Kind).Errorf("%s: %s", sources[i].RelPath, r.entry.Error.Message)
		}
	}
	m.ComputeStats()

	if failed == len(sources) {
		return m, fmt.Errorf("all %d images failed to convert", failed)
	}
	if failed > 0 {
		p.log.Warnf("%d of %d images had errors", failed, len(sources))
	}
	return m, nil
}
