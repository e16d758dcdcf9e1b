package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/tomvoet/imgconv/internal/codec"
	"github.com/tomvoet/imgconv/internal/format"
	"github.com/tomvoet/imgconv/internal/settings"
	"github.com/tomvoet/imgconv/internal/sink"
	"github.com/tomvoet/imgconv/internal/worker"
)

// newCodec builds a codec from the loaded configuration.
func newCodec() worker.Codec {
	return codec.New(codec.Options{
		Quality:   cfg.QualityByMime(),
		AVIFPath:  cfg.AVIF.Path,
		AVIFSpeed: cfg.AVIF.Speed,
		Logger:    log,
	})
}

func workerOptions() []worker.Option {
	return []worker.Option{
		worker.WithLogger(log),
		worker.WithClassifiers(codec.Classify),
		worker.WithQueueDepth(cfg.QueueDepth),
	}
}

// childArgs re-runs this binary as a protocol worker with the same config.
func childArgs() (string, []string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", nil, fmt.Errorf("locate executable: %w", err)
	}
	args := []string{"worker"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return exe, args, nil
}

// newDispatcher returns n isolated contexts: goroutine workers behind a
// Pool, or child processes behind a Group when isolate is set.
func newDispatcher(n int, isolate bool) (worker.Dispatcher, error) {
	if n < 1 {
		n = 1
	}
	if !isolate {
		if n == 1 {
			return worker.NewWorker(newCodec(), workerOptions()...), nil
		}
		return worker.NewPool(n, newCodec, workerOptions()...), nil
	}

	exe, args, err := childArgs()
	if err != nil {
		return nil, err
	}
	procs := make([]worker.Dispatcher, n)
	for i := range procs {
		procs[i] = worker.NewProcess(exe, args, nil, worker.WithLogger(log))
	}
	if n == 1 {
		return procs[0], nil
	}
	return worker.NewGroup(procs...), nil
}

// requestSettings picks the settings variant for a conversion: SVG size for
// vector input, otherwise a quality override if one was given. When only
// one side of the SVG size is given, the other follows the viewBox.
func requestSettings(inType string, data []byte, width, height uint32, quality int) settings.Settings {
	if inType == "image/svg+xml" {
		def := settings.SVG{Width: cfg.SVG.Width, Height: cfg.SVG.Height}
		dims, err := settings.ViewBoxOf(data)
		if err != nil && (width > 0) != (height > 0) {
			log.WithError(err).Debug("cannot keep svg aspect ratio")
		}
		return dims.SVGSize(width, height, def)
	}
	if quality > 0 {
		return settings.Lossy{Quality: quality}
	}
	return nil
}

// newSink returns a FileSink on dir, mirrored to object storage when upload
// is set.
func newSink(ctx context.Context, dir string, upload bool) (sink.Sink, error) {
	files := sink.FileSink{Dir: dir}
	if !upload {
		return files, nil
	}
	if !cfg.HasMinio() {
		return nil, fmt.Errorf("--upload needs a [minio] section in the config")
	}
	m := cfg.Minio
	client, err := sink.NewMinioClient(m.Endpoint, m.AccessKey, m.SecretKey, m.SSL)
	if err != nil {
		return nil, err
	}
	store, err := sink.NewMinioSink(ctx, client, m.Bucket, m.Prefix, log)
	if err != nil {
		return nil, err
	}
	return sink.Tee{Primary: files, Mirrors: []sink.Sink{store}}, nil
}

// parseTarget resolves a --to value.
func parseTarget(to string) (string, error) {
	mime, ok := format.ParseTarget(to)
	if !ok {
		return "", fmt.Errorf("unknown output format %q (see \"imgconv formats\")", to)
	}
	return mime, nil
}
