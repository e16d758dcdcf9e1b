package pipeline

import (
	"context"
	"errors"
	"os"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/format"
	"github.com/tomvoet/imgconv/internal/hasher"
	"github.com/tomvoet/imgconv/internal/manifest"
	"github.com/tomvoet/imgconv/internal/protocol"
	"github.com/tomvoet/imgconv/internal/worker"
)

// retryDelay is how long a job waits before re-dispatching to a full
// dispatcher.
const retryDelay = 5 * time.Millisecond

// maxAttempts bounds how often a request is sent when it fails with a
// retryable error.
const maxAttempts = 2

// result holds the outcome of converting one source file.
type result struct {
	entry manifest.Entry
}

func failure(entry manifest.Entry, err error) result {
	kind := protocol.KindIO
	var perr *protocol.Error
	if errors.As(err, &perr) {
		kind = perr.Kind
	}
	entry.Error = &manifest.ErrorInfo{Kind: string(kind), Message: err.Error()}
	return result{entry: entry}
}

// convert handles a single source: read, dispatch, wait, hash, save.
func (p *Pipeline) convert(ctx context.Context, src Source) result {
	entry := manifest.Entry{Source: manifest.SourceInfo{Type: src.Type, Size: src.Size}}
	start := time.Now()

	data, err := os.ReadFile(src.AbsPath)
	if err != nil {
		return failure(entry, err)
	}

	s := p.cfg.Settings
	if p.cfg.SettingsFor != nil {
		s = p.cfg.SettingsFor(src.Type, data)
	}
	req := protocol.NewRequest(data, src.Type, p.cfg.Target, s)
	log := p.log.WithField("file", src.RelPath)
	out, err := p.run(ctx, req, log)
	if err != nil {
		return failure(entry, err)
	}

	// Content hash for filename: key.hash.ext
	sum := hasher.Sum(out)
	ext, _ := format.ExtensionFor(p.cfg.Target)
	relPath := src.Key() + "." + hasher.Short(sum) + "." + ext
	if _, err := p.cfg.Sink.Save(ctx, relPath, out); err != nil {
		return failure(entry, err)
	}

	entry.Output = &manifest.OutputInfo{
		Type:       p.cfg.Target,
		Size:       int64(len(out)),
		Hash:       sum,
		Path:       path.Clean(relPath),
		DurationMS: time.Since(start).Milliseconds(),
	}
	return result{entry: entry}
}

// run dispatches req and waits for its result. A retryable failure (the
// worker could not initialize) is sent again, up to maxAttempts in total.
func (p *Pipeline) run(ctx context.Context, req protocol.Request, log logrus.FieldLogger) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		job, err := p.dispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		out, err := job.Wait(ctx, func(pr protocol.Progress) {
			log.Debugf("%3.0f%% %s", pr.Progress, pr.Message)
		})
		var perr *protocol.Error
		if err == nil || attempt >= maxAttempts || !errors.As(err, &perr) || !perr.Retryable() {
			return out, err
		}
		log.WithError(err).Warnf("attempt %d failed, retrying", attempt)
		req.JobID = ""
	}
}

// dispatch retries while the dispatcher signals backpressure.
func (p *Pipeline) dispatch(ctx context.Context, req protocol.Request) (*worker.Job, error) {
	for {
		job, err := p.cfg.Dispatcher.Dispatch(ctx, req)
		if !errors.Is(err, worker.ErrQueueFull) && !errors.Is(err, worker.ErrBusy) {
			return job, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}
