package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/tomvoet/imgconv/internal/protocol"
)

var (
	// ErrQueueFull is returned by Dispatch when the worker cannot accept
	// another job. Callers should retry later or use another worker.
	ErrQueueFull = errors.New("worker queue full")
	// ErrBusy is returned by Process.Dispatch while a job is in flight.
	ErrBusy   = errors.New("worker busy")
	ErrClosed = errors.New("worker closed")
)

// Dispatcher accepts conversion requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req protocol.Request) (*Job, error)
	Close() error
}

// Job is the consumer's handle on a dispatched request.
//
// The consumer must either drain Envelopes, call Wait, or call Abandon;
// otherwise the worker stalls once the envelope buffer is full.
type Job struct {
	id        string
	envelopes chan protocol.Envelope
	abandoned chan struct{}
	once      sync.Once
}

const envelopeBuffer = 8

func newJob(id string) *Job {
	return &Job{
		id:        id,
		envelopes: make(chan protocol.Envelope, envelopeBuffer),
		abandoned: make(chan struct{}),
	}
}

func (j *Job) ID() string { return j.id }

// Envelopes returns the job's envelopes. The channel is closed after the
// terminal envelope.
func (j *Job) Envelopes() <-chan protocol.Envelope { return j.envelopes }

// Abandon discards every envelope not yet received. The conversion itself
// runs to completion on the worker.
func (j *Job) Abandon() {
	j.once.Do(func() { close(j.abandoned) })
}

// deliver hands env to the consumer, or drops it if the job was abandoned.
// The channel is closed after a terminal envelope.
func (j *Job) deliver(env protocol.Envelope) {
	select {
	case j.envelopes <- env:
	case <-j.abandoned:
	}
	if env.Terminal() {
		close(j.envelopes)
	}
}

// Wait blocks until the job ends and returns the converted bytes. Progress
// envelopes are passed to onProgress, which may be nil. A failed job
// returns a *protocol.Error. If ctx ends first, the job is abandoned and
// ctx.Err() is returned.
func (j *Job) Wait(ctx context.Context, onProgress func(protocol.Progress)) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			j.Abandon()
			return nil, ctx.Err()
		case env, ok := <-j.envelopes:
			if !ok {
				return nil, protocol.NewErrorf(protocol.KindIO, "job %s ended without a result", j.id)
			}
			switch env.Type {
			case protocol.MessageProgress:
				if onProgress != nil && env.Progress != nil {
					onProgress(*env.Progress)
				}
			case protocol.MessageDone:
				if env.Response == nil {
					return nil, nil
				}
				return env.Response.Data, nil
			case protocol.MessageError:
				if err := env.Err(); err != nil {
					return nil, err
				}
				return nil, protocol.NewErrorf(protocol.KindIO, "job %s failed without detail", j.id)
			}
		}
	}
}

// failJob ends a job that never reached an executor.
func failJob(j *Job, err *protocol.Error) {
	j.deliver(protocol.NewError(j.id, err))
}
