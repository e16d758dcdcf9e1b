package worker

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tomvoet/imgconv/internal/codec"
	"github.com/tomvoet/imgconv/internal/protocol"
	"github.com/tomvoet/imgconv/internal/settings"
)

// fakeCodec reverses its input. Init fails once per queued initErr.
type fakeCodec struct {
	mu        sync.Mutex
	initErrs  []error
	initCalls int

	// convert overrides the default behaviour when set.
	convert func(input []byte, progress codec.ProgressFunc) ([]byte, error)

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
}

func (f *fakeCodec) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if len(f.initErrs) > 0 {
		err := f.initErrs[0]
		f.initErrs = f.initErrs[1:]
		return err
	}
	return nil
}

func (f *fakeCodec) InitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls
}

func (f *fakeCodec) Convert(input []byte, _, _ string, progress codec.ProgressFunc, _ settings.Settings) ([]byte, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	f.calls.Add(1)

	if f.convert != nil {
		return f.convert(input, progress)
	}
	progress(10, "Starting conversion")
	if bytes.Equal(input, []byte("fail")) {
		return nil, errors.New("cannot convert")
	}
	out := make([]byte, len(input))
	for i, b := range input {
		out[len(input)-1-i] = b
	}
	progress(100, "Conversion complete")
	return out, nil
}

func request(id string, input string) protocol.Request {
	return protocol.Request{
		JobID:      id,
		InputFile:  []byte(input),
		InputType:  "image/png",
		OutputType: "image/jpeg",
	}
}

// collect runs req on e and returns the emitted envelopes.
func collect(e *Executor, req protocol.Request) []protocol.Envelope {
	var envs []protocol.Envelope
	e.Execute(req, func(env protocol.Envelope) { envs = append(envs, env) })
	return envs
}

func checkSequence(jobID string, envs []protocol.Envelope) error {
	seq := protocol.Sequence{JobID: jobID}
	for _, env := range envs {
		if err := seq.Observe(env); err != nil {
			return err
		}
	}
	if !seq.Complete() {
		return errors.New("no terminal envelope")
	}
	return nil
}
