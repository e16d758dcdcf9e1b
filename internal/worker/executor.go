// Package worker runs conversion jobs in an isolated context and reports
// them back as protocol envelopes. The isolated context is either a
// goroutine owning its own codec (Worker) or a child process speaking the
// line protocol over a pipe (Process).
package worker

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/codec"
	"github.com/tomvoet/imgconv/internal/protocol"
	"github.com/tomvoet/imgconv/internal/settings"
)

// Codec is the conversion backend an Executor drives. *codec.Codec
// implements it.
type Codec interface {
	Init() error
	Convert(input []byte, inType, outType string, progress codec.ProgressFunc, s settings.Settings) ([]byte, error)
}

// State is the lifecycle state of the job an Executor is working on.
type State int

const (
	Idle State = iota
	Initializing
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Executor runs one request at a time against a codec. Codec
// initialization happens on the first request and is remembered once it
// succeeds; a failed initialization is retried by the next request.
type Executor struct {
	codec       Codec
	classifiers []protocol.Classifier
	log         logrus.FieldLogger

	run sync.Mutex // held for the whole of Execute

	mu          sync.Mutex
	state       State
	initialized bool
}

func NewExecutor(c Codec, opts ...Option) *Executor {
	o := buildOptions(opts)
	return &Executor{
		codec:       c,
		classifiers: o.classifiers,
		log:         o.logger.WithField("component", "executor"),
	}
}

// State returns the state of the current or most recent job.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Initialized reports whether codec initialization has succeeded.
func (e *Executor) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Execute runs req to completion. emit receives zero or more PROGRESS
// envelopes followed by exactly one DONE or ERROR envelope; progress
// reported after that is dropped. Execute never panics.
func (e *Executor) Execute(req protocol.Request, emit func(protocol.Envelope)) {
	e.run.Lock()
	defer e.run.Unlock()

	log := e.log.WithField("job", req.JobID)
	e.setState(Idle)

	var (
		sendMu   sync.Mutex
		finished bool
	)
	send := func(env protocol.Envelope) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if finished {
			log.Debugf("dropping %s envelope after terminal", env.Type)
			return
		}
		if env.Terminal() {
			finished = true
		}
		emit(env)
	}
	fail := func(err *protocol.Error) {
		e.setState(Failed)
		log.WithField("kind", err.Kind).Warnf("job failed: %s", err.Detail)
		send(protocol.NewError(req.JobID, err))
	}

	defer func() {
		if r := recover(); r != nil {
			fail(protocol.NewErrorf(protocol.KindInternal, "codec panic: %v", r))
		}
	}()

	if err := req.Validate(); err != nil {
		fail(protocol.Classify(err, protocol.KindInvalidRequest))
		return
	}

	if !e.Initialized() {
		e.setState(Initializing)
		if err := e.codec.Init(); err != nil {
			fail(&protocol.Error{Kind: protocol.KindInit, Detail: fmt.Sprintf("initialize codec: %v", err)})
			return
		}
		e.mu.Lock()
		e.initialized = true
		e.mu.Unlock()
		log.Debug("codec initialized")
	}

	e.setState(Running)
	log.WithFields(logrus.Fields{"from": req.InputType, "to": req.OutputType}).Debug("converting")
	out, err := e.codec.Convert(req.InputFile, req.InputType, req.OutputType, func(percent float64, message string) {
		send(protocol.NewProgress(req.JobID, percent, message))
	}, req.Settings)
	if err != nil {
		fail(protocol.Classify(err, protocol.KindInternal, e.classifiers...))
		return
	}

	e.setState(Succeeded)
	log.Debugf("done, %d bytes", len(out))
	send(protocol.NewDone(req.JobID, out))
}
