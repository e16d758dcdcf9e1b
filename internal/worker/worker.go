package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/protocol"
)

type task struct {
	req protocol.Request
	job *Job
}

// Worker runs jobs one at a time on its own goroutine with its own codec.
// Jobs dispatched while it is busy wait in a bounded FIFO mailbox.
type Worker struct {
	exec *Executor
	log  logrus.FieldLogger

	mu       sync.Mutex
	closed   bool
	capacity int32
	mailbox  chan task
	stopping atomic.Bool
	load     atomic.Int32
	done     chan struct{}
}

// NewWorker starts a worker that owns c. c must not be shared with another
// worker.
func NewWorker(c Codec, opts ...Option) *Worker {
	o := buildOptions(opts)
	w := &Worker{
		exec: NewExecutor(c, opts...),
		log:  o.logger.WithField("component", "worker"),
		// One slot for the running job plus the queue.
		capacity: int32(o.queueDepth + 1),
		mailbox:  make(chan task, o.queueDepth+1),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// Dispatch queues req and returns its job. A request without a JobID gets
// one. It fails with ErrQueueFull when the mailbox is full and ErrClosed
// after Close. req.InputFile belongs to the worker from here on.
func (w *Worker) Dispatch(ctx context.Context, req protocol.Request) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	job := newJob(req.JobID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if w.load.Load() >= w.capacity {
		return nil, ErrQueueFull
	}
	w.load.Add(1)
	w.mailbox <- task{req: req, job: job}
	return job, nil
}

// Load returns the number of jobs queued or running.
func (w *Worker) Load() int { return int(w.load.Load()) }

// State returns the executor state of the current or last job.
func (w *Worker) State() State { return w.exec.State() }

// Close stops accepting jobs, lets the running job finish and fails the
// queued ones with an io error. It blocks until the worker goroutine exits.
func (w *Worker) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		w.stopping.Store(true)
		close(w.mailbox)
	}
	w.mu.Unlock()
	<-w.done
	return nil
}

func (w *Worker) loop() {
	defer close(w.done)
	for t := range w.mailbox {
		if w.stopping.Load() {
			failJob(t.job, protocol.NewErrorf(protocol.KindIO, "worker closed before job %s started", t.job.ID()))
		} else {
			w.exec.Execute(t.req, t.job.deliver)
		}
		w.load.Add(-1)
	}
	w.log.Debug("worker stopped")
}
