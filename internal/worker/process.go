package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/protocol"
)

// Process runs jobs in a child process that speaks the line protocol on its
// stdin and stdout (see Serve). One job is in flight at a time. The child
// is started on first use and restarted by the next Dispatch if it dies.
type Process struct {
	path string
	args []string
	env  []string
	log  logrus.FieldLogger

	// Stderr receives the child's stderr. Defaults to os.Stderr.
	Stderr io.Writer

	mu       sync.Mutex
	busy     bool
	closed   bool
	child    *child
	inflight sync.WaitGroup
}

type child struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	in    *protocol.Writer
	out   *protocol.Reader
}

// NewProcess returns a Process that runs path with args. env is appended to
// the parent's environment.
func NewProcess(path string, args []string, env []string, opts ...Option) *Process {
	o := buildOptions(opts)
	return &Process{
		path:   path,
		args:   args,
		env:    env,
		log:    o.logger.WithField("component", "process"),
		Stderr: os.Stderr,
	}
}

func (p *Process) start() (*child, error) {
	cmd := exec.Command(p.path, p.args...)
	cmd.Env = append(os.Environ(), p.env...)
	cmd.Stderr = p.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.path, err)
	}
	p.log.Debugf("started child pid %d", cmd.Process.Pid)
	return &child{
		cmd:   cmd,
		stdin: stdin,
		in:    protocol.NewWriter(stdin),
		out:   protocol.NewReader(stdout),
	}, nil
}

// Dispatch sends req to the child. It returns ErrBusy while another job is
// in flight.
func (p *Process) Dispatch(ctx context.Context, req protocol.Request) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.busy {
		return nil, ErrBusy
	}
	if p.child == nil {
		c, err := p.start()
		if err != nil {
			return nil, err
		}
		p.child = c
	}
	c := p.child
	p.busy = true
	p.inflight.Add(1)

	job := newJob(req.JobID)
	if err := c.in.Write(req); err != nil {
		p.log.WithError(err).Warn("write to child failed")
		go func() {
			defer p.inflight.Done()
			p.fail(c, job, protocol.NewErrorf(protocol.KindIO, "send job %s: %v", req.JobID, err))
		}()
		return job, nil
	}
	go p.pump(c, job)
	return job, nil
}

// pump forwards the child's envelopes for job until its terminal one.
func (p *Process) pump(c *child, job *Job) {
	defer p.inflight.Done()
	seq := protocol.Sequence{JobID: job.ID()}
	for {
		env, err := c.out.ReadEnvelope()
		if protocol.IsFrameError(err) {
			p.log.WithError(err).Warn("skipping malformed envelope")
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("worker process exited")
			}
			p.fail(c, job, protocol.NewErrorf(protocol.KindIO, "job %s: %v", job.ID(), err))
			return
		}
		if err := seq.Observe(env); err != nil {
			p.log.WithError(err).Warn("ignoring out-of-sequence envelope")
			continue
		}
		if !env.Terminal() {
			job.deliver(env)
			continue
		}
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
		p.log.Debugf("job %s: %s after %d progress updates", job.ID(), env.Type, seq.ProgressCount())
		job.deliver(env)
		return
	}
}

// fail ends job after the child broke and discards the child so the next
// Dispatch starts a fresh one.
func (p *Process) fail(c *child, job *Job, err *protocol.Error) {
	c.stdin.Close()
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	if werr := c.cmd.Wait(); werr != nil {
		p.log.WithError(werr).Debug("child exited")
	}

	p.mu.Lock()
	if p.child == c {
		p.child = nil
	}
	p.busy = false
	p.mu.Unlock()

	failJob(job, err)
}

// Close waits for the job in flight, then ends the child and waits for it to
// exit.
func (p *Process) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.inflight.Wait()

	p.mu.Lock()
	c := p.child
	p.child = nil
	p.mu.Unlock()
	if c == nil {
		return nil
	}
	c.stdin.Close()
	if err := c.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("worker process: %w", err)
		}
	}
	return nil
}
