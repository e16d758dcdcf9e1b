package worker

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"

	"github.com/tomvoet/imgconv/internal/protocol"
)

// Pool spreads jobs over a fixed set of Workers. Each worker still runs one
// job at a time.
type Pool struct {
	workers []*Worker
	next    atomic.Uint32
}

// NewPool starts n workers, each with its own codec from newCodec.
func NewPool(n int, newCodec func() Codec, opts ...Option) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{workers: make([]*Worker, n)}
	for i := range p.workers {
		p.workers[i] = NewWorker(newCodec(), opts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Dispatch hands req to the least loaded worker, breaking ties round-robin.
// It returns ErrQueueFull only when every worker is full.
func (p *Pool) Dispatch(ctx context.Context, req protocol.Request) (*Job, error) {
	n := len(p.workers)
	start := int((p.next.Add(1) - 1) % uint32(n))

	type candidate struct {
		w    *Worker
		load int
	}
	order := make([]candidate, 0, n)
	for i := 0; i < n; i++ {
		w := p.workers[(start+i)%n]
		order = append(order, candidate{w, w.Load()})
	}
	slices.SortStableFunc(order, func(a, b candidate) int { return a.load - b.load })

	for _, c := range order {
		job, err := c.w.Dispatch(ctx, req)
		if errors.Is(err, ErrQueueFull) {
			continue
		}
		return job, err
	}
	return nil, ErrQueueFull
}

// Close closes every worker.
func (p *Pool) Close() error {
	for _, w := range p.workers {
		w.Close()
	}
	return nil
}
