package worker

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tomvoet/imgconv/internal/protocol"
)

// Group spreads jobs over several dispatchers, typically one Process per
// CPU. Members that report ErrBusy or ErrQueueFull are skipped; if all of
// them do, Dispatch returns ErrBusy.
type Group struct {
	members []Dispatcher
	next    atomic.Uint64
}

func NewGroup(members ...Dispatcher) *Group {
	return &Group{members: members}
}

func (g *Group) Dispatch(ctx context.Context, req protocol.Request) (*Job, error) {
	n := uint64(len(g.members))
	if n == 0 {
		return nil, ErrClosed
	}
	start := g.next.Add(1) - 1
	for i := uint64(0); i < n; i++ {
		job, err := g.members[(start+i)%n].Dispatch(ctx, req)
		if errors.Is(err, ErrBusy) || errors.Is(err, ErrQueueFull) {
			continue
		}
		return job, err
	}
	return nil, ErrBusy
}

// Close closes every member and joins their errors.
func (g *Group) Close() error {
	var errs []error
	for _, m := range g.members {
		errs = append(errs, m.Close())
	}
	return errors.Join(errs...)
}
