package worker

import (
	"context"
	"fmt"

	"github.com/okian/stellaremu/internal/adapters/mq/queue"
	"github.com/okian/stellaremu/internal/domain/emulator"
)

// Enqueuer accepts jobs for the pool.
type Enqueuer interface {
	EnqueueWait(ctx context.Context, j queue.Job) error
}

// Dispatcher fans isochrone cells out to the pool through the queue and
// gathers one result per cell. It implements emulator.Runner.
type Dispatcher struct {
	queue Enqueuer
}

var _ emulator.Runner = (*Dispatcher)(nil)

func NewDispatcher(q Enqueuer) *Dispatcher {
	return &Dispatcher{queue: q}
}

// Run enqueues every cell, waiting for queue space as workers drain it, and
// gathers all replies. Results arrive in completion order. A closed queue or
// a done ctx aborts the run; cells already queued still reply into the
// buffered channel and are discarded.
func (d *Dispatcher) Run(ctx context.Context, cells []emulator.Cell) ([]emulator.CellResult, error) {
	reply := make(chan emulator.CellResult, len(cells))
	for _, c := range cells {
		if err := d.queue.EnqueueWait(ctx, queue.Job{Cell: c, Reply: reply}); err != nil {
			return nil, fmt.Errorf("enqueue cell %d: %w", c.Index, err)
		}
	}

	out := make([]emulator.CellResult, 0, len(cells))
	for range cells {
		select {
		case r := <-reply:
			out = append(out, r)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}
