package worker

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/stellaremu/internal/adapters/mq/queue"
	"github.com/okian/stellaremu/internal/domain/emulator"
	"github.com/okian/stellaremu/pkg/logger"
	"github.com/okian/stellaremu/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker evaluates cells and replies on each job's channel.
type InMemoryWorker struct {
	queue  Queue
	eval   emulator.CellEvaluator
	name   string
	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, eval emulator.CellEvaluator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue: q,
		eval:  eval,
		name:  "worker",
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes jobs until ctx is canceled or the queue is drained and closed.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	metrics.AddActiveWorkers(1)
	defer func() {
		metrics.AddActiveWorkers(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res := w.eval.EvaluateCell(ctx, j.Cell)
	switch {
	case res.Err != nil:
		_ = metrics.RecordIsochroneCell(metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("worker", "cell_failed")
		w.logger.Error(ctx, "cell evaluation failed",
			logger.Int("cell", j.Cell.Index),
			logger.Float64("log_mass", j.Cell.LogMass),
			logger.Float64("elapsed", j.Cell.Elapsed),
			logger.Error(res.Err),
		)
	case res.Skipped:
		_ = metrics.RecordIsochroneCell(metrics.OutcomeSkipped)
	default:
		_ = metrics.RecordIsochroneCell(metrics.OutcomeComputed)
	}
	j.Reply <- res
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A non-positive count means
// one worker per CPU.
func NewPool(workerCount int, q Queue, eval emulator.CellEvaluator) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, eval, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return shutdownCtx.Err()
		}
	}
	return nil
}
