package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Pool implements InferencePool
var _ driven.InferencePool = (*Pool)(nil)

// job is one submitted call and the channel its result goes to
type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Pool is a fixed set of goroutines fed by a bounded queue.
// Submissions beyond workers+queue are rejected immediately.
type Pool struct {
	jobs   chan job
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	workers int
}

// PoolConfig holds configuration for the inference pool.
type PoolConfig struct {
	Workers   int // Concurrent inference calls
	QueueSize int // Calls allowed to wait for a worker
	Logger    *slog.Logger
}

// NewPool starts the pool's workers.
func NewPool(cfg PoolConfig) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		jobs:    make(chan job, queueSize),
		logger:  logger,
		workers: workers,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}

	logger.Info("inference pool started", "workers", workers, "queue_size", queueSize)
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		// The caller may have given up while the job was queued
		if err := j.ctx.Err(); err != nil {
			j.done <- err
			continue
		}
		j.done <- j.fn(j.ctx)
	}
}

// Submit queues fn and blocks until it ran or ctx is done.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return domain.ErrServiceUnavailable
	}
	select {
	case p.jobs <- j:
	default:
		p.mu.RUnlock()
		p.logger.Warn("inference pool saturated", "workers", p.workers, "queued", len(p.jobs))
		return domain.ErrPoolSaturated
	}
	p.mu.RUnlock()

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Queued returns the number of calls waiting for a worker
func (p *Pool) Queued() int {
	return len(p.jobs)
}

// Close stops accepting work and waits for queued calls to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("inference pool stopped")
}
