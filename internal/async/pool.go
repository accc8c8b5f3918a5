package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPoolClosed is returned when work is submitted after Shutdown.
var ErrPoolClosed = errors.New("async: pool is shut down")

// Pool runs submitted tasks on a fixed number of workers.
type Pool struct {
	logger  *slog.Logger
	name    string
	workers int

	ch   chan func()
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.ch = make(chan func(), n)
		}
	}
}

func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		logger:  logger,
		name:    "pool",
		workers: 4,
		ch:      make(chan func(), 64),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("async.worker.started", "pool", p.name, "worker_id", workerID)
				for task := range p.ch {
					task()
				}
				p.logger.Debug("async.worker.stopped", "pool", p.name, "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Submit queues task, blocking while the queue is full until ctx is done.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.ch <- task:
		return nil
	default:
	}
	p.logger.Warn("async.queue_full", "pool", p.name)
	select {
	case p.ch <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work and waits for queued tasks to finish or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("async.shutdown_interrupted", "pool", p.name)
	case <-done:
		p.logger.Info("async.shutdown_complete", "pool", p.name)
	}
}

// Do runs fn on p and waits for its result. The caller stops waiting when ctx
// is done; fn still receives ctx and should honour cancellation. A nil pool runs fn inline.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}
	type result struct {
		v   T
		err error
	}
	out := make(chan result, 1)
	err := p.Submit(ctx, func() {
		v, err := fn(ctx)
		out <- result{v: v, err: err}
	})
	if err != nil {
		var zero T
		return zero, err
	}
	select {
	case r := <-out:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
