// Package pool runs queued jobs on a fixed number of workers.
package pool

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Submit once the Pool has been closed.
var ErrClosed = errors.New("pool closed")

// Job is a unit of work. The context is cancelled when the Pool's Run context is.
type Job func(ctx context.Context)

type Options struct {
	// Workers is the number of jobs that may run at the same time.
	Workers int
	// QueueSize is the number of jobs that may wait for a worker before Submit blocks.
	QueueSize int
	Logger    *slog.Logger
	// Registerer for the Pool's metrics. Metrics are not registered if nil.
	Registerer prometheus.Registerer
}

type Pool struct {
	workers   int
	queue     chan Job
	logger    *slog.Logger
	processed prometheus.Counter

	mu     sync.RWMutex
	closed bool
}

func New(opts Options) *Pool {
	p := &Pool{
		workers: opts.Workers,
		queue:   make(chan Job, opts.QueueSize),
		logger:  opts.Logger,
	}

	factory := promauto.With(opts.Registerer)
	p.processed = factory.NewCounter(prometheus.CounterOpts{
		Name: "netcalc_jobs_processed_total",
		Help: "Number of jobs run to completion by the worker pool.",
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "netcalc_queue_depth",
		Help: "Number of jobs waiting for a worker.",
	}, func() float64 {
		return float64(len(p.queue))
	})

	return p
}

// Run the Pool's workers. Run blocks until Close is called and every queued job has finished.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("Starting worker pool", slog.Int("workers", p.workers), slog.Int("queue_size", cap(p.queue)))

	var eg errgroup.Group
	for id := range p.workers {
		eg.Go(func() error {
			p.work(ctx, id)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return errors.Wrap(err, "waiting for workers")
	}

	p.logger.Info("Stopped worker pool")

	return nil
}

func (p *Pool) work(ctx context.Context, id int) {
	logger := p.logger.With(slog.Int("worker", id))
	logger.Debug("Worker started")

	for job := range p.queue {
		job(ctx)
		p.processed.Inc()
	}

	logger.Debug("Worker stopped")
}

// Submit queues job. Submit blocks while the queue is full.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- job:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for queue capacity")
	}
}

// Close stops the Pool from accepting jobs. Jobs already queued still run. Close may be called more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.queue)
}
