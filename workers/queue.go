// Package workers runs background jobs: a bounded queue drained by a fixed pool of
// goroutines, and the periodic scheduler.
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quangduy772005-oss/BKT2-FullStack/metrics"
)

var (
	ErrQueueFull    = errors.New("worker queue is full")
	ErrQueueStopped = errors.New("worker queue is stopped")
)

type Job func(ctx context.Context) error

type Queue struct {
	jobs    chan Job
	workers int
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	stopped bool
	timers  map[*time.Timer]struct{}
}

func NewQueue(workers, size int, logger *zap.Logger, m *metrics.Metrics) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		jobs:    make(chan Job, size),
		workers: workers,
		logger:  logger,
		metrics: m,
		timers:  make(map[*time.Timer]struct{}),
	}
}

// Enqueue schedules job to run after delay. It never blocks: a full queue rejects the job.
func (q *Queue) Enqueue(job Job, delay time.Duration) error {
	if delay <= 0 {
		return q.push(job)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrQueueStopped
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		if err := q.push(job); err != nil {
			q.logger.Warn("delayed job dropped", zap.Error(err))
		}
	})
	q.timers[timer] = struct{}{}
	return nil
}

func (q *Queue) push(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}
	select {
	case q.jobs <- job:
		q.metrics.QueueDepth(len(q.jobs))
		return nil
	default:
		return ErrQueueFull
	}
}

// Run drains the queue with the configured number of workers until ctx is cancelled.
// Jobs still queued at that point are discarded.
func (q *Queue) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		worker := i
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return nil
				case job := <-q.jobs:
					q.metrics.QueueDepth(len(q.jobs))
					q.execute(gCtx, worker, job)
				}
			}
		})
	}
	err := g.Wait()

	q.mu.Lock()
	q.stopped = true
	for timer := range q.timers {
		timer.Stop()
	}
	q.timers = nil
	dropped := len(q.jobs)
	q.mu.Unlock()

	if dropped > 0 {
		q.logger.Warn("worker queue stopped with pending jobs", zap.Int("dropped", dropped))
	}
	return err
}

func (q *Queue) execute(ctx context.Context, worker int, job Job) {
	defer func() {
		if p := recover(); p != nil {
			q.logger.Error("job panicked", zap.Int("worker", worker), zap.Any("panic", p))
		}
	}()
	if err := job(ctx); err != nil {
		q.logger.Debug("job failed", zap.Int("worker", worker), zap.Error(err))
	}
}
