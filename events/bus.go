package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/metrics"
	"github.com/quangduy772005-oss/BKT2-FullStack/workers"
)

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = 500 * time.Millisecond
)

// Enqueuer is the part of workers.Queue the bus needs.
type Enqueuer interface {
	Enqueue(job workers.Job, delay time.Duration) error
}

// Bus fans every event out to its sinks through the worker queue, one job per sink.
type Bus struct {
	queue       Enqueuer
	sinks       []Sink
	logger      *zap.Logger
	metrics     *metrics.Metrics
	maxAttempts int
	retryDelay  time.Duration
	now         func() time.Time
}

type BusOption func(*Bus)

func WithRetry(maxAttempts int, delay time.Duration) BusOption {
	return func(b *Bus) {
		if maxAttempts > 0 {
			b.maxAttempts = maxAttempts
		}
		if delay > 0 {
			b.retryDelay = delay
		}
	}
}

func WithMetrics(m *metrics.Metrics) BusOption {
	return func(b *Bus) { b.metrics = m }
}

func NewBus(queue Enqueuer, logger *zap.Logger, sinks []Sink, opts ...BusOption) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{
		queue:       queue,
		sinks:       sinks,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Publish(ctx context.Context, kind Kind, tournamentID *int, payload any) {
	event := Event{
		ID:           uuid.NewString(),
		Kind:         kind,
		TournamentID: tournamentID,
		OccurredAt:   b.now().UTC(),
		Payload:      payload,
	}
	for _, sink := range b.sinks {
		b.schedule(sink, event, 1, 0)
	}
}

func (b *Bus) schedule(sink Sink, event Event, attempt int, delay time.Duration) {
	job := func(ctx context.Context) error {
		err := sink.Handle(ctx, event)
		b.metrics.EventHandled(sink.Name(), string(event.Kind), err)
		if err == nil {
			return nil
		}
		if attempt >= b.maxAttempts || ctx.Err() != nil {
			b.logger.Error("event delivery abandoned",
				zap.String("sink", sink.Name()),
				zap.String("kind", string(event.Kind)),
				zap.String("event_id", event.ID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		b.logger.Warn("event delivery failed, retrying",
			zap.String("sink", sink.Name()),
			zap.String("event_id", event.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		b.schedule(sink, event, attempt+1, b.retryDelay*time.Duration(attempt))
		return err
	}

	if err := b.queue.Enqueue(job, delay); err != nil {
		b.logger.Error("event dropped",
			zap.String("sink", sink.Name()),
			zap.String("kind", string(event.Kind)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}
