package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/metrics"
)

type settings struct {
	now       func() time.Time
	logger    *zap.Logger
	publisher events.Publisher
	metrics   *metrics.Metrics
}

type Option func(*settings)

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithPublisher sets where post-commit events go. Without it events are discarded.
func WithPublisher(p events.Publisher) Option {
	return func(s *settings) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

func newSettings(opts []Option) settings {
	s := settings{
		now:       time.Now,
		logger:    zap.NewNop(),
		publisher: events.Nop,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.publisher == nil {
		s.publisher = events.Nop
	}
	return s
}

func (s settings) clock() time.Time {
	return s.now().UTC()
}
