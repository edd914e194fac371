package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// DueTournamentProcessor starts or cancels tournaments whose start time has passed.
type DueTournamentProcessor interface {
	ProcessDueTournaments(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	sched     gocron.Scheduler
	processor DueTournamentProcessor
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewScheduler(processor DueTournamentProcessor, interval time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		sched:     sched,
		processor: processor,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start registers the periodic job and starts the scheduler. ctx is handed to every run.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.tick(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName("process-due-tournaments"),
	)
	if err != nil {
		return fmt.Errorf("failed to register due tournaments job: %w", err)
	}
	s.sched.Start()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) Stop() error {
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	now := s.now().UTC()
	if err := s.processor.ProcessDueTournaments(ctx, now); err != nil {
		s.logger.Error("failed to process due tournaments", zap.Time("now", now), zap.Error(err))
	}
}
