// Package jobs runs periodic maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/adamscao/eventcert/internal/metrics"
)

// LogPruner deletes verification log rows older than a cutoff.
type LogPruner interface {
	DeleteOld(ctx context.Context, before time.Time) (int64, error)
}

// Pruner enforces verification log retention.
type Pruner struct {
	logs    LogPruner
	maxAge  time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewPruner creates a pruner keeping maxAge worth of verification logs.
func NewPruner(logs LogPruner, maxAge time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Pruner {
	return &Pruner{
		logs:    logs,
		maxAge:  maxAge,
		metrics: m,
		logger:  logger.With().Str("component", "pruner").Logger(),
		now:     time.Now,
	}
}

// PruneOnce removes expired rows and returns how many were deleted.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.maxAge)

	n, err := p.logs.DeleteOld(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune verification logs: %w", err)
	}

	p.metrics.ObservePruned(n)
	p.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("pruned verification logs")
	return n, nil
}

// Scheduler runs the pruner periodically.
type Scheduler struct {
	pruner    *Pruner
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

// NewScheduler creates a scheduler running pruner every interval.
func NewScheduler(pruner *Pruner, interval time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	scheduler := &Scheduler{
		pruner:    pruner,
		scheduler: s,
		logger:    pruner.logger,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(scheduler.prune),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return scheduler, nil
}

// Start begins the processing loop.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("starting retention scheduler")
	s.scheduler.Start()
}

// Stop halts the processing loop.
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("stopping retention scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error().Err(err).Msg("error shutting down scheduler")
	}
}

func (s *Scheduler) prune() {
	if _, err := s.pruner.PruneOnce(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("scheduled prune failed")
	}
}
