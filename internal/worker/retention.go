// Package worker provides background jobs for VoltGrid.
package worker

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/voltgrid/voltgrid/internal/reservation"
)

// RetentionConfig holds configuration for the reservation retention job.
type RetentionConfig struct {
	// Interval between sweeps.
	Interval time.Duration

	// RetainFor is how long ended reservations are kept before deletion.
	RetainFor time.Duration

	// MaxRetryElapsed bounds the backoff retries of a single sweep.
	MaxRetryElapsed time.Duration
}

// DefaultRetentionConfig returns the default retention configuration.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Interval:        time.Hour,
		RetainFor:       90 * 24 * time.Hour,
		MaxRetryElapsed: 2 * time.Minute,
	}
}

// RetentionConfigFromEnv creates a RetentionConfig from environment
// variables, falling back to defaults for unset or malformed values.
func RetentionConfigFromEnv() RetentionConfig {
	cfg := DefaultRetentionConfig()

	if raw := os.Getenv("RETENTION_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Interval = d
		}
	}
	if raw := os.Getenv("RETENTION_KEEP_FOR"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.RetainFor = d
		}
	}

	return cfg
}

// RetentionMetrics tracks retention job statistics.
type RetentionMetrics struct {
	mu sync.RWMutex

	TotalSweeps      int64
	FailedSweeps     int64
	DeletedTotal     int64
	LastSweepAt      time.Time
	LastSweepDeleted int64
}

// RetentionJob deletes reservations that ended longer ago than the
// retention window.
type RetentionJob struct {
	config  RetentionConfig
	logger  zerolog.Logger
	repo    reservation.Repository
	clock   reservation.Clock
	metrics *RetentionMetrics
}

// RetentionJobConfig holds configuration for creating a RetentionJob.
type RetentionJobConfig struct {
	Config RetentionConfig
	Logger zerolog.Logger
	Repo   reservation.Repository

	// Clock defaults to time.Now; tests pin it.
	Clock reservation.Clock
}

// NewRetentionJob creates a new retention job.
func NewRetentionJob(cfg RetentionJobConfig) *RetentionJob {
	config := cfg.Config
	if config.Interval <= 0 {
		config = DefaultRetentionConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &RetentionJob{
		config:  config,
		logger:  cfg.Logger,
		repo:    cfg.Repo,
		clock:   clock,
		metrics: &RetentionMetrics{},
	}
}

// Run executes one retention sweep. Transient store errors are retried
// with exponential backoff until MaxRetryElapsed is exhausted.
func (j *RetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.clock().Add(-j.config.RetainFor)

	j.logger.Debug().
		Time("cutoff", cutoff).
		Msg("starting reservation retention sweep")

	var deleted int64
	operation := func() error {
		var err error
		deleted, err = j.repo.DeleteEndedBefore(ctx, cutoff)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = j.config.MaxRetryElapsed

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))

	j.updateMetrics(deleted, err)

	if err != nil {
		j.logger.Error().Err(err).Msg("reservation retention sweep failed")
		return 0, err
	}

	j.logger.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("reservation retention sweep completed")

	return deleted, nil
}

// Start runs retention sweeps on the configured interval until the
// context is cancelled. One sweep runs immediately on start.
func (j *RetentionJob) Start(ctx context.Context) {
	j.logger.Info().
		Dur("interval", j.config.Interval).
		Dur("retain_for", j.config.RetainFor).
		Msg("retention job started")

	if _, err := j.Run(ctx); err != nil && ctx.Err() != nil {
		return
	}

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("retention job stopped")
			return
		case <-ticker.C:
			_, _ = j.Run(ctx)
		}
	}
}

func (j *RetentionJob) updateMetrics(deleted int64, err error) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalSweeps++
	if err != nil {
		j.metrics.FailedSweeps++
		return
	}
	j.metrics.DeletedTotal += deleted
	j.metrics.LastSweepAt = j.clock()
	j.metrics.LastSweepDeleted = deleted
}

// GetMetrics returns a copy of the current metrics.
func (j *RetentionJob) GetMetrics() RetentionMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RetentionMetrics{
		TotalSweeps:      j.metrics.TotalSweeps,
		FailedSweeps:     j.metrics.FailedSweeps,
		DeletedTotal:     j.metrics.DeletedTotal,
		LastSweepAt:      j.metrics.LastSweepAt,
		LastSweepDeleted: j.metrics.LastSweepDeleted,
	}
}
