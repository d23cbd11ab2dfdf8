package worker_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/voltgrid/internal/reservation"
	"github.com/voltgrid/voltgrid/internal/worker"
)

func fixedClock(t time.Time) reservation.Clock {
	return func() time.Time { return t }
}

func seedReservation(t *testing.T, repo *reservation.InMemoryRepository, chargerID int64, start, end time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), &reservation.Reservation{
		UserID:    "user-1",
		ChargerID: chargerID,
		StartsAt:  start,
		EndsAt:    end,
	})
	require.NoError(t, err)
}

func TestRetentionJob_Run_DeletesOnlyExpired(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := reservation.NewInMemoryRepository()

	// Two well past the 90-day window, one recent, one in the future.
	// Distinct chargers so the seeds never collide with each other.
	seedReservation(t, repo, 1, now.Add(-200*24*time.Hour), now.Add(-200*24*time.Hour+time.Hour))
	seedReservation(t, repo, 2, now.Add(-120*24*time.Hour), now.Add(-120*24*time.Hour+time.Hour))
	seedReservation(t, repo, 3, now.Add(-24*time.Hour), now.Add(-23*time.Hour))
	seedReservation(t, repo, 4, now.Add(time.Hour), now.Add(2*time.Hour))

	job := worker.NewRetentionJob(worker.RetentionJobConfig{
		Config: worker.DefaultRetentionConfig(),
		Logger: zerolog.New(io.Discard),
		Repo:   repo,
		Clock:  fixedClock(now),
	})

	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalSweeps)
	assert.Equal(t, int64(0), metrics.FailedSweeps)
	assert.Equal(t, int64(2), metrics.DeletedTotal)
	assert.Equal(t, int64(2), metrics.LastSweepDeleted)
	assert.Equal(t, now, metrics.LastSweepAt)

	// The surviving bookings are still there.
	remaining, err := repo.ListByUser(context.Background(), "user-1", now)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestRetentionJob_Run_NothingToDelete(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := reservation.NewInMemoryRepository()
	seedReservation(t, repo, 1, now.Add(time.Hour), now.Add(2*time.Hour))

	job := worker.NewRetentionJob(worker.RetentionJobConfig{
		Config: worker.DefaultRetentionConfig(),
		Logger: zerolog.New(io.Discard),
		Repo:   repo,
		Clock:  fixedClock(now),
	})

	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

// flakyRepo fails DeleteEndedBefore a fixed number of times before
// delegating, to exercise the sweep's retry policy.
type flakyRepo struct {
	*reservation.InMemoryRepository
	failures int
	calls    int
}

func (f *flakyRepo) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, errors.New("connection reset")
	}
	return f.InMemoryRepository.DeleteEndedBefore(ctx, cutoff)
}

func TestRetentionJob_Run_RetriesTransientErrors(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := &flakyRepo{
		InMemoryRepository: reservation.NewInMemoryRepository(),
		failures:           2,
	}
	seedReservation(t, repo.InMemoryRepository, 1, now.Add(-200*24*time.Hour), now.Add(-200*24*time.Hour+time.Hour))

	job := worker.NewRetentionJob(worker.RetentionJobConfig{
		Config: worker.RetentionConfig{
			Interval:        time.Hour,
			RetainFor:       90 * 24 * time.Hour,
			MaxRetryElapsed: 10 * time.Second,
		},
		Logger: zerolog.New(io.Discard),
		Repo:   repo,
		Clock:  fixedClock(now),
	})

	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 3, repo.calls)
}

func TestRetentionJob_Run_GivesUpAfterMaxElapsed(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := &flakyRepo{
		InMemoryRepository: reservation.NewInMemoryRepository(),
		failures:           1 << 30,
	}

	job := worker.NewRetentionJob(worker.RetentionJobConfig{
		Config: worker.RetentionConfig{
			Interval:        time.Hour,
			RetainFor:       90 * 24 * time.Hour,
			MaxRetryElapsed: 50 * time.Millisecond,
		},
		Logger: zerolog.New(io.Discard),
		Repo:   repo,
		Clock:  fixedClock(now),
	})

	_, err := job.Run(context.Background())
	require.Error(t, err)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.FailedSweeps)
	assert.Zero(t, metrics.DeletedTotal)
}

func TestRetentionJob_Start_StopsOnContextCancel(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	job := worker.NewRetentionJob(worker.RetentionJobConfig{
		Config: worker.RetentionConfig{
			Interval:        10 * time.Millisecond,
			RetainFor:       90 * 24 * time.Hour,
			MaxRetryElapsed: time.Second,
		},
		Logger: zerolog.New(io.Discard),
		Repo:   repo,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention job did not stop after context cancellation")
	}

	assert.GreaterOrEqual(t, job.GetMetrics().TotalSweeps, int64(1))
}

func TestRetentionConfigFromEnv(t *testing.T) {
	t.Setenv("RETENTION_INTERVAL", "30m")
	t.Setenv("RETENTION_KEEP_FOR", "720h")

	cfg := worker.RetentionConfigFromEnv()
	assert.Equal(t, 30*time.Minute, cfg.Interval)
	assert.Equal(t, 720*time.Hour, cfg.RetainFor)
}

func TestRetentionConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("RETENTION_INTERVAL", "")
	t.Setenv("RETENTION_KEEP_FOR", "not-a-duration")

	cfg := worker.RetentionConfigFromEnv()
	assert.Equal(t, worker.DefaultRetentionConfig().Interval, cfg.Interval)
	assert.Equal(t, worker.DefaultRetentionConfig().RetainFor, cfg.RetainFor)
}
