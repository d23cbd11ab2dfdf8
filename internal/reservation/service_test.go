package reservation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voltgrid/voltgrid/internal/reservation"
	"github.com/voltgrid/voltgrid/internal/station"
)

func fixedClock(t time.Time) reservation.Clock {
	return func() time.Time { return t }
}

func availableCharger(id int64) *station.Charger {
	return &station.Charger{ID: id, StationID: 1, Name: "AC", Available: true, MaxPower: 22}
}

func TestService_Create(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := reservation.NewService(repo, fixedClock(now))
	ctx := context.Background()

	res, err := service.Create(ctx, "user-1", availableCharger(7),
		now.Add(1*time.Hour), now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}
	if res.ID == 0 {
		t.Error("expected reservation ID to be assigned")
	}
	if res.ChargerID != 7 {
		t.Errorf("expected charger 7, got %d", res.ChargerID)
	}
}

func TestService_Create_ChargerUnavailable(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := reservation.NewService(repo, fixedClock(now))
	ctx := context.Background()

	charger := availableCharger(7)
	charger.Available = false

	_, err := service.Create(ctx, "user-1", charger, now.Add(time.Hour), now.Add(2*time.Hour))
	if !errors.Is(err, reservation.ErrChargerUnavailable) {
		t.Fatalf("expected ErrChargerUnavailable, got %v", err)
	}

	// The availability check happens before any write.
	list, err := repo.ListByUser(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("failed to list reservations: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no persisted reservations, got %d", len(list))
	}
}

func TestService_Create_OverlapConflict(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	service := reservation.NewService(repo, fixedClock(day))
	ctx := context.Background()
	charger := availableCharger(7)

	// A books 22:00-23:00.
	_, err := service.Create(ctx, "user-a", charger,
		day.Add(22*time.Hour), day.Add(23*time.Hour))
	if err != nil {
		t.Fatalf("failed to create first reservation: %v", err)
	}

	// B wants 20 seconds inside A's slot.
	_, err = service.Create(ctx, "user-b", charger,
		day.Add(22*time.Hour+22*time.Minute+20*time.Second),
		day.Add(22*time.Hour+22*time.Minute+40*time.Second))
	if !errors.Is(err, reservation.ErrReservationConflict) {
		t.Fatalf("expected ErrReservationConflict, got %v", err)
	}

	// C starts the instant A ends; half-open intervals don't collide.
	_, err = service.Create(ctx, "user-c", charger,
		day.Add(23*time.Hour), day.Add(23*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("expected back-to-back reservation to succeed, got %v", err)
	}

	// A different charger is unaffected.
	_, err = service.Create(ctx, "user-b", availableCharger(8),
		day.Add(22*time.Hour), day.Add(23*time.Hour))
	if err != nil {
		t.Fatalf("expected reservation on another charger to succeed, got %v", err)
	}
}

func TestService_Create_ConcurrentOverlap(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := reservation.NewService(repo, fixedClock(now))
	charger := availableCharger(7)

	const attempts = 32

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), "user-1", charger,
				now.Add(time.Hour), now.Add(2*time.Hour))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, reservation.ErrReservationConflict):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("expected exactly one successful booking, got %d", succeeded)
	}
	if conflicted != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicted)
	}
}

func TestService_Create_InvalidRange(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := reservation.NewService(repo, fixedClock(now))

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"end before start", now.Add(2 * time.Hour), now.Add(time.Hour)},
		{"zero-length", now.Add(time.Hour), now.Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), "user-1", availableCharger(7), tt.start, tt.end)
			if !errors.Is(err, reservation.ErrInvalidTimeRange) {
				t.Errorf("expected ErrInvalidTimeRange, got %v", err)
			}
		})
	}
}

func TestService_ListForUser_Ordering(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := reservation.NewService(repo, fixedClock(now))
	ctx := context.Background()

	// Seed directly: past bookings can't go through Create once now has
	// moved past them.
	seed := []struct {
		charger int64
		start   time.Duration // offset from now
	}{
		{1, -48 * time.Hour},
		{2, -2 * time.Hour},
		{3, 30 * time.Minute},
		{4, 24 * time.Hour},
		{5, 0}, // starting exactly now counts as future-or-current
	}
	for _, s := range seed {
		err := repo.Create(ctx, &reservation.Reservation{
			UserID:    "user-1",
			ChargerID: s.charger,
			StartsAt:  now.Add(s.start),
			EndsAt:    now.Add(s.start + time.Hour),
		})
		if err != nil {
			t.Fatalf("failed to seed reservation: %v", err)
		}
	}
	// Another user's booking must not leak in.
	err := repo.Create(ctx, &reservation.Reservation{
		UserID: "user-2", ChargerID: 9, StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seed reservation: %v", err)
	}

	list, err := service.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to list reservations: %v", err)
	}

	var got []int64
	for _, r := range list {
		got = append(got, r.ChargerID)
	}

	// Future group ascending (5 at now, 3 in 30m, 4 tomorrow), then past
	// group descending (2 hours ago before 2 days ago).
	want := []int64{5, 3, 4, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d reservations, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected charger %d, got %d (order %v)", i, want[i], got[i], got)
			break
		}
	}
}

func TestService_Cancel(t *testing.T) {
	repo := reservation.NewInMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := reservation.NewService(repo, fixedClock(now))
	ctx := context.Background()

	res, err := service.Create(ctx, "owner", availableCharger(7), now.Add(time.Hour), now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}

	// A non-owner sees not-found, not forbidden.
	err = service.Cancel(ctx, "intruder", res.ID)
	if !errors.Is(err, reservation.ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound for non-owner, got %v", err)
	}

	if err := service.Cancel(ctx, "owner", res.ID); err != nil {
		t.Fatalf("failed to cancel own reservation: %v", err)
	}

	err = service.Cancel(ctx, "owner", res.ID)
	if !errors.Is(err, reservation.ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound after deletion, got %v", err)
	}
}
