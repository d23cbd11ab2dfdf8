package reservation

import (
	"context"
	"time"

	"github.com/voltgrid/voltgrid/internal/station"
)

// Service provides booking operations. It holds no locks across store
// calls; the store's atomic overlap enforcement is the sole serialization
// point for concurrent bookings on a charger.
type Service struct {
	repo  Repository
	clock Clock
}

// NewService creates a new reservation service. A nil clock defaults to
// time.Now.
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, clock: clock}
}

// Create books a time slot on a charger for a user. The charger's
// operator-controlled availability is checked before any write; overlap with
// existing bookings is detected by the store atomically with the insert.
//
// Callers are expected to have validated that startsAt lies in the future.
// Inverted ranges are rejected here regardless.
func (s *Service) Create(ctx context.Context, userID string, charger *station.Charger, startsAt, endsAt time.Time) (*Reservation, error) {
	if !startsAt.Before(endsAt) {
		return nil, ErrInvalidTimeRange
	}

	if !charger.Available {
		return nil, ErrChargerUnavailable
	}

	res := &Reservation{
		UserID:    userID,
		ChargerID: charger.ID,
		StartsAt:  startsAt.UTC(),
		EndsAt:    endsAt.UTC(),
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListForUser returns the user's reservations ordered by temporal proximity
// to now: upcoming bookings soonest-first, then past bookings most recent
// first. The clock is read once; every comparison in the call uses that
// instant.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Reservation, error) {
	now := s.clock()
	return s.repo.ListByUser(ctx, userID, now)
}

// Cancel deletes a reservation owned by the given user. A reservation that
// doesn't exist and one owned by somebody else are indistinguishable to the
// caller; both return ErrReservationNotFound.
func (s *Service) Cancel(ctx context.Context, userID string, reservationID int64) error {
	res, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return err
	}

	if res.UserID != userID {
		return ErrReservationNotFound
	}

	return s.repo.Delete(ctx, reservationID)
}

// Now reports the service's current instant. Handlers use it for the
// starts-in-the-future precondition so that the whole request shares one
// time source.
func (s *Service) Now() time.Time {
	return s.clock()
}
