// Package reservation provides charger booking services.
package reservation

import (
	"errors"
	"time"
)

// Service and repository errors.
var (
	// ErrReservationNotFound is returned when a reservation doesn't exist or
	// doesn't belong to the requesting user.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrChargerUnavailable is returned when booking is attempted on a
	// charger the operator has disabled.
	ErrChargerUnavailable = errors.New("charger is not available")

	// ErrReservationConflict is returned when the store rejects an insert
	// because it would overlap an existing reservation on the same charger.
	// This is an expected outcome of concurrent booking, not a fault.
	ErrReservationConflict = errors.New("reservation overlaps an existing one")

	// ErrInvalidTimeRange is returned when a reservation doesn't start
	// strictly before it ends.
	ErrInvalidTimeRange = errors.New("reservation must start before it ends")
)

// Clock supplies the current instant. Injected so that future/past
// ordering decisions are deterministic under test; each operation reads it
// exactly once.
type Clock func() time.Time

// Reservation is a booked time slot on a charger. Intervals are half-open
// [StartsAt, EndsAt): a booking may begin the instant another ends.
// Reservations are never updated after creation.
type Reservation struct {
	ID        int64
	UserID    string
	ChargerID int64
	StartsAt  time.Time
	EndsAt    time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (r *Reservation) Overlaps(startsAt, endsAt time.Time) bool {
	return r.StartsAt.Before(endsAt) && startsAt.Before(r.EndsAt)
}
