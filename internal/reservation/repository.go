package reservation

import (
	"context"
	"time"
)

// Repository defines the interface for reservation persistence.
//
// Create must enforce the no-overlap invariant atomically with the write:
// of two concurrent inserts for overlapping ranges on the same charger,
// exactly one succeeds and the other observes ErrReservationConflict. A
// check-then-insert implementation is not acceptable.
type Repository interface {
	// Create persists a new reservation and assigns its ID.
	// Returns ErrReservationConflict if the interval overlaps an existing
	// reservation on the same charger.
	Create(ctx context.Context, res *Reservation) error

	// Get retrieves a reservation by ID.
	// Returns ErrReservationNotFound if it doesn't exist.
	Get(ctx context.Context, id int64) (*Reservation, error)

	// ListByUser returns a user's reservations ordered by temporal proximity
	// to now: future-or-current bookings first ascending by start, then past
	// bookings descending by start. All comparisons use the now argument.
	ListByUser(ctx context.Context, userID string, now time.Time) ([]*Reservation, error)

	// Delete removes a reservation by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteEndedBefore removes reservations whose end precedes the cutoff,
	// returning how many were removed. Used by the retention worker.
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
