package reservation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
//
// The mutex held across the overlap scan and the insert plays the role of
// the database exclusion constraint: the two together are a single atomic
// operation, so concurrent overlapping creates cannot both succeed.
type InMemoryRepository struct {
	mu           sync.Mutex
	reservations map[int64]*Reservation
	nextID       int64
}

// NewInMemoryRepository creates a new in-memory reservation repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		reservations: make(map[int64]*Reservation),
	}
}

// Create persists a new reservation, rejecting overlapping intervals on the
// same charger.
func (r *InMemoryRepository) Create(_ context.Context, res *Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reservations {
		if existing.ChargerID == res.ChargerID && existing.Overlaps(res.StartsAt, res.EndsAt) {
			return ErrReservationConflict
		}
	}

	r.nextID++
	res.ID = r.nextID

	cpy := *res
	r.reservations[res.ID] = &cpy
	return nil
}

// Get retrieves a reservation by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}

	cpy := *res
	return &cpy, nil
}

// ListByUser returns a user's reservations, future-or-current first
// ascending, then past descending, all relative to the now argument.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, now time.Time) ([]*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Reservation
	for _, res := range r.reservations {
		if res.UserID == userID {
			cpy := *res
			out = append(out, &cpy)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		iFuture := !out[i].StartsAt.Before(now)
		jFuture := !out[j].StartsAt.Before(now)
		if iFuture != jFuture {
			return iFuture
		}
		if iFuture {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[j].StartsAt.Before(out[i].StartsAt)
	})

	return out, nil
}

// Delete removes a reservation by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.reservations, id)
	return nil
}

// DeleteEndedBefore removes reservations whose end precedes the cutoff.
func (r *InMemoryRepository) DeleteEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, res := range r.reservations {
		if res.EndsAt.Before(cutoff) {
			delete(r.reservations, id)
			removed++
		}
	}
	return removed, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
