package models

import (
	"time"

	"github.com/voltgrid/voltgrid/internal/reservation"
)

// CreateReservationRequest is the request body for booking a charger.
// Times are RFC3339; the interval is half-open, so a reservation ending
// exactly when another starts does not collide with it.
type CreateReservationRequest struct {
	ChargerID int64     `json:"chargerId"`
	StartsAt  time.Time `json:"start"`
	EndsAt    time.Time `json:"end"`
}

// Validate validates the create reservation request against the given
// current time.
func (r *CreateReservationRequest) Validate(now time.Time) []FieldError {
	var errs []FieldError
	if r.ChargerID <= 0 {
		errs = append(errs, FieldError{Field: "chargerId", Message: "chargerId is required", Code: "REQUIRED"})
	}
	if r.StartsAt.IsZero() {
		errs = append(errs, FieldError{Field: "start", Message: "start is required", Code: "REQUIRED"})
	}
	if r.EndsAt.IsZero() {
		errs = append(errs, FieldError{Field: "end", Message: "end is required", Code: "REQUIRED"})
	}
	if len(errs) > 0 {
		return errs
	}
	if !r.StartsAt.Before(r.EndsAt) {
		errs = append(errs, FieldError{Field: "end", Message: "end must be after start", Code: "RANGE"})
	}
	if r.StartsAt.Before(now) {
		errs = append(errs, FieldError{Field: "start", Message: "start must not be in the past", Code: "RANGE"})
	}
	return errs
}

// Reservation is the wire shape of a booking.
type Reservation struct {
	ID        int64     `json:"id"`
	ChargerID int64     `json:"chargerId"`
	StartsAt  Timestamp `json:"start"`
	EndsAt    Timestamp `json:"end"`
}

// ReservationFromDomain converts a domain reservation to its wire shape.
func ReservationFromDomain(res *reservation.Reservation) Reservation {
	return Reservation{
		ID:        res.ID,
		ChargerID: res.ChargerID,
		StartsAt:  Timestamp(res.StartsAt),
		EndsAt:    Timestamp(res.EndsAt),
	}
}

// ReservationsFromDomain converts a slice of domain reservations,
// preserving order.
func ReservationsFromDomain(in []*reservation.Reservation) []Reservation {
	out := make([]Reservation, 0, len(in))
	for _, res := range in {
		out = append(out, ReservationFromDomain(res))
	}
	return out
}
