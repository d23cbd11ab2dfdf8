package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/voltgrid/voltgrid/internal/api/middleware"
	"github.com/voltgrid/voltgrid/internal/api/models"
	"github.com/voltgrid/voltgrid/internal/api/response"
	"github.com/voltgrid/voltgrid/internal/reservation"
	"github.com/voltgrid/voltgrid/internal/station"
)

// ReservationHandler handles reservation endpoints.
type ReservationHandler struct {
	reservationService *reservation.Service
	stationService     *station.Service
	log                zerolog.Logger
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(reservationService *reservation.Service, stationService *station.Service, log zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		stationService:     stationService,
		log:                log,
	}
}

// Create handles POST /v1/reservations - book a charger for a time slot.
//
// An overlap with an existing booking and a charger that is switched off
// are both 409s, but with distinct problem types: the former is resolved
// by picking another time, the latter by picking another charger.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	var req models.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(h.reservationService.Now()); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	charger, err := h.stationService.GetCharger(r.Context(), req.ChargerID)
	if err != nil {
		if errors.Is(err, station.ErrChargerNotFound) {
			response.NotFound(w, r, "charger not found")
			return
		}
		response.InternalError(w, r, "failed to load charger")
		return
	}

	res, err := h.reservationService.Create(r.Context(), userID, charger, req.StartsAt, req.EndsAt)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrInvalidTimeRange):
			response.BadRequest(w, r, "end must be after start", nil)
		case errors.Is(err, reservation.ErrChargerUnavailable):
			response.ChargerUnavailable(w, r, "charger is not available for booking")
		case errors.Is(err, reservation.ErrReservationConflict):
			// A lost race for a slot is normal operation, not a fault.
			h.log.Info().
				Str("request_id", middleware.GetRequestID(r.Context())).
				Int64("charger_id", req.ChargerID).
				Time("starts_at", req.StartsAt).
				Time("ends_at", req.EndsAt).
				Msg("reservation conflict")
			response.ReservationConflict(w, r, "charger is already booked for this time slot")
		default:
			response.InternalError(w, r, "failed to create reservation")
		}
		return
	}

	location := fmt.Sprintf("/v1/reservations/%d", res.ID)
	response.Created(w, r, location, models.ReservationFromDomain(res))
}

// List handles GET /v1/reservations - the caller's reservations ordered
// by temporal proximity: upcoming ones first (soonest start first), then
// past ones (most recent first).
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	reservations, err := h.reservationService.ListForUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "failed to list reservations")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReservationsFromDomain(reservations))
}

// Delete handles DELETE /v1/reservations/{reservationID} - cancel a
// reservation. Only the owner may cancel; anyone else sees a 404.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	reservationID, err := strconv.ParseInt(chi.URLParam(r, "reservationID"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "reservationID must be an integer", nil)
		return
	}

	if err := h.reservationService.Cancel(r.Context(), userID, reservationID); err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			response.NotFound(w, r, "reservation not found")
			return
		}
		response.InternalError(w, r, "failed to cancel reservation")
		return
	}

	response.NoContent(w, r)
}
