package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voltgrid/voltgrid/internal/api/models"
	"github.com/voltgrid/voltgrid/internal/api/response"
	"github.com/voltgrid/voltgrid/internal/station"
)

// StationHandler handles station and map endpoints.
type StationHandler struct {
	stationService *station.Service
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stationService *station.Service) *StationHandler {
	return &StationHandler{
		stationService: stationService,
	}
}

// Nearby handles GET /v1/stations/nearby - interest points for a map
// viewport. At maximum zoom every station in the box comes back as its
// own marker; below that stations within the zoom-dependent radius
// collapse into cluster markers.
func (h *StationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs []models.FieldError
	west := parseCoord(q.Get("w"), "w", -180, 180, &errs)
	east := parseCoord(q.Get("e"), "e", -180, 180, &errs)
	south := parseCoord(q.Get("s"), "s", -90, 90, &errs)
	north := parseCoord(q.Get("n"), "n", -90, 90, &errs)

	zoom, err := strconv.Atoi(q.Get("z"))
	if err != nil {
		errs = append(errs, models.FieldError{Field: "z", Message: "z must be an integer", Code: "FORMAT"})
	} else if zoom < 0 || zoom > station.MaxZoom {
		errs = append(errs, models.FieldError{
			Field:   "z",
			Message: fmt.Sprintf("z must be between 0 and %d", station.MaxZoom),
			Code:    "RANGE",
		})
	}

	onlyActive := false
	if raw := q.Get("onlyActive"); raw != "" {
		onlyActive, err = strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, models.FieldError{Field: "onlyActive", Message: "onlyActive must be a boolean", Code: "FORMAT"})
		}
	}

	if len(errs) == 0 {
		if west > east {
			errs = append(errs, models.FieldError{Field: "w", Message: "w must not exceed e", Code: "RANGE"})
		}
		if south > north {
			errs = append(errs, models.FieldError{Field: "s", Message: "s must not exceed n", Code: "RANGE"})
		}
	}

	if len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	box := station.BoundingBox{West: west, South: south, East: east, North: north}
	points, err := h.stationService.InterestPoints(r.Context(), box, zoom, onlyActive)
	if err != nil {
		if errors.Is(err, station.ErrInvalidBounds) {
			response.BadRequest(w, r, "invalid viewport", nil)
			return
		}
		response.InternalError(w, r, "failed to load interest points")
		return
	}

	response.JSON(w, r, http.StatusOK, models.InterestPointsFromDomain(points))
}

// Closest handles GET /v1/stations/closest - the nearest station with
// at least one available charger.
func (h *StationHandler) Closest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs []models.FieldError
	lon := parseCoord(q.Get("lon"), "lon", -180, 180, &errs)
	lat := parseCoord(q.Get("lat"), "lat", -90, 90, &errs)
	if len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	st, err := h.stationService.ClosestAvailable(r.Context(), lon, lat)
	if err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			response.NotFound(w, r, "no station with an available charger")
			return
		}
		response.InternalError(w, r, "failed to find closest station")
		return
	}

	response.JSON(w, r, http.StatusOK, models.StationFromDomain(st))
}

// Get handles GET /v1/stations/{stationID} - a station with its chargers.
func (h *StationHandler) Get(w http.ResponseWriter, r *http.Request) {
	stationID, err := strconv.ParseInt(chi.URLParam(r, "stationID"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "stationID must be an integer", nil)
		return
	}

	st, err := h.stationService.Get(r.Context(), stationID)
	if err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			response.NotFound(w, r, "station not found")
			return
		}
		response.InternalError(w, r, "failed to load station")
		return
	}

	response.JSON(w, r, http.StatusOK, models.StationDetailsFromDomain(st))
}

// Create handles POST /v1/stations - register a new station. Admin only.
func (h *StationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	st := &station.Station{Name: req.Name, Lat: req.Lat, Lon: req.Lon}
	if err := h.stationService.Create(r.Context(), st); err != nil {
		response.InternalError(w, r, "failed to create station")
		return
	}

	location := fmt.Sprintf("/v1/stations/%d", st.ID)
	response.Created(w, r, location, models.StationFromDomain(st))
}

// CreateCharger handles POST /v1/stations/{stationID}/chargers - add a
// charging point to a station. Admin only.
func (h *StationHandler) CreateCharger(w http.ResponseWriter, r *http.Request) {
	stationID, err := strconv.ParseInt(chi.URLParam(r, "stationID"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "stationID must be an integer", nil)
		return
	}

	var req models.CreateChargerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	// New chargers default to available unless the request says otherwise.
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	charger := &station.Charger{
		StationID: stationID,
		Name:      req.Name,
		Available: available,
		MaxPower:  req.MaxPower,
	}
	if err := h.stationService.CreateCharger(r.Context(), charger); err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			response.NotFound(w, r, "station not found")
			return
		}
		response.InternalError(w, r, "failed to create charger")
		return
	}

	location := fmt.Sprintf("/v1/stations/%d", stationID)
	response.Created(w, r, location, models.ChargerFromDomain(charger))
}

// parseCoord parses a required float query parameter and checks its range,
// appending a field error on failure.
func parseCoord(raw, field string, min, max float64, errs *[]models.FieldError) float64 {
	if raw == "" {
		*errs = append(*errs, models.FieldError{Field: field, Message: field + " is required", Code: "REQUIRED"})
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, models.FieldError{Field: field, Message: field + " must be a number", Code: "FORMAT"})
		return 0
	}
	if v < min || v > max {
		*errs = append(*errs, models.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be between %g and %g", field, min, max),
			Code:    "RANGE",
		})
	}
	return v
}
