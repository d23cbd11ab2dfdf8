// Package models contains the API request and response shapes.
package models

import "github.com/voltgrid/voltgrid/internal/station"

// Interest point discriminator values, carried in the `t` property.
const (
	MarkerTypeStation = "L"
	MarkerTypeCluster = "C"
)

// InterestPoint is the wire shape of a map marker. It is a closed union
// discriminated by the `t` property; the implementations are StationMarker
// and ClusterMarker.
type InterestPoint interface {
	isInterestPoint()
}

// StationMarker is a marker for exactly one station (t == "L").
type StationMarker struct {
	T    string  `json:"t"`
	ID   int64   `json:"id"`
	Name string  `json:"n"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// ClusterMarker is a marker for two or more collapsed stations (t == "C").
type ClusterMarker struct {
	T         string  `json:"t"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	NumPoints int64   `json:"numPoints"`
}

func (StationMarker) isInterestPoint() {}
func (ClusterMarker) isInterestPoint() {}

// InterestPointsFromDomain converts domain interest points to wire markers.
func InterestPointsFromDomain(points []station.InterestPoint) []InterestPoint {
	out := make([]InterestPoint, 0, len(points))
	for _, p := range points {
		switch v := p.(type) {
		case station.StationPoint:
			out = append(out, StationMarker{T: MarkerTypeStation, ID: v.ID, Name: v.Name, Lat: v.Lat, Lon: v.Lon})
		case station.ClusterPoint:
			out = append(out, ClusterMarker{T: MarkerTypeCluster, Lat: v.Lat, Lon: v.Lon, NumPoints: v.Count})
		}
	}
	return out
}

// CreateStationRequest is the request body for creating a station.
type CreateStationRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Validate validates the create station request.
func (r *CreateStationRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required", Code: "REQUIRED"})
	}
	if r.Lat < -90 || r.Lat > 90 {
		errs = append(errs, FieldError{Field: "lat", Message: "latitude must be between -90 and 90", Code: "RANGE"})
	}
	if r.Lon < -180 || r.Lon > 180 {
		errs = append(errs, FieldError{Field: "lon", Message: "longitude must be between -180 and 180", Code: "RANGE"})
	}
	return errs
}

// CreateChargerRequest is the request body for adding a charger to a station.
type CreateChargerRequest struct {
	Name      string  `json:"name"`
	Available *bool   `json:"available,omitempty"`
	MaxPower  float64 `json:"maxPower"`
}

// Validate validates the create charger request.
func (r *CreateChargerRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required", Code: "REQUIRED"})
	}
	if r.MaxPower <= 0 {
		errs = append(errs, FieldError{Field: "maxPower", Message: "maxPower must be positive", Code: "RANGE"})
	}
	return errs
}

// Station is the wire shape of a station without its chargers.
type Station struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// StationDetails is the wire shape of a station with its chargers.
type StationDetails struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Chargers []Charger `json:"chargers"`
}

// Charger is the wire shape of a charging point.
type Charger struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Available bool    `json:"isAvailable"`
	MaxPower  float64 `json:"maxPower"`
}

// StationFromDomain converts a domain station to its wire shape.
func StationFromDomain(s *station.Station) Station {
	return Station{ID: s.ID, Name: s.Name, Lat: s.Lat, Lon: s.Lon}
}

// StationDetailsFromDomain converts a domain station with chargers to its
// wire shape.
func StationDetailsFromDomain(s *station.Station) StationDetails {
	details := StationDetails{
		ID:       s.ID,
		Name:     s.Name,
		Lat:      s.Lat,
		Lon:      s.Lon,
		Chargers: make([]Charger, 0, len(s.Chargers)),
	}
	for _, c := range s.Chargers {
		details.Chargers = append(details.Chargers, ChargerFromDomain(&c))
	}
	return details
}

// ChargerFromDomain converts a domain charger to its wire shape.
func ChargerFromDomain(c *station.Charger) Charger {
	return Charger{ID: c.ID, Name: c.Name, Available: c.Available, MaxPower: c.MaxPower}
}
