// Package station provides charging station lookup and map aggregation services.
package station

import "errors"

// Repository errors.
var (
	ErrStationNotFound = errors.New("station not found")
	ErrChargerNotFound = errors.New("charger not found")
)

// ErrInvalidBounds is returned when a caller passes an impossible bounding
// box or zoom level. Transport-level validation should prevent this.
var ErrInvalidBounds = errors.New("invalid bounding box or zoom level")

// Station represents a charging location on the map.
// Position is immutable after creation; the geometry column derived from it
// is maintained by the store and never written by the application.
type Station struct {
	ID       int64
	Name     string
	Lat      float64
	Lon      float64
	Chargers []Charger
}

// Charger is a single charging point at a station. Available is
// operator-controlled and is the sole source of truth for bookability.
type Charger struct {
	ID        int64
	StationID int64
	Name      string
	Available bool
	MaxPower  float64
}

// BoundingBox is a geographic envelope in degrees, west/east longitude and
// south/north latitude.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// InterestPoint is a map marker: either a single station or a cluster of
// nearby stations collapsed into one point. It is a closed union; the two
// implementations are StationPoint and ClusterPoint.
type InterestPoint interface {
	interestPoint()
}

// StationPoint marks exactly one station on the map.
type StationPoint struct {
	ID   int64
	Name string
	Lon  float64
	Lat  float64
}

// ClusterPoint marks a group of two or more stations. Its position is the
// centroid of the member stations.
type ClusterPoint struct {
	Lon   float64
	Lat   float64
	Count int64
}

func (StationPoint) interestPoint() {}
func (ClusterPoint) interestPoint() {}
