package station

import (
	"context"
	"fmt"
	"math"
)

// MaxZoom is the street-level zoom at which aggregation is disabled and
// every station in view gets its own marker.
const MaxZoom = 18

// Service provides station lookup and map aggregation operations.
type Service struct {
	repo Repository
}

// NewService creates a new station service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// clusterRadius derives the clustering radius for a zoom level, in the
// coordinate units of the stored geometry. The formula is deliberately not
// latitude-corrected; markers are an approximation of density, not geometry.
func clusterRadius(zoom int) float64 {
	return 10 / math.Pow(2, float64(zoom))
}

// InterestPoints returns the map markers for a bounding box at the given
// zoom level. At MaxZoom every matching station is emitted individually;
// below it, stations within clusterRadius of each other are collapsed into
// ClusterPoints and the rest stay StationPoints. When onlyActive is true,
// stations without an available charger are excluded from markers, cluster
// counts and centroids alike.
//
// An empty box yields an empty result, not an error.
func (s *Service) InterestPoints(ctx context.Context, box BoundingBox, zoom int, onlyActive bool) ([]InterestPoint, error) {
	if box.West > box.East || box.South > box.North || zoom < 0 || zoom > MaxZoom {
		return nil, ErrInvalidBounds
	}

	if zoom >= MaxZoom {
		stations, err := s.repo.StationsInBox(ctx, box, onlyActive)
		if err != nil {
			return nil, fmt.Errorf("stations in box: %w", err)
		}

		points := make([]InterestPoint, 0, len(stations))
		for _, st := range stations {
			points = append(points, StationPoint{ID: st.ID, Name: st.Name, Lon: st.Lon, Lat: st.Lat})
		}
		return points, nil
	}

	rows, err := s.repo.ClusterStationsInBox(ctx, box, clusterRadius(zoom), onlyActive)
	if err != nil {
		return nil, fmt.Errorf("cluster stations in box: %w", err)
	}

	points := make([]InterestPoint, 0, len(rows))
	for _, row := range rows {
		if row.Count == 1 && row.SoleID != nil && row.SoleName != nil {
			points = append(points, StationPoint{
				ID:   *row.SoleID,
				Name: *row.SoleName,
				Lon:  row.CentroidLon,
				Lat:  row.CentroidLat,
			})
			continue
		}
		points = append(points, ClusterPoint{
			Lon:   row.CentroidLon,
			Lat:   row.CentroidLat,
			Count: row.Count,
		})
	}
	return points, nil
}

// ClosestAvailable returns the station nearest to the given point among
// those with at least one available charger.
// Returns ErrStationNotFound when no station has an available charger.
func (s *Service) ClosestAvailable(ctx context.Context, lon, lat float64) (*Station, error) {
	return s.repo.NearestAvailable(ctx, lon, lat)
}

// Create persists a new station.
func (s *Service) Create(ctx context.Context, st *Station) error {
	return s.repo.Create(ctx, st)
}

// Get retrieves a station by ID together with its chargers.
func (s *Service) Get(ctx context.Context, id int64) (*Station, error) {
	return s.repo.Get(ctx, id)
}

// CreateCharger persists a new charger under an existing station.
func (s *Service) CreateCharger(ctx context.Context, c *Charger) error {
	return s.repo.CreateCharger(ctx, c)
}

// GetCharger retrieves a charger by ID.
func (s *Service) GetCharger(ctx context.Context, id int64) (*Charger, error) {
	return s.repo.GetCharger(ctx, id)
}
