package station

import "context"

// StationSummary is the projection returned by bounding-box queries.
type StationSummary struct {
	ID   int64
	Name string
	Lon  float64
	Lat  float64
}

// ClusterRow is one row of the store-side clustering query. SoleID and
// SoleName are populated only when Count == 1, in which case the row stands
// for a single unclustered station.
type ClusterRow struct {
	Count       int64
	CentroidLon float64
	CentroidLat float64
	SoleID      *int64
	SoleName    *string
}

// Repository defines the interface for station data persistence and the
// spatial query primitives the services are built on.
type Repository interface {
	// Create persists a new station and assigns its ID.
	Create(ctx context.Context, s *Station) error

	// Get retrieves a station by ID together with its chargers.
	// Returns ErrStationNotFound if it doesn't exist.
	Get(ctx context.Context, id int64) (*Station, error)

	// CreateCharger persists a new charger and assigns its ID.
	// Returns ErrStationNotFound if the owning station doesn't exist.
	CreateCharger(ctx context.Context, c *Charger) error

	// GetCharger retrieves a charger by ID.
	// Returns ErrChargerNotFound if it doesn't exist.
	GetCharger(ctx context.Context, id int64) (*Charger, error)

	// StationsInBox returns all stations whose position lies within the box.
	// When onlyActive is true, stations with no available charger are excluded.
	StationsInBox(ctx context.Context, box BoundingBox, onlyActive bool) ([]StationSummary, error)

	// ClusterStationsInBox groups stations in the box by density: stations
	// transitively reachable within radius of each other form one cluster
	// (minimum size 2); the rest come back as singleton rows. Radius is in
	// the coordinate units of the stored geometry.
	ClusterStationsInBox(ctx context.Context, box BoundingBox, radius float64, onlyActive bool) ([]ClusterRow, error)

	// NearestAvailable returns the station closest to the given point among
	// those with at least one available charger.
	// Returns ErrStationNotFound when no such station exists.
	NearestAvailable(ctx context.Context, lon, lat float64) (*Station, error)
}
