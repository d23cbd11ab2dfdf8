package station

import (
	"context"
	"math"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
//
// Distances are Euclidean in degree space, matching the planar semantics of
// the SRID 4326 geometry operators the Postgres implementation relies on.
type InMemoryRepository struct {
	mu            sync.RWMutex
	stations      map[int64]*Station
	chargers      map[int64]*Charger
	nextStationID int64
	nextChargerID int64
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		stations: make(map[int64]*Station),
		chargers: make(map[int64]*Charger),
	}
}

// Create persists a new station and assigns its ID.
func (r *InMemoryRepository) Create(_ context.Context, s *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextStationID++
	s.ID = r.nextStationID

	cpy := *s
	cpy.Chargers = nil
	r.stations[s.ID] = &cpy
	return nil
}

// Get retrieves a station by ID together with its chargers.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}

	cpy := *s
	for _, c := range r.chargersOf(id) {
		cpy.Chargers = append(cpy.Chargers, *c)
	}
	return &cpy, nil
}

// CreateCharger persists a new charger and assigns its ID.
func (r *InMemoryRepository) CreateCharger(_ context.Context, c *Charger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[c.StationID]; !ok {
		return ErrStationNotFound
	}

	r.nextChargerID++
	c.ID = r.nextChargerID

	cpy := *c
	r.chargers[c.ID] = &cpy
	return nil
}

// GetCharger retrieves a charger by ID.
func (r *InMemoryRepository) GetCharger(_ context.Context, id int64) (*Charger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.chargers[id]
	if !ok {
		return nil, ErrChargerNotFound
	}

	cpy := *c
	return &cpy, nil
}

// StationsInBox returns all stations whose position lies within the box.
func (r *InMemoryRepository) StationsInBox(_ context.Context, box BoundingBox, onlyActive bool) ([]StationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []StationSummary
	for _, s := range r.matchingStations(box, onlyActive) {
		out = append(out, StationSummary{ID: s.ID, Name: s.Name, Lon: s.Lon, Lat: s.Lat})
	}
	return out, nil
}

// ClusterStationsInBox groups box-filtered stations with a union-find pass:
// any two stations within radius of each other are merged, transitively.
// Groups of one come back as singleton rows with id and name populated.
func (r *InMemoryRepository) ClusterStationsInBox(_ context.Context, box BoundingBox, radius float64, onlyActive bool) ([]ClusterRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stations := r.matchingStations(box, onlyActive)
	n := len(stations)

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		parent[find(i)] = find(j)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := stations[i].Lon - stations[j].Lon
			dy := stations[i].Lat - stations[j].Lat
			if math.Hypot(dx, dy) <= radius {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]*Station)
	for i, s := range stations {
		root := find(i)
		groups[root] = append(groups[root], s)
	}

	var out []ClusterRow
	for _, members := range groups {
		row := ClusterRow{Count: int64(len(members))}
		for _, m := range members {
			row.CentroidLon += m.Lon
			row.CentroidLat += m.Lat
		}
		row.CentroidLon /= float64(len(members))
		row.CentroidLat /= float64(len(members))

		if len(members) == 1 {
			sole := members[0]
			row.SoleID = &sole.ID
			row.SoleName = &sole.Name
		}
		out = append(out, row)
	}
	return out, nil
}

// NearestAvailable returns the closest station with an available charger.
func (r *InMemoryRepository) NearestAvailable(_ context.Context, lon, lat float64) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Station
	bestDist := math.Inf(1)
	for _, s := range r.sortedStations() {
		if !r.hasAvailableCharger(s.ID) {
			continue
		}
		d := math.Hypot(s.Lon-lon, s.Lat-lat)
		if d < bestDist {
			bestDist = d
			best = s
		}
	}

	if best == nil {
		return nil, ErrStationNotFound
	}

	cpy := *best
	return &cpy, nil
}

// matchingStations returns stations in the box, honoring the onlyActive
// filter. Callers must hold at least the read lock.
func (r *InMemoryRepository) matchingStations(box BoundingBox, onlyActive bool) []*Station {
	var out []*Station
	for _, s := range r.sortedStations() {
		if s.Lon < box.West || s.Lon > box.East || s.Lat < box.South || s.Lat > box.North {
			continue
		}
		if onlyActive && !r.hasAvailableCharger(s.ID) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// sortedStations returns stations in ID order for deterministic iteration.
func (r *InMemoryRepository) sortedStations() []*Station {
	out := make([]*Station, 0, len(r.stations))
	for _, s := range r.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *InMemoryRepository) hasAvailableCharger(stationID int64) bool {
	for _, c := range r.chargers {
		if c.StationID == stationID && c.Available {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) chargersOf(stationID int64) []*Charger {
	var out []*Charger
	for _, c := range r.chargers {
		if c.StationID == stationID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
