package station_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/voltgrid/voltgrid/internal/station"
)

func addStation(t *testing.T, repo *station.InMemoryRepository, name string, lon, lat float64, availableChargers, unavailableChargers int) *station.Station {
	t.Helper()

	st := &station.Station{Name: name, Lon: lon, Lat: lat}
	if err := repo.Create(context.Background(), st); err != nil {
		t.Fatalf("failed to create station: %v", err)
	}

	for i := 0; i < availableChargers; i++ {
		c := &station.Charger{StationID: st.ID, Name: "AC", Available: true, MaxPower: 22}
		if err := repo.CreateCharger(context.Background(), c); err != nil {
			t.Fatalf("failed to create charger: %v", err)
		}
	}
	for i := 0; i < unavailableChargers; i++ {
		c := &station.Charger{StationID: st.ID, Name: "DC", Available: false, MaxPower: 150}
		if err := repo.CreateCharger(context.Background(), c); err != nil {
			t.Fatalf("failed to create charger: %v", err)
		}
	}
	return st
}

func TestService_InterestPoints_StreetLevel(t *testing.T) {
	repo := station.NewInMemoryRepository()
	service := station.NewService(repo)
	ctx := context.Background()

	inBox := addStation(t, repo, "Center Garage", 4.89, 52.37, 1, 0)
	addStation(t, repo, "Far Away", 30.0, 10.0, 1, 0)
	inactive := addStation(t, repo, "Broken Hub", 4.91, 52.36, 0, 2)

	box := station.BoundingBox{West: 4.0, South: 52.0, East: 5.0, North: 53.0}

	points, err := service.InterestPoints(ctx, box, station.MaxZoom, false)
	if err != nil {
		t.Fatalf("failed to get interest points: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	for _, p := range points {
		sp, ok := p.(station.StationPoint)
		if !ok {
			t.Fatalf("expected StationPoint at max zoom, got %T", p)
		}
		if sp.ID != inBox.ID && sp.ID != inactive.ID {
			t.Errorf("unexpected station %d in result", sp.ID)
		}
	}

	// onlyActive drops the station with no available charger.
	points, err = service.InterestPoints(ctx, box, station.MaxZoom, true)
	if err != nil {
		t.Fatalf("failed to get interest points: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point with onlyActive, got %d", len(points))
	}
	if sp := points[0].(station.StationPoint); sp.ID != inBox.ID {
		t.Errorf("expected station %d, got %d", inBox.ID, sp.ID)
	}
}

func TestService_InterestPoints_Clustering(t *testing.T) {
	repo := station.NewInMemoryRepository()
	service := station.NewService(repo)
	ctx := context.Background()

	// Two stations one degree apart cluster at zoom 0 (radius 10);
	// the third is on its own.
	addStation(t, repo, "West A", -10, 5, 1, 0)
	addStation(t, repo, "West B", -11, 5, 1, 0)
	lone := addStation(t, repo, "Lone", 15, 15, 1, 0)

	box := station.BoundingBox{West: -20, South: -20, East: 20, North: 20}

	points, err := service.InterestPoints(ctx, box, 0, false)
	if err != nil {
		t.Fatalf("failed to get interest points: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}

	var cluster *station.ClusterPoint
	var single *station.StationPoint
	for _, p := range points {
		switch v := p.(type) {
		case station.ClusterPoint:
			cluster = &v
		case station.StationPoint:
			single = &v
		}
	}

	if cluster == nil {
		t.Fatal("expected a cluster point")
	}
	if cluster.Count != 2 {
		t.Errorf("expected cluster count 2, got %d", cluster.Count)
	}
	if math.Abs(cluster.Lon-(-10.5)) > 1e-9 || math.Abs(cluster.Lat-5) > 1e-9 {
		t.Errorf("expected centroid (-10.5, 5), got (%v, %v)", cluster.Lon, cluster.Lat)
	}

	if single == nil {
		t.Fatal("expected a station point")
	}
	if single.ID != lone.ID {
		t.Errorf("expected station %d, got %d", lone.ID, single.ID)
	}
}

func TestService_InterestPoints_TransitiveClustering(t *testing.T) {
	repo := station.NewInMemoryRepository()
	service := station.NewService(repo)
	ctx := context.Background()

	// A chain: A-B and B-C are within the zoom-4 radius (0.625) but A-C is
	// not. Reachability still puts all three in one cluster.
	addStation(t, repo, "A", 0.0, 0, 1, 0)
	addStation(t, repo, "B", 0.5, 0, 1, 0)
	addStation(t, repo, "C", 1.0, 0, 1, 0)

	box := station.BoundingBox{West: -5, South: -5, East: 5, North: 5}

	points, err := service.InterestPoints(ctx, box, 4, false)
	if err != nil {
		t.Fatalf("failed to get interest points: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected a single cluster, got %d points", len(points))
	}

	cluster, ok := points[0].(station.ClusterPoint)
	if !ok {
		t.Fatalf("expected ClusterPoint, got %T", points[0])
	}
	if cluster.Count != 3 {
		t.Errorf("expected cluster count 3, got %d", cluster.Count)
	}
	if math.Abs(cluster.Lon-0.5) > 1e-9 {
		t.Errorf("expected centroid lon 0.5, got %v", cluster.Lon)
	}
}

func TestService_InterestPoints_CountConservation(t *testing.T) {
	repo := station.NewInMemoryRepository()
	service := station.NewService(repo)
	ctx := context.Background()

	positions := []struct{ lon, lat float64 }{
		{-10, 5}, {-11, 5}, {-10.5, 5.5}, {15, 15}, {0, 0}, {0.2, 0.1}, {18, -18},
	}
	for _, p := range positions {
		addStation(t, repo, "S", p.lon, p.lat, 1, 0)
	}

	box := station.BoundingBox{West: -20, South: -20, East: 20, North: 20}

	for zoom := 0; zoom <= station.MaxZoom; zoom++ {
		points, err := service.InterestPoints(ctx, box, zoom, false)
		if err != nil {
			t.Fatalf("zoom %d: failed to get interest points: %v", zoom, err)
		}

		var total int64
		for _, p := range points {
			switch v := p.(type) {
			case station.StationPoint:
				total++
			case station.ClusterPoint:
				if v.Count < 2 {
					t.Errorf("zoom %d: cluster with count %d", zoom, v.Count)
				}
				total += v.Count
			}
		}
		if total != int64(len(positions)) {
			t.Errorf("zoom %d: markers account for %d stations, want %d", zoom, total, len(positions))
		}
	}
}

func TestService_InterestPoints_InvalidBounds(t *testing.T) {
	service := station.NewService(station.NewInMemoryRepository())
	ctx := context.Background()

	tests := []struct {
		name string
		box  station.BoundingBox
		zoom int
	}{
		{"west greater than east", station.BoundingBox{West: 10, East: -10, South: 0, North: 10}, 10},
		{"south greater than north", station.BoundingBox{West: -10, East: 10, South: 10, North: 0}, 10},
		{"negative zoom", station.BoundingBox{West: -10, East: 10, South: -10, North: 10}, -1},
		{"zoom too large", station.BoundingBox{West: -10, East: 10, South: -10, North: 10}, 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.InterestPoints(ctx, tt.box, tt.zoom, false)
			if !errors.Is(err, station.ErrInvalidBounds) {
				t.Errorf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestService_InterestPoints_EmptyBox(t *testing.T) {
	service := station.NewService(station.NewInMemoryRepository())

	box := station.BoundingBox{West: 1, South: 1, East: 2, North: 2}
	for _, zoom := range []int{0, station.MaxZoom} {
		points, err := service.InterestPoints(context.Background(), box, zoom, false)
		if err != nil {
			t.Fatalf("zoom %d: expected no error for empty box, got %v", zoom, err)
		}
		if len(points) != 0 {
			t.Errorf("zoom %d: expected empty result, got %d points", zoom, len(points))
		}
	}
}

func TestService_ClosestAvailable(t *testing.T) {
	repo := station.NewInMemoryRepository()
	service := station.NewService(repo)
	ctx := context.Background()

	// The nearest station has only unavailable chargers; the resolver must
	// skip it for the farther one that can actually charge.
	addStation(t, repo, "Near But Dead", 0.1, 0.1, 0, 3)
	farther := addStation(t, repo, "Farther Alive", 2, 2, 1, 1)

	got, err := service.ClosestAvailable(ctx, 0, 0)
	if err != nil {
		t.Fatalf("failed to resolve closest available: %v", err)
	}
	if got.ID != farther.ID {
		t.Errorf("expected station %d, got %d", farther.ID, got.ID)
	}
}

func TestService_ClosestAvailable_NotFound(t *testing.T) {
	repo := station.NewInMemoryRepository()
	service := station.NewService(repo)

	addStation(t, repo, "All Dead", 1, 1, 0, 2)

	_, err := service.ClosestAvailable(context.Background(), 0, 0)
	if !errors.Is(err, station.ErrStationNotFound) {
		t.Errorf("expected ErrStationNotFound, got %v", err)
	}
}

func TestService_GetStationWithChargers(t *testing.T) {
	repo := station.NewInMemoryRepository()
	service := station.NewService(repo)
	ctx := context.Background()

	st := addStation(t, repo, "Hub", 4.89, 52.37, 2, 1)

	got, err := service.Get(ctx, st.ID)
	if err != nil {
		t.Fatalf("failed to get station: %v", err)
	}
	if got.Name != "Hub" {
		t.Errorf("expected name Hub, got %q", got.Name)
	}
	if len(got.Chargers) != 3 {
		t.Errorf("expected 3 chargers, got %d", len(got.Chargers))
	}

	_, err = service.Get(ctx, 9999)
	if !errors.Is(err, station.ErrStationNotFound) {
		t.Errorf("expected ErrStationNotFound, got %v", err)
	}
}
