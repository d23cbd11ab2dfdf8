package station

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE 23503, foreign_key_violation.
const pgerrForeignKeyViolation = "23503"

// PostgresRepository is a PostgreSQL/PostGIS implementation of Repository.
// The stations table carries a generated geometry column (SRID 4326) derived
// from lat/lon; all spatial predicates go through it.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a new station and assigns its ID.
func (r *PostgresRepository) Create(ctx context.Context, s *Station) error {
	query := `
		INSERT INTO stations (name, lat, lon)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query, s.Name, s.Lat, s.Lon).Scan(&s.ID)
}

// Get retrieves a station by ID together with its chargers.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Station, error) {
	var s Station

	query := `SELECT id, name, lat, lon FROM stations WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Lat, &s.Lon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	chargerQuery := `
		SELECT id, station_id, name, available, max_power
		FROM chargers
		WHERE station_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, chargerQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c Charger
		if err := rows.Scan(&c.ID, &c.StationID, &c.Name, &c.Available, &c.MaxPower); err != nil {
			return nil, err
		}
		s.Chargers = append(s.Chargers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}

// CreateCharger persists a new charger and assigns its ID.
// A foreign key violation on station_id maps to ErrStationNotFound.
func (r *PostgresRepository) CreateCharger(ctx context.Context, c *Charger) error {
	query := `
		INSERT INTO chargers (station_id, name, available, max_power)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, c.StationID, c.Name, c.Available, c.MaxPower).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrForeignKeyViolation {
			return ErrStationNotFound
		}
		return err
	}
	return nil
}

// GetCharger retrieves a charger by ID.
func (r *PostgresRepository) GetCharger(ctx context.Context, id int64) (*Charger, error) {
	var c Charger

	query := `SELECT id, station_id, name, available, max_power FROM chargers WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.StationID, &c.Name, &c.Available, &c.MaxPower)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChargerNotFound
		}
		return nil, err
	}

	return &c, nil
}

// StationsInBox returns all stations whose position lies within the box.
func (r *PostgresRepository) StationsInBox(ctx context.Context, box BoundingBox, onlyActive bool) ([]StationSummary, error) {
	query := `
		SELECT id, name, lon, lat
		FROM stations s
		WHERE s.geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		AND (
			NOT $5
			OR EXISTS (
				SELECT 1
				FROM chargers c
				WHERE c.station_id = s.id AND c.available
			)
		)
	`

	rows, err := r.pool.Query(ctx, query, box.West, box.South, box.East, box.North, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []StationSummary
	for rows.Next() {
		var s StationSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Lon, &s.Lat); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

// ClusterStationsInBox groups stations in the box with ST_ClusterDBSCAN.
// Stations assigned no cluster keep their own id as the group key, so they
// come back as singleton rows carrying their id and name.
func (r *PostgresRepository) ClusterStationsInBox(ctx context.Context, box BoundingBox, radius float64, onlyActive bool) ([]ClusterRow, error) {
	query := `
		SELECT
			COUNT(*) AS num_points,
			ST_X(ST_Centroid(ST_Collect(geom))) AS centroid_lon,
			ST_Y(ST_Centroid(ST_Collect(geom))) AS centroid_lat,
			CASE COUNT(id) WHEN 1 THEN MIN(id) END AS id,
			CASE COUNT(id) WHEN 1 THEN MIN(name) END AS name
		FROM (
			SELECT
				id,
				name,
				geom,
				ST_ClusterDBSCAN(geom, eps := $5, minpoints := 2) OVER () AS cluster_id
			FROM stations s
			WHERE
				geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)
				AND (
					NOT $6
					OR EXISTS (
						SELECT 1
						FROM chargers c
						WHERE c.station_id = s.id AND c.available
					)
				)
		) AS clustered
		GROUP BY COALESCE(clustered.cluster_id, clustered.id)
	`

	rows, err := r.pool.Query(ctx, query, box.West, box.South, box.East, box.North, radius, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clusters []ClusterRow
	for rows.Next() {
		var c ClusterRow
		if err := rows.Scan(&c.Count, &c.CentroidLon, &c.CentroidLat, &c.SoleID, &c.SoleName); err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return clusters, nil
}

// NearestAvailable returns the closest station with an available charger,
// using the KNN ordering of the spatial index.
func (r *PostgresRepository) NearestAvailable(ctx context.Context, lon, lat float64) (*Station, error) {
	query := `
		SELECT id, name, lat, lon
		FROM stations s
		WHERE EXISTS (
			SELECT 1
			FROM chargers c
			WHERE c.station_id = s.id AND c.available
		)
		ORDER BY s.geom <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
		LIMIT 1
	`

	var s Station
	err := r.pool.QueryRow(ctx, query, lon, lat).Scan(&s.ID, &s.Name, &s.Lat, &s.Lon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	return &s, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
