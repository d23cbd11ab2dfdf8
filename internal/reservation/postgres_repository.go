package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// overlapConstraint is the exclusion constraint on
// (charger_id, tstzrange(starts_at, ends_at)) that serializes concurrent
// bookings. Its rejection is the only signal translated into
// ErrReservationConflict; everything else propagates as-is.
const overlapConstraint = "reservations_no_overlap"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL reservation repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a new reservation and assigns its ID. Overlap detection
// happens inside the insert via the exclusion constraint, so no lock is held
// across the call.
func (r *PostgresRepository) Create(ctx context.Context, res *Reservation) error {
	query := `
		INSERT INTO reservations (user_id, charger_id, starts_at, ends_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, res.UserID, res.ChargerID, res.StartsAt, res.EndsAt).Scan(&res.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrExclusionViolation && pgErr.ConstraintName == overlapConstraint {
			return ErrReservationConflict
		}
		return err
	}
	return nil
}

// pgerrExclusionViolation is SQLSTATE 23P01, exclusion_violation.
const pgerrExclusionViolation = "23P01"

// Get retrieves a reservation by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Reservation, error) {
	query := `
		SELECT id, user_id, charger_id, starts_at, ends_at
		FROM reservations
		WHERE id = $1
	`

	var res Reservation
	err := r.pool.QueryRow(ctx, query, id).Scan(&res.ID, &res.UserID, &res.ChargerID, &res.StartsAt, &res.EndsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListByUser returns a user's reservations ordered by temporal proximity to
// now. The ordering is expressed in SQL against the single instant passed
// in, never against the database clock.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, now time.Time) ([]*Reservation, error) {
	query := `
		SELECT id, user_id, charger_id, starts_at, ends_at
		FROM reservations r
		WHERE user_id = $1
		ORDER BY
			CASE WHEN r.starts_at >= $2 THEN 0 ELSE 1 END,
			CASE WHEN r.starts_at >= $2 THEN r.starts_at END ASC,
			CASE WHEN r.starts_at < $2 THEN r.starts_at END DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.ChargerID, &res.StartsAt, &res.EndsAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}

// Delete removes a reservation by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	return err
}

// DeleteEndedBefore removes reservations whose end precedes the cutoff.
func (r *PostgresRepository) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE ends_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
