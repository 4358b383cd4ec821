package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripsync/internal/domain"
)

type tripRepository struct {
	DB *sql.DB
}

// NewTripRepository returns a domain.TripRepository implemented with Postgres.
func NewTripRepository(db *sql.DB) domain.TripRepository {
	return &tripRepository{DB: db}
}

const tripColumns = `id, name, location, start_date, end_date, guest_limit, invite_code, created_by, created_at, updated_at`

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip, planner *domain.TripMembership) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	planner.TripID = trip.ID

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO trips (id, name, location, start_date, end_date, guest_limit, invite_code, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := tx.ExecContext(ctx, query,
		trip.ID, trip.Name, trip.Location, nullTime(trip.StartDate), nullTime(trip.EndDate),
		guestLimitValue(trip.GuestLimit), trip.InviteCode, trip.CreatedBy,
		trip.CreatedAt, trip.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}

	memberQuery := `
		INSERT INTO trip_memberships (trip_id, user_id, role, rsvp_status, waitlist_position, invited_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, memberQuery,
		planner.TripID, planner.UserID, planner.Role, planner.RSVPStatus,
		nil, planner.InvitedAt, planner.RespondedAt,
	); err != nil {
		return fmt.Errorf("insert planner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return scanTrip(r.DB.QueryRowContext(ctx, query, id))
}

func (r *tripRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE invite_code = $1`
	return scanTrip(r.DB.QueryRowContext(ctx, query, code))
}

func (r *tripRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Trip, error) {
	query := `
		SELECT t.id, t.name, t.location, t.start_date, t.end_date, t.guest_limit, t.invite_code, t.created_by, t.created_at, t.updated_at
		FROM trips t
		JOIN trip_memberships m ON m.trip_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.start_date NULLS LAST, t.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []*domain.Trip{}
	}
	return trips, nil
}

func (r *tripRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	trip := &domain.Trip{}
	var guestLimit sql.NullInt64
	var startDate, endDate sql.NullTime
	err := row.Scan(
		&trip.ID, &trip.Name, &trip.Location, &startDate, &endDate,
		&guestLimit, &trip.InviteCode, &trip.CreatedBy, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if startDate.Valid {
		trip.StartDate = startDate.Time
	}
	if endDate.Valid {
		trip.EndDate = endDate.Time
	}
	if guestLimit.Valid {
		limit := int(guestLimit.Int64)
		trip.GuestLimit = &limit
	}
	return trip, nil
}

func guestLimitValue(limit *int) any {
	if limit == nil {
		return nil
	}
	return *limit
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
