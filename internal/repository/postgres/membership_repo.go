package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"tripsync/internal/domain"
)

const membershipColumns = `trip_id, user_id, role, rsvp_status, waitlist_position, invited_at, responded_at`

type membershipRepository struct {
	DB *sql.DB
}

// NewMembershipRepository returns a domain.MembershipRepository implemented
// with Postgres.
func NewMembershipRepository(db *sql.DB) domain.MembershipRepository {
	return &membershipRepository{DB: db}
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.TripMembership) error {
	query := `
		INSERT INTO trip_memberships (trip_id, user_id, role, rsvp_status, waitlist_position, invited_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		m.TripID, m.UserID, m.Role, m.RSVPStatus,
		waitlistPositionValue(m.WaitlistPosition), m.InvitedAt, m.RespondedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return domain.ErrAlreadyMember
			case "23503": // foreign_key_violation
				return domain.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (r *membershipRepository) GetByTripAndUser(ctx context.Context, tripID, userID string) (*domain.TripMembership, error) {
	query := `SELECT ` + membershipColumns + ` FROM trip_memberships WHERE trip_id = $1 AND user_id = $2`
	return scanMembership(r.DB.QueryRowContext(ctx, query, tripID, userID))
}

func (r *membershipRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.TripMembership, error) {
	query := `SELECT ` + membershipColumns + ` FROM trip_memberships WHERE trip_id = $1 ORDER BY invited_at, user_id`
	rows, err := r.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.TripMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if members == nil {
		members = []*domain.TripMembership{}
	}
	return members, nil
}

// InTripTx locks the trip row with SELECT ... FOR UPDATE and runs fn inside
// the transaction. Concurrent RSVP submissions for the same trip serialize on
// this lock, so a capacity check observed inside fn cannot be invalidated
// before commit.
func (r *membershipRepository) InTripTx(ctx context.Context, tripID string, fn func(trip *domain.Trip, tx domain.MembershipTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	trip, err := scanTrip(tx.QueryRowContext(ctx, query, tripID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := fn(trip, &membershipTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "40001" { // serialization_failure
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

// membershipTx implements domain.MembershipTx over an open transaction.
type membershipTx struct {
	tx *sql.Tx
}

func (t *membershipTx) GetMembership(ctx context.Context, tripID, userID string) (*domain.TripMembership, error) {
	query := `SELECT ` + membershipColumns + ` FROM trip_memberships WHERE trip_id = $1 AND user_id = $2`
	return scanMembership(t.tx.QueryRowContext(ctx, query, tripID, userID))
}

func (t *membershipTx) CountGoing(ctx context.Context, tripID, excludeUserID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM trip_memberships
		WHERE trip_id = $1 AND rsvp_status = 'going' AND user_id <> $2
	`
	var count int
	if err := t.tx.QueryRowContext(ctx, query, tripID, excludeUserID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (t *membershipTx) MaxWaitlistPosition(ctx context.Context, tripID string) (int, error) {
	query := `SELECT COALESCE(MAX(waitlist_position), 0) FROM trip_memberships WHERE trip_id = $1`
	var max int
	if err := t.tx.QueryRowContext(ctx, query, tripID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (t *membershipTx) FirstWaitlisted(ctx context.Context, tripID string) (*domain.TripMembership, error) {
	query := `
		SELECT ` + membershipColumns + ` FROM trip_memberships
		WHERE trip_id = $1 AND rsvp_status = 'waitlist'
		ORDER BY waitlist_position
		LIMIT 1
	`
	return scanMembership(t.tx.QueryRowContext(ctx, query, tripID))
}

func (t *membershipTx) UpdateRSVP(ctx context.Context, m *domain.TripMembership) error {
	query := `
		UPDATE trip_memberships
		SET rsvp_status = $3, waitlist_position = $4, responded_at = $5
		WHERE trip_id = $1 AND user_id = $2
	`
	res, err := t.tx.ExecContext(ctx, query,
		m.TripID, m.UserID, m.RSVPStatus,
		waitlistPositionValue(m.WaitlistPosition), m.RespondedAt,
	)
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

func (t *membershipTx) ShiftWaitlistAbove(ctx context.Context, tripID string, pos int) error {
	query := `
		UPDATE trip_memberships
		SET waitlist_position = waitlist_position - 1
		WHERE trip_id = $1 AND waitlist_position > $2
	`
	_, err := t.tx.ExecContext(ctx, query, tripID, pos)
	return err
}

func scanMembership(row rowScanner) (*domain.TripMembership, error) {
	m := &domain.TripMembership{}
	var pos sql.NullInt64
	var respondedAt sql.NullTime
	err := row.Scan(&m.TripID, &m.UserID, &m.Role, &m.RSVPStatus, &pos, &m.InvitedAt, &respondedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if pos.Valid {
		p := int(pos.Int64)
		m.WaitlistPosition = &p
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		m.RespondedAt = &t
	}
	return m, nil
}

func waitlistPositionValue(pos *int) any {
	if pos == nil {
		return nil
	}
	return *pos
}
