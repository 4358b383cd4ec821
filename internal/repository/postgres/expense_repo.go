package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tripsync/internal/domain"
)

type expenseRepository struct {
	DB *sql.DB
}

// NewExpenseRepository returns a domain.ExpenseRepository implemented with
// Postgres.
func NewExpenseRepository(db *sql.DB) domain.ExpenseRepository {
	return &expenseRepository{DB: db}
}

// Create persists the expense and all participant rows in one transaction.
func (r *expenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (id, trip_id, title, amount_minor, currency, date, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, query,
		e.ID, e.TripID, e.Title, e.AmountMinor, e.Currency, e.Date,
		e.CreatorID, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	if err := insertParticipants(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	query := `
		SELECT id, trip_id, title, amount_minor, currency, date, creator_id, created_at, updated_at
		FROM expenses WHERE id = $1
	`
	e := &domain.Expense{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.TripID, &e.Title, &e.AmountMinor, &e.Currency, &e.Date,
		&e.CreatorID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT expense_id, user_id, share_minor, paid FROM expense_participants WHERE expense_id = $1 ORDER BY user_id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p := &domain.ExpenseParticipant{}
		if err := rows.Scan(&p.ExpenseID, &p.UserID, &p.ShareMinor, &p.Paid); err != nil {
			return nil, err
		}
		e.Participants = append(e.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces the expense row and its participant rows wholesale
// (delete-and-reinsert) so a partial participant update is never observable.
func (r *expenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE expenses
		SET title = $2, amount_minor = $3, currency = $4, date = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := tx.ExecContext(ctx, query, e.ID, e.Title, e.AmountMinor, e.Currency, e.Date, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_participants WHERE expense_id = $1`, e.ID); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if err := insertParticipants(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the expense; participant rows cascade.
func (r *expenseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
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

func (r *expenseRepository) MarkParticipantPaid(ctx context.Context, expenseID, userID string) error {
	query := `UPDATE expense_participants SET paid = TRUE WHERE expense_id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, expenseID, userID)
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

// ListByTripID reads all expenses and participants for the trip inside one
// repeatable-read transaction, so the summary computation sees a consistent
// snapshot even while expenses are being written.
func (r *expenseRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.Expense, error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, trip_id, title, amount_minor, currency, date, creator_id, created_at, updated_at
		FROM expenses WHERE trip_id = $1 ORDER BY date, created_at
	`, tripID)
	if err != nil {
		return nil, err
	}

	var expenses []*domain.Expense
	byID := make(map[string]*domain.Expense)
	for rows.Next() {
		e := &domain.Expense{}
		if err := rows.Scan(
			&e.ID, &e.TripID, &e.Title, &e.AmountMinor, &e.Currency, &e.Date,
			&e.CreatorID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, err
		}
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pRows, err := tx.QueryContext(ctx, `
		SELECT p.expense_id, p.user_id, p.share_minor, p.paid
		FROM expense_participants p
		JOIN expenses e ON e.id = p.expense_id
		WHERE e.trip_id = $1
		ORDER BY p.expense_id, p.user_id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer pRows.Close()

	for pRows.Next() {
		p := &domain.ExpenseParticipant{}
		if err := pRows.Scan(&p.ExpenseID, &p.UserID, &p.ShareMinor, &p.Paid); err != nil {
			return nil, err
		}
		if e, ok := byID[p.ExpenseID]; ok {
			e.Participants = append(e.Participants, p)
		}
	}
	if err := pRows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	if expenses == nil {
		expenses = []*domain.Expense{}
	}
	return expenses, nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, e *domain.Expense) error {
	query := `
		INSERT INTO expense_participants (expense_id, user_id, share_minor, paid)
		VALUES ($1, $2, $3, $4)
	`
	for _, p := range e.Participants {
		p.ExpenseID = e.ID
		if _, err := tx.ExecContext(ctx, query, p.ExpenseID, p.UserID, p.ShareMinor, p.Paid); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}
