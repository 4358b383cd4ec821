package domain

import (
	"context"
	"time"
)

// Expense is one recorded cost on a trip. AmountMinor is in integer minor
// units of Currency (e.g. cents); the sum of participant shares always equals
// AmountMinor exactly.
// swagger:model Expense
type Expense struct {
	ID           string                `json:"id"`
	TripID       string                `json:"trip_id"`
	Title        string                `json:"title"`
	AmountMinor  int64                 `json:"amount_minor"`
	Currency     string                `json:"currency"`
	Date         time.Time             `json:"date"`
	CreatorID    string                `json:"creator_id"`
	Participants []*ExpenseParticipant `json:"participants"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ExpenseParticipant is one user's share of an expense, in the same currency
// as the parent expense. Paid defaults to true only for the creator.
// swagger:model ExpenseParticipant
type ExpenseParticipant struct {
	ExpenseID  string `json:"expense_id"`
	UserID     string `json:"user_id"`
	ShareMinor int64  `json:"share_minor"`
	Paid       bool   `json:"paid"`
}

// UserBalance is one member's aggregate position across all trip expenses.
// Net = Paid - Owed; positive means the member should receive money.
// swagger:model UserBalance
type UserBalance struct {
	UserID    string `json:"user_id"`
	PaidMinor int64  `json:"paid_minor"`
	OwedMinor int64  `json:"owed_minor"`
	NetMinor  int64  `json:"net_minor"`
}

// Settlement is a suggested single payment that reduces two members' net
// balances toward zero.
// swagger:model Settlement
type Settlement struct {
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
	AmountMinor int64  `json:"amount_minor"`
}

// ExpenseSummary is the derived who-owes-whom projection for a trip. It is
// recomputed in full on every read and never cached across mutations.
// swagger:model ExpenseSummary
type ExpenseSummary struct {
	TripID       string         `json:"trip_id"`
	TotalMinor   int64          `json:"total_minor"`
	Currency     string         `json:"currency"`
	ExpenseCount int            `json:"expense_count"`
	Balances     []*UserBalance `json:"balances"`
	Settlements  []*Settlement  `json:"settlements"`
}

// ExpenseRepository defines the interface for expense storage. Writes of an
// expense and its participant rows are atomic; a partially written expense is
// never observable.
type ExpenseRepository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id string) (*Expense, error)
	// Update replaces the expense row and all participant rows wholesale.
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id string) error
	// MarkParticipantPaid sets paid = true for the participant row.
	// Returns ErrNotFound when no such row exists.
	MarkParticipantPaid(ctx context.Context, expenseID, userID string) error
	// ListByTripID returns all expenses with participants, read at a single
	// consistent snapshot.
	ListByTripID(ctx context.Context, tripID string) ([]*Expense, error)
}

// ExpenseService records expenses with participant shares and computes trip
// settlement summaries.
type ExpenseService interface {
	AddExpense(ctx context.Context, e *Expense) (*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) (*Expense, error)
	DeleteExpense(ctx context.Context, expenseID, requesterID string) error
	MarkParticipantPaid(ctx context.Context, expenseID, userID string) error
	ComputeSummary(ctx context.Context, tripID, requesterID string) (*ExpenseSummary, error)
}
