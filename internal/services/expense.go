package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tripsync/internal/calculator"
	"tripsync/internal/domain"
)

var currencyRegexp = regexp.MustCompile(`^[A-Z]{3}$`)

type expenseService struct {
	expenseRepo    domain.ExpenseRepository
	membershipRepo domain.MembershipRepository
	tripRepo       domain.TripRepository
	contextTimeout time.Duration
}

// NewExpenseService creates an ExpenseService with the given repositories.
func NewExpenseService(
	expenseRepo domain.ExpenseRepository,
	membershipRepo domain.MembershipRepository,
	tripRepo domain.TripRepository,
	timeout time.Duration,
) domain.ExpenseService {
	return &expenseService{
		expenseRepo:    expenseRepo,
		membershipRepo: membershipRepo,
		tripRepo:       tripRepo,
		contextTimeout: timeout,
	}
}

// AddExpense validates and records an expense with its participant shares.
// When every submitted share is zero the amount is split equally in
// participant-list order, remainder first.
func (s *expenseService) AddExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.prepare(ctx, e, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.expenseRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

// UpdateExpense re-validates the expense and replaces its participants
// wholesale. Incremental patching is deliberately not supported.
func (s *expenseService) UpdateExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.expenseRepo.GetByID(ctx, e.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	e.TripID = existing.TripID
	e.CreatorID = existing.CreatorID
	e.CreatedAt = existing.CreatedAt

	if err := s.prepare(ctx, e, e.ID); err != nil {
		return nil, err
	}

	e.UpdatedAt = time.Now()
	if err := s.expenseRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	return e, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, expenseID, requesterID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get expense: %w", err)
	}
	if _, err := s.membershipRepo.GetByTripAndUser(ctx, existing.TripID, requesterID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: only trip members can delete expenses", domain.ErrForbidden)
		}
		return fmt.Errorf("get membership: %w", err)
	}
	if err := s.expenseRepo.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// MarkParticipantPaid is idempotent: marking an already-paid participant is
// not an error.
func (s *expenseService) MarkParticipantPaid(ctx context.Context, expenseID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.expenseRepo.MarkParticipantPaid(ctx, expenseID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("mark participant paid: %w", err)
	}
	return nil
}

// ComputeSummary is a pure read-side projection: it loads all trip expenses
// at one snapshot and recomputes balances and suggested settlements in full.
// Nothing is cached, so the numbers can never go stale behind a mutation.
func (s *expenseService) ComputeSummary(ctx context.Context, tripID, requesterID string) (*domain.ExpenseSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.tripRepo.GetByID(ctx, tripID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if _, err := s.membershipRepo.GetByTripAndUser(ctx, tripID, requesterID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: only trip members can view the summary", domain.ErrForbidden)
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}

	expenses, err := s.expenseRepo.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	summary := &domain.ExpenseSummary{
		TripID:       tripID,
		ExpenseCount: len(expenses),
		Balances:     []*domain.UserBalance{},
		Settlements:  []*domain.Settlement{},
	}

	forBalance := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		summary.TotalMinor += e.AmountMinor
		if summary.Currency == "" {
			summary.Currency = e.Currency
		}
		shares := make([]calculator.Share, len(e.Participants))
		for j, p := range e.Participants {
			shares[j] = calculator.Share{UserID: p.UserID, AmountMinor: p.ShareMinor}
		}
		forBalance[i] = calculator.ExpenseForBalance{
			CreatorID:   e.CreatorID,
			AmountMinor: e.AmountMinor,
			Shares:      shares,
		}
	}

	balances := calculator.ComputeBalances(forBalance)
	for _, b := range balances {
		summary.Balances = append(summary.Balances, &domain.UserBalance{
			UserID:    b.UserID,
			PaidMinor: b.PaidMinor,
			OwedMinor: b.OwedMinor,
			NetMinor:  b.NetMinor,
		})
	}
	for _, t := range calculator.Settle(balances) {
		summary.Settlements = append(summary.Settlements, &domain.Settlement{
			FromUserID:  t.FromUserID,
			ToUserID:    t.ToUserID,
			AmountMinor: t.AmountMinor,
		})
	}
	return summary, nil
}

// prepare validates the expense against the trip's membership and currency
// rules and normalizes shares and paid flags. excludeExpenseID skips the
// expense's own row during the single-currency check on update.
func (s *expenseService) prepare(ctx context.Context, e *domain.Expense, excludeExpenseID string) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if e.AmountMinor <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if !currencyRegexp.MatchString(e.Currency) {
		return fmt.Errorf("%w: currency must be a three-letter ISO 4217 code", domain.ErrInvalidInput)
	}
	if len(e.Participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", domain.ErrInvalidInput)
	}

	if _, err := s.tripRepo.GetByID(ctx, e.TripID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get trip: %w", err)
	}

	members, err := s.membershipRepo.ListByTripID(ctx, e.TripID)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m.UserID] = true
	}
	if !memberSet[e.CreatorID] {
		return fmt.Errorf("%w: the payer must be a trip member", domain.ErrForbidden)
	}

	seen := make(map[string]bool, len(e.Participants))
	equalSplit := true
	for _, p := range e.Participants {
		if seen[p.UserID] {
			return fmt.Errorf("%w: duplicate participant %s", domain.ErrInvalidInput, p.UserID)
		}
		seen[p.UserID] = true
		if !memberSet[p.UserID] {
			return fmt.Errorf("%w: participant %s is not a trip member", domain.ErrInvalidInput, p.UserID)
		}
		if p.ShareMinor != 0 {
			equalSplit = false
		}
	}

	if equalSplit {
		shares, err := calculator.EqualShares(e.AmountMinor, len(e.Participants))
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		for i, p := range e.Participants {
			p.ShareMinor = shares[i]
		}
	} else {
		for _, p := range e.Participants {
			if p.ShareMinor <= 0 {
				return fmt.Errorf("%w: share for %s must be positive", domain.ErrInvalidInput, p.UserID)
			}
		}
		var sum int64
		for _, p := range e.Participants {
			sum += p.ShareMinor
		}
		if sum != e.AmountMinor {
			return fmt.Errorf("%w: participant shares sum to %d, expected %d", domain.ErrInvalidInput, sum, e.AmountMinor)
		}
	}

	// A trip's ledger is single-currency: the first recorded expense fixes it.
	existing, err := s.expenseRepo.ListByTripID(ctx, e.TripID)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	for _, other := range existing {
		if other.ID == excludeExpenseID {
			continue
		}
		if other.Currency != e.Currency {
			return fmt.Errorf("%w: trip expenses use %s, got %s", domain.ErrInvalidInput, other.Currency, e.Currency)
		}
	}

	for _, p := range e.Participants {
		p.Paid = p.UserID == e.CreatorID
	}
	return nil
}
