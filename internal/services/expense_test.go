package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tripsync/internal/domain"
)

type fakeExpenseRepo struct {
	expenses map[string]*domain.Expense
	nextID   int
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: make(map[string]*domain.Expense)}
}

func (f *fakeExpenseRepo) Create(ctx context.Context, e *domain.Expense) error {
	if e.ID == "" {
		f.nextID++
		e.ID = fmt.Sprintf("expense-%d", f.nextID)
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeExpenseRepo) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeExpenseRepo) Update(ctx context.Context, e *domain.Expense) error {
	if _, ok := f.expenses[e.ID]; !ok {
		return domain.ErrNotFound
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeExpenseRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.expenses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeExpenseRepo) MarkParticipantPaid(ctx context.Context, expenseID, userID string) error {
	e, ok := f.expenses[expenseID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, p := range e.Participants {
		if p.UserID == userID {
			p.Paid = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeExpenseRepo) ListByTripID(ctx context.Context, tripID string) ([]*domain.Expense, error) {
	var out []*domain.Expense
	for _, e := range f.expenses {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

// expenseFixture wires a trip with a planner and two guests, all members.
func expenseFixture() (*fakeExpenseRepo, *fakeMembershipRepo, *fakeTripRepo, domain.ExpenseService) {
	expenseRepo := newFakeExpenseRepo()
	membershipRepo := newFakeMembershipRepo()
	tripRepo := newFakeTripRepo(membershipRepo)

	trip := membershipRepo.addTrip("trip-1", nil)
	tripRepo.trips[trip.ID] = trip
	membershipRepo.addMember("trip-1", "alice", domain.RolePlanner, domain.RSVPGoing, nil)
	membershipRepo.addMember("trip-1", "bob", domain.RoleGuest, domain.RSVPGoing, nil)
	membershipRepo.addMember("trip-1", "carol", domain.RoleGuest, domain.RSVPMaybe, nil)

	svc := NewExpenseService(expenseRepo, membershipRepo, tripRepo, time.Second)
	return expenseRepo, membershipRepo, tripRepo, svc
}

func newExpense(tripID, creatorID string, amount int64, userIDs ...string) *domain.Expense {
	e := &domain.Expense{
		TripID:      tripID,
		Title:       "dinner",
		AmountMinor: amount,
		Currency:    "USD",
		Date:        time.Now(),
		CreatorID:   creatorID,
	}
	for _, id := range userIDs {
		e.Participants = append(e.Participants, &domain.ExpenseParticipant{UserID: id})
	}
	return e
}

func TestAddExpense_EqualSplit(t *testing.T) {
	_, _, _, svc := expenseFixture()

	created, err := svc.AddExpense(context.Background(), newExpense("trip-1", "alice", 10000, "alice", "bob", "carol"))
	require.NoError(t, err)

	require.Equal(t, int64(3334), created.Participants[0].ShareMinor)
	require.Equal(t, int64(3333), created.Participants[1].ShareMinor)
	require.Equal(t, int64(3333), created.Participants[2].ShareMinor)

	// The payer's own share starts settled; everyone else owes.
	require.True(t, created.Participants[0].Paid)
	require.False(t, created.Participants[1].Paid)
	require.False(t, created.Participants[2].Paid)
}

func TestAddExpense_EqualSplitSmallerThanParticipants(t *testing.T) {
	_, _, _, svc := expenseFixture()

	// Two minor units across three people leaves a zero trailing share,
	// which is a valid, persistable split.
	created, err := svc.AddExpense(context.Background(), newExpense("trip-1", "alice", 2, "alice", "bob", "carol"))
	require.NoError(t, err)

	require.Equal(t, int64(1), created.Participants[0].ShareMinor)
	require.Equal(t, int64(1), created.Participants[1].ShareMinor)
	require.Equal(t, int64(0), created.Participants[2].ShareMinor)

	var sum int64
	for _, p := range created.Participants {
		sum += p.ShareMinor
	}
	require.Equal(t, created.AmountMinor, sum)
}

func TestAddExpense_ExplicitShares(t *testing.T) {
	_, _, _, svc := expenseFixture()

	e := newExpense("trip-1", "alice", 5000, "alice", "bob")
	e.Participants[0].ShareMinor = 1500
	e.Participants[1].ShareMinor = 3500

	created, err := svc.AddExpense(context.Background(), e)
	require.NoError(t, err)
	require.Equal(t, int64(1500), created.Participants[0].ShareMinor)
	require.Equal(t, int64(3500), created.Participants[1].ShareMinor)
}

func TestAddExpense_SharesMustSumToAmount(t *testing.T) {
	_, _, _, svc := expenseFixture()

	e := newExpense("trip-1", "alice", 5000, "alice", "bob")
	e.Participants[0].ShareMinor = 1500
	e.Participants[1].ShareMinor = 3000

	_, err := svc.AddExpense(context.Background(), e)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddExpense_Validation(t *testing.T) {
	_, _, _, svc := expenseFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(e *domain.Expense)
		wantErr error
	}{
		{
			name:    "empty title",
			mutate:  func(e *domain.Expense) { e.Title = " " },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "zero amount",
			mutate:  func(e *domain.Expense) { e.AmountMinor = 0 },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "bad currency",
			mutate:  func(e *domain.Expense) { e.Currency = "dollars" },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "no participants",
			mutate:  func(e *domain.Expense) { e.Participants = nil },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown trip",
			mutate:  func(e *domain.Expense) { e.TripID = "missing" },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "payer not a member",
			mutate:  func(e *domain.Expense) { e.CreatorID = "stranger" },
			wantErr: domain.ErrForbidden,
		},
		{
			name: "participant not a member",
			mutate: func(e *domain.Expense) {
				e.Participants = append(e.Participants, &domain.ExpenseParticipant{UserID: "stranger"})
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "duplicate participant",
			mutate: func(e *domain.Expense) {
				e.Participants = append(e.Participants, &domain.ExpenseParticipant{UserID: "bob"})
			},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExpense("trip-1", "alice", 4000, "alice", "bob")
			tt.mutate(e)
			_, err := svc.AddExpense(ctx, e)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddExpense_RejectsMixedCurrency(t *testing.T) {
	_, _, _, svc := expenseFixture()
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, newExpense("trip-1", "alice", 3000, "alice", "bob"))
	require.NoError(t, err)

	second := newExpense("trip-1", "alice", 2000, "alice", "bob")
	second.Currency = "EUR"
	_, err = svc.AddExpense(ctx, second)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateExpense_ReplacesSharesAndKeepsPayer(t *testing.T) {
	_, _, _, svc := expenseFixture()
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, newExpense("trip-1", "alice", 3000, "alice", "bob", "carol"))
	require.NoError(t, err)

	update := newExpense("", "bob", 4000, "alice", "bob")
	update.ID = created.ID
	updated, err := svc.UpdateExpense(ctx, update)
	require.NoError(t, err)

	require.Equal(t, "trip-1", updated.TripID)
	require.Equal(t, "alice", updated.CreatorID)
	require.Equal(t, int64(4000), updated.AmountMinor)
	require.Len(t, updated.Participants, 2)
}

func TestUpdateExpense_NotFound(t *testing.T) {
	_, _, _, svc := expenseFixture()

	update := newExpense("trip-1", "alice", 4000, "alice")
	update.ID = "missing"
	_, err := svc.UpdateExpense(context.Background(), update)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteExpense_RequiresMembership(t *testing.T) {
	_, _, _, svc := expenseFixture()
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, newExpense("trip-1", "alice", 3000, "alice", "bob"))
	require.NoError(t, err)

	err = svc.DeleteExpense(ctx, created.ID, "stranger")
	require.ErrorIs(t, err, domain.ErrForbidden)

	err = svc.DeleteExpense(ctx, created.ID, "bob")
	require.NoError(t, err)

	err = svc.DeleteExpense(ctx, created.ID, "bob")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkParticipantPaid(t *testing.T) {
	_, _, _, svc := expenseFixture()
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, newExpense("trip-1", "alice", 3000, "alice", "bob"))
	require.NoError(t, err)

	require.NoError(t, svc.MarkParticipantPaid(ctx, created.ID, "bob"))
	// Idempotent.
	require.NoError(t, svc.MarkParticipantPaid(ctx, created.ID, "bob"))

	err = svc.MarkParticipantPaid(ctx, created.ID, "carol")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComputeSummary(t *testing.T) {
	_, _, _, svc := expenseFixture()
	ctx := context.Background()

	// Alice pays 30.00 split three ways; Bob pays 60.00 split three ways.
	_, err := svc.AddExpense(ctx, newExpense("trip-1", "alice", 3000, "alice", "bob", "carol"))
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, newExpense("trip-1", "bob", 6000, "alice", "bob", "carol"))
	require.NoError(t, err)

	summary, err := svc.ComputeSummary(ctx, "trip-1", "carol")
	require.NoError(t, err)

	require.Equal(t, int64(9000), summary.TotalMinor)
	require.Equal(t, "USD", summary.Currency)
	require.Equal(t, 2, summary.ExpenseCount)
	require.Len(t, summary.Balances, 3)

	var sum int64
	for _, b := range summary.Balances {
		require.Equal(t, b.PaidMinor-b.OwedMinor, b.NetMinor)
		sum += b.NetMinor
	}
	require.Equal(t, int64(0), sum)

	// Carol owes 3000 total and Bob is owed 3000: one transfer settles it.
	require.Len(t, summary.Settlements, 1)
	require.Equal(t, "carol", summary.Settlements[0].FromUserID)
	require.Equal(t, "bob", summary.Settlements[0].ToUserID)
	require.Equal(t, int64(3000), summary.Settlements[0].AmountMinor)
}

func TestComputeSummary_EmptyTrip(t *testing.T) {
	_, _, _, svc := expenseFixture()

	summary, err := svc.ComputeSummary(context.Background(), "trip-1", "alice")
	require.NoError(t, err)
	require.Equal(t, int64(0), summary.TotalMinor)
	require.Equal(t, 0, summary.ExpenseCount)
	require.Empty(t, summary.Balances)
	require.Empty(t, summary.Settlements)
}

func TestComputeSummary_AccessControl(t *testing.T) {
	_, _, _, svc := expenseFixture()
	ctx := context.Background()

	_, err := svc.ComputeSummary(ctx, "missing", "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ComputeSummary(ctx, "trip-1", "stranger")
	require.ErrorIs(t, err, domain.ErrForbidden)
}
