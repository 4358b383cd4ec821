package calculator

import "sort"

// ExpenseForBalance carries the minimal expense information needed for
// balance aggregation.
type ExpenseForBalance struct {
	CreatorID   string
	AmountMinor int64
	Shares      []Share
}

// Share is one participant's slice of an expense.
type Share struct {
	UserID      string
	AmountMinor int64
}

// Balance is one member's aggregate position. Net = Paid - Owed; positive
// means the member is a net creditor.
type Balance struct {
	UserID    string
	PaidMinor int64
	OwedMinor int64
	NetMinor  int64
}

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	FromUserID  string
	ToUserID    string
	AmountMinor int64
}

// ComputeBalances aggregates paid and owed totals per user across all
// expenses. Paid is the sum of expense amounts where the user is the payer of
// record; Owed is the sum of the user's shares across all expenses. The
// result is sorted by user ID so repeated computations are identical.
func ComputeBalances(expenses []ExpenseForBalance) []Balance {
	byUser := make(map[string]*Balance)
	get := func(userID string) *Balance {
		b, ok := byUser[userID]
		if !ok {
			b = &Balance{UserID: userID}
			byUser[userID] = b
		}
		return b
	}

	for _, e := range expenses {
		get(e.CreatorID).PaidMinor += e.AmountMinor
		for _, s := range e.Shares {
			get(s.UserID).OwedMinor += s.AmountMinor
		}
	}

	balances := make([]Balance, 0, len(byUser))
	for _, b := range byUser {
		b.NetMinor = b.PaidMinor - b.OwedMinor
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].UserID < balances[j].UserID
	})
	return balances
}

// Settle produces a plan of pairwise transfers that exactly clears every
// nonzero net balance. It greedily matches the largest debtor against the
// largest creditor, which yields at most N-1 transfers for N unsettled
// parties. Ties break on user ID so the plan is deterministic.
func Settle(balances []Balance) []Transfer {
	var debtors, creditors []Balance
	for _, b := range balances {
		switch {
		case b.NetMinor < 0:
			debtors = append(debtors, b)
		case b.NetMinor > 0:
			creditors = append(creditors, b)
		}
	}
	// Most negative debtor first, most positive creditor first.
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].NetMinor != debtors[j].NetMinor {
			return debtors[i].NetMinor < debtors[j].NetMinor
		}
		return debtors[i].UserID < debtors[j].UserID
	})
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].NetMinor != creditors[j].NetMinor {
			return creditors[i].NetMinor > creditors[j].NetMinor
		}
		return creditors[i].UserID < creditors[j].UserID
	})

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owes := -debtors[i].NetMinor
		owed := creditors[j].NetMinor
		amount := owes
		if owed < amount {
			amount = owed
		}
		if amount > 0 {
			transfers = append(transfers, Transfer{
				FromUserID:  debtors[i].UserID,
				ToUserID:    creditors[j].UserID,
				AmountMinor: amount,
			})
		}
		debtors[i].NetMinor += amount
		creditors[j].NetMinor -= amount
		if debtors[i].NetMinor == 0 {
			i++
		}
		if creditors[j].NetMinor == 0 {
			j++
		}
	}
	return transfers
}
