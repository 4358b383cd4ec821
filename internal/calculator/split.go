// Package calculator holds the pure money arithmetic for the expense ledger.
// All amounts are integer minor units (e.g. cents); floating point is never
// used, so share sums are exact.
package calculator

import "fmt"

// EqualShares divides totalMinor into n shares using integer division,
// distributing the remainder one minor unit at a time to the first shares so
// the result always sums to totalMinor exactly. The order of the returned
// slice is stable: callers assign shares to participants in list order.
func EqualShares(totalMinor int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if totalMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	base := totalMinor / int64(n)
	remainder := totalMinor % int64(n)
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}

// SumShares returns the exact sum of the given shares.
func SumShares(shares []int64) int64 {
	var sum int64
	for _, s := range shares {
		sum += s
	}
	return sum
}
