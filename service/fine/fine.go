// Package fine is the overdue fine calculator. It is a pure function
// of (due date, reference time, daily rate) so the return flow, the
// active-loan views and the overdue notices all agree on the amount
// for the same loan at the same instant.
package fine

import "time"

// DaysOverdue returns the number of whole 24h periods ref is past due.
// Zero when ref is on or before due.
func DaysOverdue(due, ref time.Time) int64 {
	if !ref.After(due) {
		return 0
	}
	return int64(ref.Sub(due) / (24 * time.Hour))
}

// Amount returns DaysOverdue(due, ref) * dailyRate.
func Amount(due, ref time.Time, dailyRate float64) float64 {
	return float64(DaysOverdue(due, ref)) * dailyRate
}
