// model/loan.go
package model

import "time"

type Loan struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	BookID       int64      `json:"book_id"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	RenewalCount int64      `json:"renewal_count"`
	RenewedAt    *time.Time `json:"renewed_at,omitempty"`
}

// Active reports whether the loan is still out.
func (l Loan) Active() bool { return l.ReturnedAt == nil }

// Overdue reports whether the loan is active and past due at ref.
// Computed on read, never stored.
func (l Loan) Overdue(ref time.Time) bool {
	return l.Active() && l.DueDate.Before(ref)
}
