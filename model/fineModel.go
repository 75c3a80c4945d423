// model/fine.go
package model

import "time"

// FineAssessment is the ledger row written when a loan comes back
// overdue. The amount is frozen at return time so a later change to
// the daily rate never rewrites history.
type FineAssessment struct {
	ID          int64     `json:"id"`
	LoanID      int64     `json:"loan_id"`
	UserID      int64     `json:"user_id"`
	Amount      float64   `json:"amount"`
	DaysOverdue int64     `json:"days_overdue"`
	AssessedAt  time.Time `json:"assessed_at"`
}
