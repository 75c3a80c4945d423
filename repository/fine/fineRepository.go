package finerepo

import (
	"context"
	"database/sql"

	"github.com/prabin319/BookByte-sub000/model"
)

type Repo interface {
	// Insert runs inside the return transaction so the assessment
	// commits together with returned_at and the inventory increment.
	Insert(ctx context.Context, tx *sql.Tx, f *model.FineAssessment) error

	ListByUser(ctx context.Context, userID int64) ([]model.FineAssessment, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, f *model.FineAssessment) error {
	const q = `
INSERT INTO fine_assessments (loan_id, user_id, amount, days_overdue, assessed_at)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`
	return tx.QueryRowContext(ctx, q, f.LoanID, f.UserID, f.Amount, f.DaysOverdue, f.AssessedAt).Scan(&f.ID)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.FineAssessment, error) {
	const q = `
SELECT id, loan_id, user_id, amount, days_overdue, assessed_at
FROM fine_assessments
WHERE user_id = $1
ORDER BY assessed_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FineAssessment
	for rows.Next() {
		var f model.FineAssessment
		if err := rows.Scan(&f.ID, &f.LoanID, &f.UserID, &f.Amount, &f.DaysOverdue, &f.AssessedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
