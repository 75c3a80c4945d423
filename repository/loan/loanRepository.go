// repository/loan/repo.go
package loanrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/prabin319/BookByte-sub000/model"
)

// HistoryRow is a loan joined with its book title for member-facing
// listings.
type HistoryRow struct {
	LoanID       int64      `json:"loan_id"`
	BookID       int64      `json:"book_id"`
	BookTitle    string     `json:"book_title"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	RenewalCount int64      `json:"renewal_count"`
}

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, l *model.Loan) error
	HasActive(ctx context.Context, tx *sql.Tx, userID, bookID int64) (bool, error)
	LockByID(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, loanID int64, at time.Time) error
	Renew(ctx context.Context, tx *sql.Tx, loanID int64, newDue, at time.Time) error

	ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	ListActive(ctx context.Context) ([]model.Loan, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, l *model.Loan) error {
	const q = `
INSERT INTO loans (user_id, book_id, loan_date, due_date, renewal_count)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`
	return tx.QueryRowContext(ctx, q, l.UserID, l.BookID, l.LoanDate, l.DueDate, l.RenewalCount).Scan(&l.ID)
}

func (r *repo) HasActive(ctx context.Context, tx *sql.Tx, userID, bookID int64) (bool, error) {
	const q = `
SELECT EXISTS (
    SELECT 1 FROM loans
    WHERE user_id = $1 AND book_id = $2 AND returned_at IS NULL
)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, userID, bookID).Scan(&exists)
	return exists, err
}

func (r *repo) LockByID(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
	const q = `
SELECT id, user_id, book_id, loan_date, due_date, returned_at, renewal_count, renewed_at
FROM loans
WHERE id = $1
FOR UPDATE`
	l := &model.Loan{}
	err := tx.QueryRowContext(ctx, q, loanID).Scan(
		&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate,
		&l.ReturnedAt, &l.RenewalCount, &l.RenewedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, loanID int64, at time.Time) error {
	// returned_at IS NULL keeps a returned loan terminal.
	const q = `
UPDATE loans
SET returned_at = $2
WHERE id = $1
  AND returned_at IS NULL`
	res, err := tx.ExecContext(ctx, q, loanID, at)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Renew(ctx context.Context, tx *sql.Tx, loanID int64, newDue, at time.Time) error {
	const q = `
UPDATE loans
SET due_date      = $2,
    renewal_count = renewal_count + 1,
    renewed_at    = $3
WHERE id = $1
  AND returned_at IS NULL`
	res, err := tx.ExecContext(ctx, q, loanID, newDue, at)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
SELECT
    l.id            AS loan_id,
    l.book_id       AS book_id,
    b.title         AS book_title,
    l.loan_date     AS loan_date,
    l.due_date      AS due_date,
    l.returned_at   AS returned_at,
    l.renewal_count AS renewal_count
FROM loans l
JOIN books b ON b.id = l.book_id
WHERE l.user_id = $1
ORDER BY l.loan_date DESC, l.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.LoanID, &h.BookID, &h.BookTitle,
			&h.LoanDate, &h.DueDate, &h.ReturnedAt, &h.RenewalCount,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repo) ListActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	const q = `
SELECT id, user_id, book_id, loan_date, due_date, returned_at, renewal_count, renewed_at
FROM loans
WHERE user_id = $1 AND returned_at IS NULL
ORDER BY due_date, id`
	return r.scanLoans(ctx, q, userID)
}

func (r *repo) ListActive(ctx context.Context) ([]model.Loan, error) {
	const q = `
SELECT id, user_id, book_id, loan_date, due_date, returned_at, renewal_count, renewed_at
FROM loans
WHERE returned_at IS NULL
ORDER BY due_date, id`
	return r.scanLoans(ctx, q)
}

func (r *repo) scanLoans(ctx context.Context, q string, args ...any) ([]model.Loan, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate,
			&l.ReturnedAt, &l.RenewalCount, &l.RenewedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
