package reservationrepo

import (
	"context"
	"database/sql"

	"github.com/prabin319/BookByte-sub000/model"
)

type Repo interface {
	// ExistsPendingForOther is the renewal-policy check: a pending
	// reservation on the book held by someone other than userID.
	ExistsPendingForOther(ctx context.Context, tx *sql.Tx, bookID, userID int64) (bool, error)

	Place(ctx context.Context, userID, bookID int64) (int64, error)
	Cancel(ctx context.Context, userID, reservationID int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) ExistsPendingForOther(ctx context.Context, tx *sql.Tx, bookID, userID int64) (bool, error) {
	const q = `
SELECT EXISTS (
    SELECT 1 FROM reservations
    WHERE book_id = $1 AND user_id <> $2 AND status = 'PENDING'
)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, bookID, userID).Scan(&exists)
	return exists, err
}

func (r *repo) Place(ctx context.Context, userID, bookID int64) (int64, error) {
	const q = `
INSERT INTO reservations (user_id, book_id, status)
VALUES ($1,$2,'PENDING')
RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, userID, bookID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Cancel(ctx context.Context, userID, reservationID int64) error {
	const q = `
UPDATE reservations
SET status = 'CANCELED'
WHERE id = $1 AND user_id = $2 AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, q, reservationID, userID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	const q = `
SELECT id, user_id, book_id, status, created_at
FROM reservations
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var v model.Reservation
		if err := rows.Scan(&v.ID, &v.UserID, &v.BookID, &v.Status, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
