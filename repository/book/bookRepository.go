package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prabin319/BookByte-sub000/model"
)

type Repo interface {
	CreateBook(ctx context.Context, title, author, category string, totalCopies int64) (int64, error)
	AddCopies(ctx context.Context, bookID int64, n int64) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)

	// Engine-only methods. Must run inside the borrow/return transaction
	// so the FOR UPDATE lock covers the check-and-decrement.
	LockAvailability(ctx context.Context, tx *sql.Tx, bookID int64) (available, total int64, err error)
	DecrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error
	IncrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) CreateBook(ctx context.Context, title, author, category string, totalCopies int64) (int64, error) {
	const q = `
INSERT INTO books (title, author, category, total_copies, available_copies, status)
VALUES ($1,$2,$3,$4,$4, CASE WHEN $4 > 0 THEN 'AVAILABLE' ELSE 'UNAVAILABLE' END)
RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, title, author, category, totalCopies).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// AddCopies is catalog management: raises total and available together,
// outside the circulation engine.
func (r *repo) AddCopies(ctx context.Context, bookID int64, n int64) error {
	if n <= 0 {
		return errors.New("n must be > 0")
	}
	const q = `
UPDATE books
SET total_copies     = total_copies + $2,
    available_copies = available_copies + $2,
    status           = 'AVAILABLE'
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, bookID, n)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `
SELECT id, title, author, category, total_copies, available_copies, status
FROM books
ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.TotalCopies, &b.AvailableCopies, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
SELECT id, title, author, category, total_copies, available_copies, status
FROM books
WHERE id = $1`
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.TotalCopies, &b.AvailableCopies, &b.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// LockAvailability takes the row lock that serializes concurrent
// borrowers of the same book.
func (r *repo) LockAvailability(ctx context.Context, tx *sql.Tx, bookID int64) (int64, int64, error) {
	const q = `
SELECT available_copies, total_copies
FROM books
WHERE id = $1
FOR UPDATE`
	var avail, total int64
	err := tx.QueryRowContext(ctx, q, bookID).Scan(&avail, &total)
	return avail, total, err
}

func (r *repo) DecrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error {
	// Guard repeats the availability check so the count can never go
	// negative even if a caller skips LockAvailability.
	const q = `
UPDATE books
SET available_copies = available_copies - 1,
    status           = CASE WHEN available_copies - 1 > 0 THEN 'AVAILABLE' ELSE 'UNAVAILABLE' END
WHERE id = $1
  AND available_copies > 0`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return errors.New("no copies available to decrement")
	}
	return nil
}

func (r *repo) IncrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error {
	const q = `
UPDATE books
SET available_copies = LEAST(available_copies + 1, total_copies),
    status           = 'AVAILABLE'
WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
