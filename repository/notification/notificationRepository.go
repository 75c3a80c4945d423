package notificationrepo

import (
	"context"
	"database/sql"

	"github.com/prabin319/BookByte-sub000/model"
)

type Repo interface {
	Insert(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]model.Notification, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, n *model.Notification) error {
	const q = `
INSERT INTO notifications (user_id, loan_id, type, title, message)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q, n.UserID, n.LoanID, n.Type, n.Title, n.Message).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	const q = `
SELECT id, user_id, loan_id, type, title, message, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.LoanID, &n.Type, &n.Title, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
