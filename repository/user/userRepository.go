package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prabin319/BookByte-sub000/model"
)

// Repo is the user-existence collaborator the circulation engine
// consumes; account management itself lives with auth.
type Repo interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	ByID(ctx context.Context, userID int64) (*model.User, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Exists(ctx context.Context, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&exists)
	return exists, err
}

func (r *repo) ByID(ctx context.Context, userID int64) (*model.User, error) {
	const q = `
SELECT id, first_name, last_name, email, username, password_hash, role, created_at
FROM users
WHERE id = $1`
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
