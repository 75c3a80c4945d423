package booksvc

import (
	"context"
	"errors"

	"github.com/prabin319/BookByte-sub000/model"
)

type Repo interface {
	CreateBook(ctx context.Context, title, author, category string, totalCopies int64) (int64, error)
	AddCopies(ctx context.Context, bookID int64, n int64) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type Service interface {
	Create(ctx context.Context, title, author, category string, totalCopies int64) (int64, error)
	AddCopies(ctx context.Context, bookID int64, n int64) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, title, author, category string, totalCopies int64) (int64, error) {
	if title == "" || totalCopies < 0 {
		return 0, errors.New("invalid payload")
	}
	return s.r.CreateBook(ctx, title, author, category, totalCopies)
}

func (s *service) AddCopies(ctx context.Context, bookID int64, n int64) error {
	return s.r.AddCopies(ctx, bookID, n)
}
func (s *service) List(ctx context.Context) ([]model.Book, error)            { return s.r.List(ctx) }
func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) { return s.r.Detail(ctx, id) }
