package notificationsvc

import (
	"context"
	"log/slog"

	"github.com/prabin319/BookByte-sub000/model"
	webhookrepo "github.com/prabin319/BookByte-sub000/repository/webhook"
)

type Repo interface {
	Insert(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]model.Notification, error)
}

type Service interface {
	// Notify persists the payload and forwards it. Persistence errors
	// are returned; delivery errors are only logged, the stored row is
	// the record of truth.
	Notify(ctx context.Context, n *model.Notification) error

	ListForUser(ctx context.Context, userID int64) ([]model.Notification, error)
}

type service struct {
	r   Repo
	d   webhookrepo.Dispatcher
	log *slog.Logger
}

func New(r Repo, d webhookrepo.Dispatcher, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{r: r, d: d, log: log}
}

func (s *service) Notify(ctx context.Context, n *model.Notification) error {
	if err := s.r.Insert(ctx, n); err != nil {
		return err
	}
	if err := s.d.Deliver(*n); err != nil {
		s.log.Warn("notification delivery failed",
			"notification_id", n.ID,
			"type", n.Type,
			"err", err,
		)
	}
	return nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.r.ListByUser(ctx, userID)
}
