// Package remindersvc is the batch collaborator that turns loan state
// into due-soon and overdue notices. It only reads loans and writes
// notification rows; it never touches inventory or loan rows.
package remindersvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prabin319/BookByte-sub000/model"
	"github.com/prabin319/BookByte-sub000/service/fine"
)

// ReminderWindowDays is how far ahead of the due date a reminder goes
// out.
const ReminderWindowDays = 2

type Loans interface {
	ListActive(ctx context.Context) ([]model.Loan, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

type Result struct {
	Reminders int64 `json:"reminders"`
	Overdue   int64 `json:"overdue"`
}

type Service interface {
	Run(ctx context.Context) (Result, error)
}

type service struct {
	loans Loans
	ntf   Notifier
	rate  float64
	now   func() time.Time
	log   *slog.Logger
}

func New(loans Loans, ntf Notifier, rate float64, now func() time.Time, log *slog.Logger) Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &service{loans: loans, ntf: ntf, rate: rate, now: now, log: log}
}

func (s *service) Run(ctx context.Context) (Result, error) {
	active, err := s.loans.ListActive(ctx)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	horizon := now.AddDate(0, 0, ReminderWindowDays)

	var res Result
	for _, l := range active {
		var n *model.Notification
		switch {
		case l.Overdue(now):
			amount := fine.Amount(l.DueDate, now, s.rate)
			n = &model.Notification{
				UserID: l.UserID,
				LoanID: l.ID,
				Type:   model.NotifyOverdue,
				Title:  "Book Overdue",
				Message: fmt.Sprintf("Your loan was due on %s. Current fine: %.2f.",
					l.DueDate.Format("2006-01-02"), amount),
			}
			res.Overdue++
		case !l.DueDate.After(horizon):
			n = &model.Notification{
				UserID: l.UserID,
				LoanID: l.ID,
				Type:   model.NotifyReminder,
				Title:  "Return Reminder",
				Message: fmt.Sprintf("Your loan is due on %s.",
					l.DueDate.Format("2006-01-02")),
			}
			res.Reminders++
		default:
			continue
		}
		if err := s.ntf.Notify(ctx, n); err != nil {
			s.log.Warn("reminder notification failed", "loan_id", l.ID, "err", err)
		}
	}
	return res, nil
}
