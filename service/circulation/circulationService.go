// Package circulation is the loan lifecycle engine: borrow, return
// and renewal, with the inventory counts kept consistent with the set
// of active loans. All mutations to books.available_copies and to
// loan rows happen inside the transactions defined here; nothing else
// in the service writes them.
package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prabin319/BookByte-sub000/model"
	loanrepo "github.com/prabin319/BookByte-sub000/repository/loan"
	"github.com/prabin319/BookByte-sub000/service/fine"
)

const (
	// LoanPeriodDays is the initial loan term and the renewal extension.
	LoanPeriodDays = 14
	// MaxRenewals caps how many times a loan's due date may be extended.
	MaxRenewals = 2
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound     ErrCode = "BOOK_NOT_FOUND"
	ErrLoanNotFound     ErrCode = "LOAN_NOT_FOUND"
	ErrUserNotFound     ErrCode = "USER_NOT_FOUND"
	ErrNoCopies         ErrCode = "NO_COPIES_AVAILABLE"
	ErrDuplicateLoan    ErrCode = "DUPLICATE_LOAN"
	ErrAlreadyReturned  ErrCode = "ALREADY_RETURNED"
	ErrRenewalLimit     ErrCode = "RENEWAL_LIMIT"
	ErrOverdueRenewal   ErrCode = "OVERDUE_RENEWAL"
	ErrReservedByOthers ErrCode = "RESERVED_BY_OTHERS"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// HistoryRow = repository shape
type HistoryRow = loanrepo.HistoryRow

// ActiveLoan is a loan row annotated with the fine it would owe if
// returned now.
type ActiveLoan struct {
	model.Loan
	Overdue bool    `json:"overdue"`
	Fine    float64 `json:"fine"`
}

// ReturnResult reports what a committed return did.
type ReturnResult struct {
	LoanID      int64     `json:"loan_id"`
	BookID      int64     `json:"book_id"`
	Fine        float64   `json:"fine"`
	DaysOverdue int64     `json:"days_overdue"`
	ReturnedAt  time.Time `json:"returned_at"`
}

// TxRunner is the transaction boundary: fn's row locks hold until the
// transaction commits or rolls back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type Inventory interface {
	LockAvailability(ctx context.Context, tx *sql.Tx, bookID int64) (available, total int64, err error)
	DecrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error
	IncrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error
}

type Loans interface {
	Insert(ctx context.Context, tx *sql.Tx, l *model.Loan) error
	HasActive(ctx context.Context, tx *sql.Tx, userID, bookID int64) (bool, error)
	LockByID(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, loanID int64, at time.Time) error
	Renew(ctx context.Context, tx *sql.Tx, loanID int64, newDue, at time.Time) error
	ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error)
}

type Reservations interface {
	ExistsPendingForOther(ctx context.Context, tx *sql.Tx, bookID, userID int64) (bool, error)
}

// Users is the existence check consumed from auth.
type Users interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

type Fines interface {
	Insert(ctx context.Context, tx *sql.Tx, f *model.FineAssessment) error
}

// Notifier records and forwards a notification payload. Best-effort
// from the engine's point of view.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

type Service interface {
	// Borrow checks availability and the duplicate-loan rule, creates
	// the loan and decrements the book's available count, all in one
	// transaction.
	Borrow(ctx context.Context, userID, bookID int64) (*model.Loan, error)

	// Return closes the loan, assesses any overdue fine and gives the
	// copy back to the pool. The return confirmation notification is
	// emitted after commit and may fail without undoing the return.
	Return(ctx context.Context, loanID int64) (*ReturnResult, error)

	// Renew extends an active loan's due date by LoanPeriodDays when
	// the renewal policy allows it. Touches only the loan row.
	Renew(ctx context.Context, userID, loanID int64) (*model.Loan, error)

	ActiveLoans(ctx context.Context, userID int64) ([]ActiveLoan, error)
	History(ctx context.Context, userID int64) ([]HistoryRow, error)
}

// Deps carries the engine's collaborators. Now defaults to time.Now
// and exists so tests can fix the clock.
type Deps struct {
	DB            TxRunner
	Inventory     Inventory
	Loans         Loans
	Reservations  Reservations
	Users         Users
	Fines         Fines
	Notifier      Notifier
	DailyFineRate float64
	Now           func() time.Time
	Log           *slog.Logger
}

type service struct {
	db    TxRunner
	inv   Inventory
	loans Loans
	res   Reservations
	users Users
	fines Fines
	ntf   Notifier
	rate  float64
	now   func() time.Time
	log   *slog.Logger
}

func New(d Deps) Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &service{
		db:    d.DB,
		inv:   d.Inventory,
		loans: d.Loans,
		res:   d.Reservations,
		users: d.Users,
		fines: d.Fines,
		ntf:   d.Notifier,
		rate:  d.DailyFineRate,
		now:   d.Now,
		log:   d.Log,
	}
}

func (s *service) Borrow(ctx context.Context, userID, bookID int64) (*model.Loan, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrUserNotFound)
	}

	var loan *model.Loan
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		// Row lock: concurrent borrowers of the same book serialize
		// here, so the availability check and the decrement below are
		// one atomic step per book.
		avail, _, err := s.inv.LockAvailability(ctx, tx, bookID)
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrBookNotFound)
		}
		if err != nil {
			return err
		}
		if avail <= 0 {
			return makeErr(ErrNoCopies)
		}

		dup, err := s.loans.HasActive(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}
		if dup {
			return makeErr(ErrDuplicateLoan)
		}

		today := day(s.now())
		loan = &model.Loan{
			UserID:   userID,
			BookID:   bookID,
			LoanDate: today,
			DueDate:  today.AddDate(0, 0, LoanPeriodDays),
		}
		if err := s.loans.Insert(ctx, tx, loan); err != nil {
			// the partial unique index backs up the HasActive check
			if isActiveLoanConflict(err) {
				return makeErr(ErrDuplicateLoan)
			}
			return err
		}
		return s.inv.DecrementAvailable(ctx, tx, bookID)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *service) Return(ctx context.Context, loanID int64) (*ReturnResult, error) {
	now := s.now()

	var (
		res    *ReturnResult
		userID int64
	)
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		l, err := s.loans.LockByID(ctx, tx, loanID)
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrLoanNotFound)
		}
		if err != nil {
			return err
		}
		if !l.Active() {
			return makeErr(ErrAlreadyReturned)
		}

		days := fine.DaysOverdue(l.DueDate, now)
		amount := fine.Amount(l.DueDate, now, s.rate)

		if err := s.loans.MarkReturned(ctx, tx, l.ID, now); err != nil {
			return err
		}
		if err := s.inv.IncrementAvailable(ctx, tx, l.BookID); err != nil {
			return err
		}
		if amount > 0 {
			f := &model.FineAssessment{
				LoanID:      l.ID,
				UserID:      l.UserID,
				Amount:      amount,
				DaysOverdue: days,
				AssessedAt:  now,
			}
			if err := s.fines.Insert(ctx, tx, f); err != nil {
				return err
			}
		}

		userID = l.UserID
		res = &ReturnResult{
			LoanID:      l.ID,
			BookID:      l.BookID,
			Fine:        amount,
			DaysOverdue: days,
			ReturnedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Advisory: the return is already committed, a failed notification
	// must not undo it.
	if err := s.ntf.Notify(ctx, returnNotification(userID, res)); err != nil {
		s.log.Warn("return notification failed", "loan_id", loanID, "err", err)
	}
	return res, nil
}

func returnNotification(userID int64, res *ReturnResult) *model.Notification {
	msg := "Thank you for returning your book on time."
	if res.Fine > 0 {
		msg = fmt.Sprintf("Returned %d day(s) late. Fine due: %.2f.", res.DaysOverdue, res.Fine)
	}
	return &model.Notification{
		UserID:  userID,
		LoanID:  res.LoanID,
		Type:    model.NotifyReturnConfirmation,
		Title:   "Book Returned Successfully",
		Message: msg,
	}
}

func (s *service) Renew(ctx context.Context, userID, loanID int64) (*model.Loan, error) {
	var out *model.Loan
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		l, err := s.loans.LockByID(ctx, tx, loanID)
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrLoanNotFound)
		}
		if err != nil {
			return err
		}

		// checks in policy order: the first failure is the reason
		if !l.Active() {
			return makeErr(ErrAlreadyReturned)
		}
		if l.RenewalCount >= MaxRenewals {
			return makeErr(ErrRenewalLimit)
		}
		now := s.now()
		if l.DueDate.Before(day(now)) {
			// overdue loans must come back, not be extended
			return makeErr(ErrOverdueRenewal)
		}
		reserved, err := s.res.ExistsPendingForOther(ctx, tx, l.BookID, userID)
		if err != nil {
			return err
		}
		if reserved {
			return makeErr(ErrReservedByOthers)
		}

		newDue := l.DueDate.AddDate(0, 0, LoanPeriodDays)
		if err := s.loans.Renew(ctx, tx, l.ID, newDue, now); err != nil {
			return err
		}
		l.DueDate = newDue
		l.RenewalCount++
		l.RenewedAt = &now
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ActiveLoans(ctx context.Context, userID int64) ([]ActiveLoan, error) {
	rows, err := s.loans.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ActiveLoan, 0, len(rows))
	for _, l := range rows {
		out = append(out, ActiveLoan{
			Loan:    l,
			Overdue: l.Overdue(now),
			Fine:    fine.Amount(l.DueDate, now, s.rate),
		})
	}
	return out, nil
}

func (s *service) History(ctx context.Context, userID int64) ([]HistoryRow, error) {
	return s.loans.ListByUser(ctx, userID)
}

// day truncates to midnight; loan and due dates are whole days.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isActiveLoanConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return strings.Contains(strings.ToLower(pgErr.ConstraintName), "loans_active")
	}
	return false
}
