package circulation_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/prabin319/BookByte-sub000/model"
	loanrepo "github.com/prabin319/BookByte-sub000/repository/loan"
	"github.com/prabin319/BookByte-sub000/service/circulation"
	"github.com/prabin319/BookByte-sub000/service/fine"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

// memStore backs the engine with maps. WithTx holds one mutex for the
// whole callback, which gives the same serialization the row lock
// provides in Postgres.
type memStore struct {
	mu         sync.Mutex
	books      map[int64]*bookRow
	loans      map[int64]*model.Loan
	nextLoanID int64
	users      map[int64]bool
	reserved   map[int64]int64 // bookID -> user holding a pending reservation
	fines      []model.FineAssessment
}

type bookRow struct {
	available int64
	total     int64
}

func newMemStore() *memStore {
	return &memStore{
		books:    map[int64]*bookRow{},
		loans:    map[int64]*model.Loan{},
		users:    map[int64]bool{},
		reserved: map[int64]int64{},
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(nil)
}

func (m *memStore) LockAvailability(ctx context.Context, tx *sql.Tx, bookID int64) (int64, int64, error) {
	b, ok := m.books[bookID]
	if !ok {
		return 0, 0, sql.ErrNoRows
	}
	return b.available, b.total, nil
}

func (m *memStore) DecrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error {
	b, ok := m.books[bookID]
	if !ok || b.available <= 0 {
		return sql.ErrNoRows
	}
	b.available--
	return nil
}

func (m *memStore) IncrementAvailable(ctx context.Context, tx *sql.Tx, bookID int64) error {
	b, ok := m.books[bookID]
	if !ok {
		return sql.ErrNoRows
	}
	if b.available < b.total {
		b.available++
	}
	return nil
}

func (m *memStore) Insert(ctx context.Context, tx *sql.Tx, l *model.Loan) error {
	m.nextLoanID++
	l.ID = m.nextLoanID
	cp := *l
	m.loans[l.ID] = &cp
	return nil
}

func (m *memStore) HasActive(ctx context.Context, tx *sql.Tx, userID, bookID int64) (bool, error) {
	for _, l := range m.loans {
		if l.UserID == userID && l.BookID == bookID && l.ReturnedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) LockByID(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
	l, ok := m.loans[loanID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) MarkReturned(ctx context.Context, tx *sql.Tx, loanID int64, at time.Time) error {
	l, ok := m.loans[loanID]
	if !ok || l.ReturnedAt != nil {
		return sql.ErrNoRows
	}
	l.ReturnedAt = &at
	return nil
}

func (m *memStore) Renew(ctx context.Context, tx *sql.Tx, loanID int64, newDue, at time.Time) error {
	l, ok := m.loans[loanID]
	if !ok || l.ReturnedAt != nil {
		return sql.ErrNoRows
	}
	l.DueDate = newDue
	l.RenewalCount++
	l.RenewedAt = &at
	return nil
}

func (m *memStore) ListByUser(ctx context.Context, userID int64) ([]loanrepo.HistoryRow, error) {
	var out []loanrepo.HistoryRow
	for _, l := range m.loans {
		if l.UserID == userID {
			out = append(out, loanrepo.HistoryRow{
				LoanID:       l.ID,
				BookID:       l.BookID,
				LoanDate:     l.LoanDate,
				DueDate:      l.DueDate,
				ReturnedAt:   l.ReturnedAt,
				RenewalCount: l.RenewalCount,
			})
		}
	}
	return out, nil
}

func (m *memStore) ListActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	var out []model.Loan
	for _, l := range m.loans {
		if l.UserID == userID && l.ReturnedAt == nil {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memStore) ExistsPendingForOther(ctx context.Context, tx *sql.Tx, bookID, userID int64) (bool, error) {
	holder, ok := m.reserved[bookID]
	return ok && holder != userID, nil
}

func (m *memStore) Exists(ctx context.Context, userID int64) (bool, error) {
	return m.users[userID], nil
}

func (m *memStore) InsertFine(ctx context.Context, tx *sql.Tx, f *model.FineAssessment) error {
	f.ID = int64(len(m.fines) + 1)
	m.fines = append(m.fines, *f)
	return nil
}

// finesAdapter exposes memStore's fine insert under the engine's
// Fines interface name.
type finesAdapter struct{ m *memStore }

func (a finesAdapter) Insert(ctx context.Context, tx *sql.Tx, f *model.FineAssessment) error {
	return a.m.InsertFine(ctx, tx, f)
}

func (m *memStore) activeLoanCount(bookID int64) int64 {
	var n int64
	for _, l := range m.loans {
		if l.BookID == bookID && l.ReturnedAt == nil {
			n++
		}
	}
	return n
}

type notifierMock struct {
	mu   sync.Mutex
	got  []model.Notification
	fail error
}

func (n *notifierMock) Notify(ctx context.Context, v *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.got = append(n.got, *v)
	return nil
}

func newSvc(m *memStore, ntf *notifierMock, now time.Time) circulation.Service {
	return circulation.New(circulation.Deps{
		DB:            m,
		Inventory:     m,
		Loans:         m,
		Reservations:  m,
		Users:         m,
		Fines:         finesAdapter{m},
		Notifier:      ntf,
		DailyFineRate: 5.00,
		Now:           func() time.Time { return now },
	})
}

func seed(m *memStore, bookID, total, available int64, users ...int64) {
	m.books[bookID] = &bookRow{available: available, total: total}
	for _, u := range users {
		m.users[u] = true
	}
}

// --- Borrow ---

func TestBorrow_BookNotFound(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	s := newSvc(m, &notifierMock{}, base)

	_, err := s.Borrow(context.Background(), 10, 99)
	require.Error(t, err)
	require.Equal(t, circulation.ErrBookNotFound, circulation.Code(err))
}

func TestBorrow_UserNotFound(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1)
	s := newSvc(m, &notifierMock{}, base)

	_, err := s.Borrow(context.Background(), 10, 1)
	require.Equal(t, circulation.ErrUserNotFound, circulation.Code(err))
}

func TestBorrow_NoCopies(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 2, 0, 10)
	s := newSvc(m, &notifierMock{}, base)

	_, err := s.Borrow(context.Background(), 10, 1)
	require.Equal(t, circulation.ErrNoCopies, circulation.Code(err))
	require.Equal(t, int64(0), m.books[1].available)
}

func TestBorrow_Success(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 3, 2, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	require.NotZero(t, l.ID)

	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, today, l.LoanDate)
	require.Equal(t, today.AddDate(0, 0, 14), l.DueDate)
	require.Nil(t, l.ReturnedAt)
	require.Equal(t, int64(0), l.RenewalCount)
	require.Equal(t, int64(1), m.books[1].available)
}

func TestBorrow_Duplicate(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 3, 3, 10)
	s := newSvc(m, &notifierMock{}, base)

	_, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)

	_, err = s.Borrow(context.Background(), 10, 1)
	require.Equal(t, circulation.ErrDuplicateLoan, circulation.Code(err))
	require.Equal(t, int64(2), m.books[1].available)
}

func TestBorrow_ConcurrentLastCopy(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10, 11)
	s := newSvc(m, &notifierMock{}, base)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, uid := range []int64{10, 11} {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, err := s.Borrow(context.Background(), uid, 1)
			errs <- err
		}(uid)
	}
	wg.Wait()
	close(errs)

	var okCount, noCopies int
	for err := range errs {
		switch {
		case err == nil:
			okCount++
		case circulation.Code(err) == circulation.ErrNoCopies:
			noCopies++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, okCount)
	require.Equal(t, 1, noCopies)
	require.Equal(t, int64(0), m.books[1].available)
}

// --- Return ---

func TestReturn_NotFound(t *testing.T) {
	m := newMemStore()
	s := newSvc(m, &notifierMock{}, base)

	_, err := s.Return(context.Background(), 77)
	require.Equal(t, circulation.ErrLoanNotFound, circulation.Code(err))
}

func TestReturn_AlreadyReturned_LeavesInventoryAlone(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	ntf := &notifierMock{}
	s := newSvc(m, ntf, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	_, err = s.Return(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), m.books[1].available)

	_, err = s.Return(context.Background(), l.ID)
	require.Equal(t, circulation.ErrAlreadyReturned, circulation.Code(err))
	require.Equal(t, int64(1), m.books[1].available)
	require.Len(t, ntf.got, 1)
}

func TestReturn_OnTime(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 2, 2, 10)
	ntf := &notifierMock{}
	s := newSvc(m, ntf, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)

	res, err := s.Return(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, res.Fine)
	require.Equal(t, int64(0), res.DaysOverdue)
	require.Equal(t, int64(2), m.books[1].available)
	require.Empty(t, m.fines)

	require.Len(t, ntf.got, 1)
	require.Equal(t, model.NotifyReturnConfirmation, ntf.got[0].Type)
	require.Equal(t, "Book Returned Successfully", ntf.got[0].Title)
	require.Equal(t, int64(10), ntf.got[0].UserID)
}

func TestReturn_Overdue_AssessesFine(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	ntf := &notifierMock{}
	s := newSvc(m, ntf, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)

	// 20 days after borrowing: 6 whole days past the 14-day due date
	late := newSvc(m, ntf, base.AddDate(0, 0, 20))
	res, err := late.Return(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6), res.DaysOverdue)
	require.Equal(t, 30.00, res.Fine)
	require.Equal(t, int64(1), m.books[1].available)

	require.Len(t, m.fines, 1)
	require.Equal(t, l.ID, m.fines[0].LoanID)
	require.Equal(t, 30.00, m.fines[0].Amount)
	require.Equal(t, int64(6), m.fines[0].DaysOverdue)

	require.Len(t, ntf.got, 1)
	require.Contains(t, ntf.got[0].Message, "6 day(s) late")
	require.Contains(t, ntf.got[0].Message, "30.00")
}

func TestReturn_NotificationFailureDoesNotFailReturn(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	ntf := &notifierMock{fail: context.DeadlineExceeded}
	s := newSvc(m, ntf, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)

	res, err := s.Return(context.Background(), l.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, int64(1), m.books[1].available)
	require.NotNil(t, m.loans[l.ID].ReturnedAt)
}

// --- Renew ---

func TestRenew_LoanNotFound(t *testing.T) {
	m := newMemStore()
	s := newSvc(m, &notifierMock{}, base)

	_, err := s.Renew(context.Background(), 10, 42)
	require.Equal(t, circulation.ErrLoanNotFound, circulation.Code(err))
}

func TestRenew_AlreadyReturned_CheckedFirst(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	// returned AND at the renewal cap: terminal state wins
	m.loans[l.ID].RenewalCount = circulation.MaxRenewals
	_, err = s.Return(context.Background(), l.ID)
	require.NoError(t, err)

	_, err = s.Renew(context.Background(), 10, l.ID)
	require.Equal(t, circulation.ErrAlreadyReturned, circulation.Code(err))
}

func TestRenew_LimitBeatsOverdue(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	m.loans[l.ID].RenewalCount = circulation.MaxRenewals

	// even though the loan is also overdue, the cap is reported
	late := newSvc(m, &notifierMock{}, base.AddDate(0, 0, 30))
	_, err = late.Renew(context.Background(), 10, l.ID)
	require.Equal(t, circulation.ErrRenewalLimit, circulation.Code(err))
}

func TestRenew_Overdue(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)

	late := newSvc(m, &notifierMock{}, base.AddDate(0, 0, 15))
	_, err = late.Renew(context.Background(), 10, l.ID)
	require.Equal(t, circulation.ErrOverdueRenewal, circulation.Code(err))
}

func TestRenew_ReservedByOther(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 2, 2, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	m.reserved[1] = 11

	_, err = s.Renew(context.Background(), 10, l.ID)
	require.Equal(t, circulation.ErrReservedByOthers, circulation.Code(err))
}

func TestRenew_OwnReservationDoesNotBlock(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 2, 2, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	m.reserved[1] = 10

	_, err = s.Renew(context.Background(), 10, l.ID)
	require.NoError(t, err)
}

func TestRenew_Success(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 2, 2, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	origDue := l.DueDate

	renewed, err := s.Renew(context.Background(), 10, l.ID)
	require.NoError(t, err)
	require.Equal(t, origDue.AddDate(0, 0, 14), renewed.DueDate)
	require.Equal(t, int64(1), renewed.RenewalCount)
	require.NotNil(t, renewed.RenewedAt)
	// renewal never touches inventory
	require.Equal(t, int64(1), m.books[1].available)

	// second renewal hits the cap on the third attempt
	_, err = s.Renew(context.Background(), 10, l.ID)
	require.NoError(t, err)
	_, err = s.Renew(context.Background(), 10, l.ID)
	require.Equal(t, circulation.ErrRenewalLimit, circulation.Code(err))
}

// --- invariants & scenarios ---

func TestInvariant_AvailableEqualsTotalMinusActive(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 3, 3, 10, 11, 12)
	seed(m, 2, 1, 1, 10, 11, 12)
	s := newSvc(m, &notifierMock{}, base)

	ctx := context.Background()
	l1, err := s.Borrow(ctx, 10, 1)
	require.NoError(t, err)
	_, err = s.Borrow(ctx, 11, 1)
	require.NoError(t, err)
	l3, err := s.Borrow(ctx, 12, 2)
	require.NoError(t, err)

	_, err = s.Return(ctx, l1.ID)
	require.NoError(t, err)
	_, err = s.Borrow(ctx, 12, 1)
	require.NoError(t, err)
	_, err = s.Return(ctx, l3.ID)
	require.NoError(t, err)

	for bookID, b := range m.books {
		require.Equal(t, b.total-m.activeLoanCount(bookID), b.available,
			"book %d: available must equal total minus active loans", bookID)
	}
}

func TestEndToEnd_LateReturnScenario(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	ntf := &notifierMock{}

	s := newSvc(m, ntf, base)
	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), m.books[1].available)

	day0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, day0, l.LoanDate)
	require.Equal(t, day0.AddDate(0, 0, 14), l.DueDate)

	twentyDaysOn := newSvc(m, ntf, base.AddDate(0, 0, 20))
	res, err := twentyDaysOn.Return(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, 6*5.00, res.Fine)
	require.Equal(t, int64(1), m.books[1].available)
	require.NotNil(t, m.loans[l.ID].ReturnedAt)
}

func TestActiveLoans_FineMatchesCalculator(t *testing.T) {
	m := newMemStore()
	seed(m, 1, 1, 1, 10)
	s := newSvc(m, &notifierMock{}, base)

	l, err := s.Borrow(context.Background(), 10, 1)
	require.NoError(t, err)

	ref := base.AddDate(0, 0, 17)
	later := newSvc(m, &notifierMock{}, ref)
	rows, err := later.ActiveLoans(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Overdue)
	// the listing and the calculator must agree at the same instant
	require.Equal(t, fine.Amount(l.DueDate, ref, 5.00), rows[0].Fine)
}
