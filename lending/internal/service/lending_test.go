package service_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/repository"
	"github.com/Astemirdum/library-lending/lending/internal/service"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.LoanEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _, _ string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := v.(kafka.LoanEvent); ok {
		p.events = append(p.events, e)
	}
	return p.err
}

type fixture struct {
	store *repository.MemoryStore
	svc   *service.Service
	pub   *recordingPublisher
	lib   model.Library
	books []model.Book
}

func newFixture(t *testing.T, nBooks int, opts ...service.Option) fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	opts = append([]service.Option{service.WithPublisher(pub)}, opts...)
	svc := service.NewService(store, store, store, newTestLogger(), opts...)

	lib := store.AddLibrary(model.Library{Name: "Central", City: "Москва"})
	books := make([]model.Book, 0, nBooks)
	for i := 0; i < nBooks; i++ {
		b, err := store.CreateBook(context.Background(), model.Book{
			Title:     "Book " + string(rune('A'+i)),
			Author:    "Author",
			LibraryID: lib.ID,
		})
		require.NoError(t, err)
		books = append(books, b)
	}
	return fixture{store: store, svc: svc, pub: pub, lib: lib, books: books}
}

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func requireAvailable(t *testing.T, f fixture, bookID int64, want bool) {
	t.Helper()
	book, err := f.store.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	require.Equal(t, want, book.Available)
}

// requireConsistent checks that every book is available exactly when it has no active loan.
func requireConsistent(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	for _, b := range f.books {
		book, err := f.store.GetBook(ctx, b.ID)
		require.NoError(t, err)
		loan, err := f.svc.IsBorrowed(ctx, b.ID)
		require.NoError(t, err)
		require.Equal(t, loan == nil, book.Available, "book %d", b.ID)
	}
}

func TestService_Borrow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 1)
	bookID := f.books[0].ID

	loan, err := f.svc.Borrow(ctx, bookID, "u", day("2024-01-01"))
	require.NoError(t, err)
	require.Equal(t, bookID, loan.BookID)
	require.Equal(t, "u", loan.BorrowedBy)
	require.Equal(t, day("2024-01-01"), loan.BorrowDate)
	require.Equal(t, day("2024-01-16"), loan.LatestReturnDate)
	require.Nil(t, loan.Returned)
	require.NotEmpty(t, loan.LoanUid)
	requireAvailable(t, f, bookID, false)

	_, err = f.svc.Borrow(ctx, bookID, "u", day("2024-01-02"))
	require.True(t, errors.Is(err, errs.ErrUnavailable), err)

	active, err := f.svc.ActiveLoansFor(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, 1, active)
	requireConsistent(t, f)
}

func TestService_Borrow_TimeOfDayIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1)

	loan, err := f.svc.Borrow(context.Background(), f.books[0].ID, "u",
		time.Date(2024, 2, 20, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, day("2024-02-20"), loan.BorrowDate)
	require.Equal(t, day("2024-03-06"), loan.LatestReturnDate)
}

func TestService_Borrow_UnavailableLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 1)
	bookID := f.books[0].ID

	_, err := f.svc.Borrow(ctx, bookID, "a", day("2024-01-01"))
	require.NoError(t, err)

	_, err = f.svc.Borrow(ctx, bookID, "b", day("2024-01-03"))
	require.True(t, errors.Is(err, errs.ErrUnavailable), err)

	active, err := f.svc.ActiveLoansFor(ctx, "b")
	require.NoError(t, err)
	require.Zero(t, active)

	loan, err := f.svc.IsBorrowed(ctx, bookID)
	require.NoError(t, err)
	require.Equal(t, "a", loan.BorrowedBy)
	require.Len(t, f.pub.events, 1)
}

func TestService_Borrow_LimitExceeded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 4)

	for _, b := range f.books[:3] {
		_, err := f.svc.Borrow(ctx, b.ID, "u", day("2024-01-01"))
		require.NoError(t, err)
	}

	_, err := f.svc.Borrow(ctx, f.books[3].ID, "u", day("2024-01-02"))
	require.True(t, errors.Is(err, errs.ErrLimitExceeded), err)
	requireAvailable(t, f, f.books[3].ID, true)

	loan, err := f.svc.IsBorrowed(ctx, f.books[3].ID)
	require.NoError(t, err)
	require.Nil(t, loan)

	active, err := f.svc.ActiveLoansFor(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, 3, active)

	// another borrower is unaffected by u's quota
	_, err = f.svc.Borrow(ctx, f.books[3].ID, "v", day("2024-01-02"))
	require.NoError(t, err)
	requireConsistent(t, f)
}

func TestService_Borrow_CustomRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 2, service.WithRules(service.Rules{LoanPeriodDays: 7, MaxActiveLoans: 1}))

	loan, err := f.svc.Borrow(ctx, f.books[0].ID, "u", day("2024-01-01"))
	require.NoError(t, err)
	require.Equal(t, day("2024-01-08"), loan.LatestReturnDate)

	_, err = f.svc.Borrow(ctx, f.books[1].ID, "u", day("2024-01-01"))
	require.True(t, errors.Is(err, errs.ErrLimitExceeded), err)
}

func TestService_Borrow_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)

	_, err := f.svc.Borrow(context.Background(), 42, "u", day("2024-01-01"))
	require.True(t, errors.Is(err, errs.ErrNotFound), err)
	require.Empty(t, f.pub.events)
}

func TestService_Return(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 1)
	bookID := f.books[0].ID

	borrowed, err := f.svc.Borrow(ctx, bookID, "u", day("2024-01-01"))
	require.NoError(t, err)

	returned, err := f.svc.Return(ctx, bookID, "u", day("2024-01-10"))
	require.NoError(t, err)
	require.Equal(t, borrowed.LoanUid, returned.LoanUid)
	require.NotNil(t, returned.Returned)
	require.Equal(t, day("2024-01-10"), *returned.Returned)
	requireAvailable(t, f, bookID, true)

	lent, err := f.svc.CurrentlyLent(ctx, f.lib.ID)
	require.NoError(t, err)
	require.Empty(t, lent)

	total, err := f.store.CountLoans(ctx, f.lib.ID)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	require.Len(t, f.pub.events, 2)
	require.Equal(t, kafka.EventBorrowed, f.pub.events[0].EventType)
	require.Equal(t, kafka.EventReturned, f.pub.events[1].EventType)
	require.Equal(t, f.lib.ID, f.pub.events[1].LibraryID)
	requireConsistent(t, f)
}

func TestService_Return_NotBorrowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 2)

	_, err := f.svc.Return(ctx, f.books[0].ID, "u", day("2024-01-01"))
	require.True(t, errors.Is(err, errs.ErrNotBorrowed), err)
	requireAvailable(t, f, f.books[0].ID, true)

	_, err = f.svc.Borrow(ctx, f.books[1].ID, "owner", day("2024-01-01"))
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, f.books[1].ID, "stranger", day("2024-01-02"))
	require.True(t, errors.Is(err, errs.ErrNotBorrowed), err)
	requireAvailable(t, f, f.books[1].ID, false)

	_, err = f.svc.Return(ctx, 999, "u", day("2024-01-02"))
	require.True(t, errors.Is(err, errs.ErrNotFound), err)

	_, err = f.svc.Return(ctx, f.books[1].ID, "owner", day("2024-01-03"))
	require.NoError(t, err)
	_, err = f.svc.Return(ctx, f.books[1].ID, "owner", day("2024-01-04"))
	require.True(t, errors.Is(err, errs.ErrNotBorrowed), err)
	requireConsistent(t, f)
}

func TestService_PublishFailureDoesNotFailBorrow(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1)
	f.pub.err = errors.New("broker down")

	_, err := f.svc.Borrow(context.Background(), f.books[0].ID, "u", day("2024-01-01"))
	require.NoError(t, err)
	requireAvailable(t, f, f.books[0].ID, false)
}

func TestService_AvailabilityMatchesLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 5)
	borrowers := []string{"a", "b", "c"}
	rnd := rand.New(rand.NewSource(7))
	today := day("2024-01-01")

	for i := 0; i < 300; i++ {
		book := f.books[rnd.Intn(len(f.books))]
		who := borrowers[rnd.Intn(len(borrowers))]
		if rnd.Intn(2) == 0 {
			_, err := f.svc.Borrow(ctx, book.ID, who, today)
			if err != nil {
				require.True(t,
					errors.Is(err, errs.ErrUnavailable) || errors.Is(err, errs.ErrLimitExceeded), err)
			}
		} else {
			_, err := f.svc.Return(ctx, book.ID, who, today)
			if err != nil {
				require.True(t, errors.Is(err, errs.ErrNotBorrowed), err)
			}
		}
		requireConsistent(t, f)
		for _, who := range borrowers {
			n, err := f.svc.ActiveLoansFor(ctx, who)
			require.NoError(t, err)
			require.LessOrEqual(t, n, service.DefaultRules.MaxActiveLoans)
		}
		today = today.AddDate(0, 0, 1)
	}
}

func TestService_ConcurrentBorrowSingleWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 1)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Borrow(ctx, f.books[0].ID, "u"+string(rune('a'+i)), day("2024-01-01"))
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, wins)
	requireConsistent(t, f)
}
