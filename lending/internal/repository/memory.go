package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/google/uuid"
)

type memState struct {
	libraries  map[int64]model.Library
	books      map[int64]model.Book
	loans      []model.Loan
	accounts   map[string]model.Account
	profiles   map[string]model.Profile
	nextLibID  int64
	nextBookID int64
	nextLoanID int64
}

func (s *memState) clone() *memState {
	c := *s
	c.libraries = make(map[int64]model.Library, len(s.libraries))
	for k, v := range s.libraries {
		c.libraries[k] = v
	}
	c.books = make(map[int64]model.Book, len(s.books))
	for k, v := range s.books {
		c.books[k] = v
	}
	c.loans = append([]model.Loan(nil), s.loans...)
	c.accounts = make(map[string]model.Account, len(s.accounts))
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.profiles = make(map[string]model.Profile, len(s.profiles))
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return &c
}

// MemoryStore keeps everything in process. Transactions run one at a
// time on a copy of the state that replaces it only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

var (
	_ Repository          = (*MemoryStore)(nil)
	_ DashboardRepository = (*MemoryStore)(nil)
	_ AccountRepository   = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			libraries: make(map[int64]model.Library),
			books:     make(map[int64]model.Book),
			accounts:  make(map[string]model.Account),
			profiles:  make(map[string]model.Profile),
		},
	}
}

func (m *MemoryStore) AddLibrary(lib model.Library) model.Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lib.ID == 0 {
		m.state.nextLibID++
		lib.ID = m.state.nextLibID
	} else if lib.ID > m.state.nextLibID {
		m.state.nextLibID = lib.ID
	}
	m.state.libraries[lib.ID] = lib
	return lib
}

func (m *MemoryStore) InTx(_ context.Context, fn func(Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.state.clone()
	if err := fn(memLedger{s: tx}); err != nil {
		return err
	}
	m.state = tx
	return nil
}

func (m *MemoryStore) ActiveLoansFor(_ context.Context, borrower string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memLedger{s: m.state}.activeLoansFor(borrower), nil
}

func (m *MemoryStore) ActiveLoanByBook(_ context.Context, bookID int64) (model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.state.loans {
		if l.BookID == bookID && l.Active() {
			return l, nil
		}
	}
	return model.Loan{}, errs.ErrNotFound
}

func (m *MemoryStore) HasLoanHistory(_ context.Context, bookID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.state.loans {
		if l.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListLibrary(_ context.Context, city string, page, size int) (model.ListLibraries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	libs := make([]model.Library, 0, len(s.libraries))
	for _, lib := range s.libraries {
		if city == "" || lib.City == city {
			libs = append(libs, lib)
		}
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].ID < libs[j].ID })
	total := len(libs)
	return model.ListLibraries{
		Paging: model.Paging{Page: page, PageSize: size, TotalElements: total},
		Items:  paginate(libs, page, size),
	}, nil
}

func (m *MemoryStore) GetLibrary(_ context.Context, libraryID int64) (model.Library, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lib, ok := m.state.libraries[libraryID]
	if !ok {
		return model.Library{}, errs.ErrNotFound
	}
	return lib, nil
}

func (m *MemoryStore) ListBooks(_ context.Context, libraryID int64, showAll bool, page, size int) (model.ListBooks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	books := make([]model.Book, 0)
	for _, b := range s.books {
		if b.LibraryID == libraryID && (showAll || b.Available) {
			books = append(books, b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	total := len(books)
	return model.ListBooks{
		Paging: model.Paging{Page: page, PageSize: size, TotalElements: total},
		Items:  paginate(books, page, size),
	}, nil
}

func (m *MemoryStore) GetBook(_ context.Context, bookID int64) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.state.books[bookID]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return book, nil
}

func (m *MemoryStore) CreateBook(_ context.Context, book model.Book) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.libraries[book.LibraryID]; !ok {
		return model.Book{}, errs.ErrNotFound
	}
	m.state.nextBookID++
	book.ID = m.state.nextBookID
	book.Available = true
	m.state.books[book.ID] = book
	return book, nil
}

func (m *MemoryStore) UpdateBook(_ context.Context, book model.Book) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.state.books[book.ID]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	stored.Title = book.Title
	stored.Author = book.Author
	stored.ISBN = book.ISBN
	stored.Info = book.Info
	stored.ImageSrc = book.ImageSrc
	m.state.books[book.ID] = stored
	return stored, nil
}

func (m *MemoryStore) DeleteBook(_ context.Context, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.books[bookID]; !ok {
		return errs.ErrNotFound
	}
	for _, l := range m.state.loans {
		if l.BookID == bookID {
			return errs.ErrHasLoanHistory
		}
	}
	delete(m.state.books, bookID)
	return nil
}

func (m *MemoryStore) TopBorrowed(_ context.Context, libraryID int64, limit int) ([]model.Frequency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	counts := make(map[string]int)
	for _, l := range s.loans {
		if b, ok := s.books[l.BookID]; ok && b.LibraryID == libraryID {
			counts[b.Title]++
		}
	}
	items := make([]model.Frequency, 0, len(counts))
	for title, count := range counts {
		items = append(items, model.Frequency{Title: title, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Title < items[j].Title
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) CurrentlyLent(_ context.Context, libraryID int64) ([]model.LentBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	items := make([]model.LentBook, 0)
	for _, l := range s.loans {
		if b, ok := s.books[l.BookID]; ok && b.LibraryID == libraryID && l.Active() {
			items = append(items, model.LentBook{Loan: l, Title: b.Title})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].BorrowDate.Before(items[j].BorrowDate)
	})
	return items, nil
}

func (m *MemoryStore) CountLoans(_ context.Context, libraryID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	count := 0
	for _, l := range s.loans {
		if b, ok := s.books[l.BookID]; ok && b.LibraryID == libraryID {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) GetAccount(_ context.Context, username string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.state.accounts[username]
	if !ok {
		return model.Account{}, errs.ErrNotFound
	}
	return acc, nil
}

func (m *MemoryStore) GetProfile(_ context.Context, username string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.profiles[username]
	if !ok {
		return model.Profile{}, errs.ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) InAccountTx(_ context.Context, fn func(AccountStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.state.clone()
	if err := fn(memLedger{s: tx}); err != nil {
		return err
	}
	m.state = tx
	return nil
}

// memLedger operates on a transaction copy; the store mutex is already held.
type memLedger struct {
	s *memState
}

func (l memLedger) LockBook(_ context.Context, bookID int64) (model.Book, error) {
	book, ok := l.s.books[bookID]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return book, nil
}

func (l memLedger) LockBorrower(context.Context, string) error {
	return nil
}

func (l memLedger) ActiveLoansFor(_ context.Context, borrower string) (int, error) {
	return l.activeLoansFor(borrower), nil
}

func (l memLedger) activeLoansFor(borrower string) int {
	count := 0
	for _, loan := range l.s.loans {
		if loan.BorrowedBy == borrower && loan.Active() {
			count++
		}
	}
	return count
}

func (l memLedger) ActiveLoan(_ context.Context, bookID int64, borrower string) (model.Loan, error) {
	for _, loan := range l.s.loans {
		if loan.BookID == bookID && loan.BorrowedBy == borrower && loan.Active() {
			return loan, nil
		}
	}
	return model.Loan{}, errs.ErrNotFound
}

func (l memLedger) CreateLoan(_ context.Context, loan model.Loan) (model.Loan, error) {
	for _, existing := range l.s.loans {
		if existing.BookID == loan.BookID && existing.Active() {
			return model.Loan{}, errs.ErrUnavailable
		}
	}
	l.s.nextLoanID++
	loan.ID = l.s.nextLoanID
	if loan.LoanUid == "" {
		loan.LoanUid = uuid.NewString()
	}
	loan.Returned = nil
	l.s.loans = append(l.s.loans, loan)
	return loan, nil
}

func (l memLedger) MarkReturned(_ context.Context, loanID int64, returned time.Time) (model.Loan, error) {
	for i, loan := range l.s.loans {
		if loan.ID == loanID && loan.Active() {
			stamp := returned
			loan.Returned = &stamp
			l.s.loans[i] = loan
			return loan, nil
		}
	}
	return model.Loan{}, errs.ErrNotBorrowed
}

func (l memLedger) SetAvailability(_ context.Context, bookID int64, available bool) error {
	book, ok := l.s.books[bookID]
	if !ok {
		return errs.ErrNotFound
	}
	book.Available = available
	l.s.books[bookID] = book
	return nil
}

func (l memLedger) CreateAccount(_ context.Context, acc model.Account) (model.Account, error) {
	if _, ok := l.s.accounts[acc.Username]; ok {
		return model.Account{}, errs.ErrAlreadyExists
	}
	if acc.LibraryID != nil {
		if _, ok := l.s.libraries[*acc.LibraryID]; !ok {
			return model.Account{}, errs.ErrNotFound
		}
	}
	l.s.accounts[acc.Username] = acc
	return acc, nil
}

func (l memLedger) CreateProfile(_ context.Context, profile model.Profile) (model.Profile, error) {
	if _, ok := l.s.profiles[profile.Username]; ok {
		return model.Profile{}, errs.ErrAlreadyExists
	}
	l.s.profiles[profile.Username] = profile
	return profile, nil
}

func paginate[T any](items []T, page, size int) []T {
	if page <= 0 || size <= 0 {
		return items
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
