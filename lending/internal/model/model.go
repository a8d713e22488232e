package model

import (
	"strings"
	"time"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListLibraries struct {
	Paging `json:",inline"`
	Items  []Library `json:"items"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Library struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
	City    string `json:"city" db:"city"`
}

type Book struct {
	ID        int64  `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	Author    string `json:"author" db:"author"`
	ISBN      string `json:"isbn" db:"isbn"`
	Info      string `json:"info" db:"info"`
	ImageSrc  string `json:"imageSrc" db:"image_src"`
	LibraryID int64  `json:"libraryId" db:"library_id"`
	Available bool   `json:"available" db:"available"`
}

type BookRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Author   string `json:"author" validate:"required,max=255"`
	ISBN     string `json:"isbn" validate:"omitempty,max=20"`
	Info     string `json:"info"`
	ImageSrc string `json:"imageSrc" validate:"omitempty,url"`
}

func (r BookRequest) Book(libraryID int64) Book {
	return Book{
		Title:     strings.TrimSpace(r.Title),
		Author:    strings.TrimSpace(r.Author),
		ISBN:      strings.TrimSpace(r.ISBN),
		Info:      r.Info,
		ImageSrc:  r.ImageSrc,
		LibraryID: libraryID,
		Available: true,
	}
}

// Loan is one borrowing of a book. Returned is nil while the loan is active.
type Loan struct {
	ID               int64      `json:"-" db:"id"`
	LoanUid          string     `json:"loanUid" db:"loan_uid"`
	BookID           int64      `json:"bookId" db:"book_id"`
	BorrowedBy       string     `json:"borrowedBy" db:"borrowed_by"`
	BorrowDate       time.Time  `json:"borrowDate" db:"borrow_date"`
	LatestReturnDate time.Time  `json:"latestReturnDate" db:"latest_return_date"`
	Returned         *time.Time `json:"returned" db:"returned"`
}

func (l Loan) Active() bool {
	return l.Returned == nil
}

// Overdue is informational only; nothing is gated on it.
func (l Loan) Overdue(today time.Time) bool {
	return l.Active() && Day(today).After(l.LatestReturnDate)
}

// LentBook is an active loan joined with its book title.
type LentBook struct {
	Loan  `json:",inline"`
	Title string `json:"title" db:"title"`
}

type BookDetail struct {
	Book Book  `json:"book"`
	Loan *Loan `json:"loan,omitempty"`
}

// Frequency is one row of the librarian borrow statistics.
type Frequency struct {
	Title      string `json:"title" db:"title"`
	Count      int    `json:"count" db:"count"`
	Percentage int    `json:"percentage" db:"-"`
}

type Dashboard struct {
	Library    Library     `json:"library"`
	Books      ListBooks   `json:"books"`
	TotalLoans int         `json:"totalLoans"`
	Lent       []LentBook  `json:"lent"`
	Frequent   []Frequency `json:"frequent"`
}

type Account struct {
	Username  string `json:"username" db:"username" validate:"required,max=150"`
	Email     string `json:"email" db:"email" validate:"omitempty,email"`
	Role      string `json:"role" db:"role" validate:"required,oneof=borrower librarian"`
	LibraryID *int64 `json:"libraryId,omitempty" db:"library_id"`
}

type Profile struct {
	Username string `json:"username" db:"username"`
	Image    string `json:"image" db:"image"`
}

const DefaultProfileImage = "default.jpg"

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
