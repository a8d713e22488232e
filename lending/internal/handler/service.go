package handler

import (
	"context"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/service"
	"github.com/Astemirdum/library-lending/pkg/auth"
	"github.com/Astemirdum/library-lending/pkg/kafka"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LendingService interface {
	Borrow(ctx context.Context, bookID int64, borrower string, today time.Time) (model.Loan, error)
	Return(ctx context.Context, bookID int64, borrower string, today time.Time) (model.Loan, error)
	ActiveLoansFor(ctx context.Context, borrower string) (int, error)

	ListLibrary(ctx context.Context, city string, page, size int) (model.ListLibraries, error)
	GetLibrary(ctx context.Context, libraryID int64) (model.Library, error)
	ListBooks(ctx context.Context, libraryID int64, showAll bool, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, bookID int64) (model.BookDetail, error)
	AddBook(ctx context.Context, libraryID int64, req model.BookRequest) (model.Book, error)
	ImportBook(ctx context.Context, imp kafka.CatalogImport) (model.Book, error)
	EditBook(ctx context.Context, libraryID, bookID int64, req model.BookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, libraryID, bookID int64) error

	TopBorrowed(ctx context.Context, libraryID int64, limit int) ([]model.Frequency, error)
	CurrentlyLent(ctx context.Context, libraryID int64) ([]model.LentBook, error)
	Dashboard(ctx context.Context, libraryID int64) (model.Dashboard, error)

	Register(ctx context.Context, acc model.Account) (model.Account, error)
	GetProfile(ctx context.Context, username string) (model.Profile, error)
	VerifyIdentity(ctx context.Context, id auth.Identity) error
}

var _ LendingService = (*service.Service)(nil)
