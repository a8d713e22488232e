package service

import (
	"context"
	"strings"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/repository"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (s *Service) ListLibrary(ctx context.Context, city string, page, size int) (model.ListLibraries, error) {
	return s.repo.ListLibrary(ctx, city, page, size)
}

func (s *Service) GetLibrary(ctx context.Context, libraryID int64) (model.Library, error) {
	return s.repo.GetLibrary(ctx, libraryID)
}

func (s *Service) ListBooks(ctx context.Context, libraryID int64, showAll bool, page, size int) (model.ListBooks, error) {
	if _, err := s.repo.GetLibrary(ctx, libraryID); err != nil {
		return model.ListBooks{}, err
	}
	return s.repo.ListBooks(ctx, libraryID, showAll, page, size)
}

func (s *Service) ListAvailable(ctx context.Context, libraryID int64) ([]model.Book, error) {
	books, err := s.ListBooks(ctx, libraryID, false, 0, 0)
	if err != nil {
		return nil, err
	}
	return books.Items, nil
}

// GetBook returns the book together with its active loan, if any.
func (s *Service) GetBook(ctx context.Context, bookID int64) (model.BookDetail, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.BookDetail{}, err
	}
	loan, err := s.IsBorrowed(ctx, bookID)
	if err != nil {
		return model.BookDetail{}, err
	}
	return model.BookDetail{Book: book, Loan: loan}, nil
}

func (s *Service) AddBook(ctx context.Context, libraryID int64, req model.BookRequest) (model.Book, error) {
	book, err := s.repo.CreateBook(ctx, req.Book(libraryID))
	if err != nil {
		return model.Book{}, err
	}
	s.log.Info("book added", zap.Int64("book_id", book.ID), zap.Int64("library_id", libraryID))
	return book, nil
}

// ImportBook adds a book from metadata resolved by an external catalog lookup.
func (s *Service) ImportBook(ctx context.Context, imp kafka.CatalogImport) (model.Book, error) {
	req := model.BookRequest{
		Title:    strings.TrimSpace(imp.Title),
		Author:   strings.Join(imp.Authors, ", "),
		ISBN:     imp.ISBN,
		Info:     imp.Description,
		ImageSrc: imp.Thumbnail,
	}
	if req.Title == "" || imp.LibraryID <= 0 {
		return model.Book{}, errors.Wrap(errs.ErrInvalidArgument, "import requires title and library")
	}
	return s.AddBook(ctx, imp.LibraryID, req)
}

func (s *Service) EditBook(ctx context.Context, libraryID, bookID int64, req model.BookRequest) (model.Book, error) {
	if _, err := s.ownBook(ctx, libraryID, bookID); err != nil {
		return model.Book{}, err
	}
	book := req.Book(libraryID)
	book.ID = bookID
	return s.repo.UpdateBook(ctx, book)
}

// DeleteBook refuses books that were ever lent, so loan history stays intact.
func (s *Service) DeleteBook(ctx context.Context, libraryID, bookID int64) error {
	if _, err := s.ownBook(ctx, libraryID, bookID); err != nil {
		return err
	}
	lent, err := s.repo.HasLoanHistory(ctx, bookID)
	if err != nil {
		return err
	}
	if lent {
		return errs.ErrHasLoanHistory
	}
	if err = s.repo.DeleteBook(ctx, bookID); err != nil {
		return err
	}
	s.log.Info("book deleted", zap.Int64("book_id", bookID), zap.Int64("library_id", libraryID))
	return nil
}

func (s *Service) ownBook(ctx context.Context, libraryID, bookID int64) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.Book{}, err
	}
	if book.LibraryID != libraryID {
		return model.Book{}, errs.ErrForbidden
	}
	return book, nil
}

// setAvailability is only called from inside a ledger transaction.
func setAvailability(ctx context.Context, tx repository.Ledger, bookID int64, available bool) error {
	return tx.SetAvailability(ctx, bookID, available)
}
