package service

import (
	"context"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/repository"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Borrow lends bookID to borrower as of today.
// Checks run in order: the book exists, it is available, the borrower
// is under the active loan limit. The loan and the availability flip
// commit together or not at all.
func (s *Service) Borrow(ctx context.Context, bookID int64, borrower string, today time.Time) (model.Loan, error) {
	today = model.Day(today)
	var (
		book model.Book
		loan model.Loan
	)
	err := s.repo.InTx(ctx, func(tx repository.Ledger) error {
		var err error
		if book, err = tx.LockBook(ctx, bookID); err != nil {
			return err
		}
		if !book.Available {
			return errs.ErrUnavailable
		}
		if err = tx.LockBorrower(ctx, borrower); err != nil {
			return err
		}
		active, err := tx.ActiveLoansFor(ctx, borrower)
		if err != nil {
			return err
		}
		if active >= s.rules.MaxActiveLoans {
			return errs.ErrLimitExceeded
		}
		loan, err = tx.CreateLoan(ctx, model.Loan{
			LoanUid:          uuid.NewString(),
			BookID:           bookID,
			BorrowedBy:       borrower,
			BorrowDate:       today,
			LatestReturnDate: today.AddDate(0, 0, s.rules.LoanPeriodDays),
		})
		if err != nil {
			return err
		}
		return setAvailability(ctx, tx, bookID, false)
	})
	if err != nil {
		return model.Loan{}, errors.Wrapf(err, "borrow book %d", bookID)
	}

	s.log.Info("book borrowed",
		zap.Int64("book_id", bookID),
		zap.String("borrower", borrower),
		zap.Time("due", loan.LatestReturnDate))
	s.publish(ctx, kafka.EventBorrowed, loan, book.LibraryID)
	return loan, nil
}

// Return closes the active loan of bookID held by borrower.
func (s *Service) Return(ctx context.Context, bookID int64, borrower string, today time.Time) (model.Loan, error) {
	today = model.Day(today)
	var (
		book model.Book
		loan model.Loan
	)
	err := s.repo.InTx(ctx, func(tx repository.Ledger) error {
		var err error
		if book, err = tx.LockBook(ctx, bookID); err != nil {
			return err
		}
		active, err := tx.ActiveLoan(ctx, bookID, borrower)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.ErrNotBorrowed
			}
			return err
		}
		if loan, err = tx.MarkReturned(ctx, active.ID, today); err != nil {
			return err
		}
		return setAvailability(ctx, tx, bookID, true)
	})
	if err != nil {
		return model.Loan{}, errors.Wrapf(err, "return book %d", bookID)
	}

	if loan.Returned != nil && loan.Returned.After(loan.LatestReturnDate) {
		s.log.Info("book returned late",
			zap.Int64("book_id", bookID),
			zap.String("borrower", borrower),
			zap.Time("due", loan.LatestReturnDate))
	}
	s.publish(ctx, kafka.EventReturned, loan, book.LibraryID)
	return loan, nil
}

func (s *Service) ActiveLoansFor(ctx context.Context, borrower string) (int, error) {
	return s.repo.ActiveLoansFor(ctx, borrower)
}

// IsBorrowed returns the active loan of bookID, or nil when the book is on the shelf.
func (s *Service) IsBorrowed(ctx context.Context, bookID int64) (*model.Loan, error) {
	loan, err := s.repo.ActiveLoanByBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &loan, nil
}

func (s *Service) publish(ctx context.Context, eventType kafka.EventType, loan model.Loan, libraryID int64) {
	event := kafka.LoanEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		LoanUid:   loan.LoanUid,
		BookID:    loan.BookID,
		LibraryID: libraryID,
		Borrower:  loan.BorrowedBy,
	}
	if err := s.publisher.Publish(ctx, kafka.LendingEventsTopic, loan.LoanUid, event); err != nil {
		s.log.Warn("publish loan event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
