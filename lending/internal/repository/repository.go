package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Ledger holds the reads and writes a borrow or return performs inside one transaction.
type Ledger interface {
	LockBook(ctx context.Context, bookID int64) (model.Book, error)
	LockBorrower(ctx context.Context, borrower string) error
	ActiveLoansFor(ctx context.Context, borrower string) (int, error)
	ActiveLoan(ctx context.Context, bookID int64, borrower string) (model.Loan, error)
	CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error)
	MarkReturned(ctx context.Context, loanID int64, returned time.Time) (model.Loan, error)
	SetAvailability(ctx context.Context, bookID int64, available bool) error
}

type Repository interface {
	InTx(ctx context.Context, fn func(Ledger) error) error

	ActiveLoansFor(ctx context.Context, borrower string) (int, error)
	ActiveLoanByBook(ctx context.Context, bookID int64) (model.Loan, error)
	HasLoanHistory(ctx context.Context, bookID int64) (bool, error)

	ListLibrary(ctx context.Context, city string, page, size int) (model.ListLibraries, error)
	GetLibrary(ctx context.Context, libraryID int64) (model.Library, error)
	ListBooks(ctx context.Context, libraryID int64, showAll bool, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, bookID int64) (model.Book, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, bookID int64) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool *pgxpool.Pool
	db   querier
	log  *zap.Logger
}

func NewRepository(pool *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		pool: pool,
		db:   pool,
		log:  log.Named("repo"),
	}, nil
}

const (
	libraryTableName  = `library`
	booksTableName    = `books`
	borrowedTableName = `borrowed`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	bookColumns = []string{"id", "title", "author", "isbn", "info", "image_src", "library_id", "available"}
	loanColumns = []string{"id", "loan_uid", "book_id", "borrowed_by", "borrow_date", "latest_return_date", "returned"}
)

func (r *repository) InTx(ctx context.Context, fn func(Ledger) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&repository{pool: r.pool, db: tx, log: r.log})
	})
}

func (r *repository) LockBook(ctx context.Context, bookID int64) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": bookID}).
		Suffix("for update").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.getBook(ctx, query, args...)
}

// LockBorrower serialises concurrent borrows of one borrower until the transaction ends.
func (r *repository) LockBorrower(ctx context.Context, borrower string) error {
	_, err := r.db.Exec(ctx, `select pg_advisory_xact_lock(hashtext($1))`, borrower)
	return errors.Wrap(err, "pg_advisory_xact_lock")
}

func (r *repository) ActiveLoansFor(ctx context.Context, borrower string) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(borrowedTableName).
		Where(sq.Eq{"borrowed_by": borrower, "returned": nil}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "ActiveLoansFor")
	}
	return count, nil
}

func (r *repository) ActiveLoan(ctx context.Context, bookID int64, borrower string) (model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(borrowedTableName).
		Where(sq.Eq{"book_id": bookID, "borrowed_by": borrower, "returned": nil}).
		Limit(1).
		Suffix("for update").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	return r.getLoan(ctx, query, args...)
}

func (r *repository) ActiveLoanByBook(ctx context.Context, bookID int64) (model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(borrowedTableName).
		Where(sq.Eq{"book_id": bookID, "returned": nil}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	return r.getLoan(ctx, query, args...)
}

func (r *repository) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	if loan.LoanUid == "" {
		loan.LoanUid = uuid.NewString()
	}
	query, args, err := qb.Insert(borrowedTableName).
		Columns("loan_uid", "book_id", "borrowed_by", "borrow_date", "latest_return_date").
		Values(loan.LoanUid, loan.BookID, loan.BorrowedBy, loan.BorrowDate, loan.LatestReturnDate).
		Suffix("returning " + joinColumns(loanColumns)).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	created, err := r.getLoan(ctx, query, args...)
	if err != nil {
		if isPgCode(err, pgerrcode.UniqueViolation) {
			return model.Loan{}, errs.ErrUnavailable
		}
		r.log.Error("CreateLoan", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Loan{}, err
	}
	return created, nil
}

func (r *repository) MarkReturned(ctx context.Context, loanID int64, returned time.Time) (model.Loan, error) {
	query, args, err := qb.Update(borrowedTableName).
		Set("returned", returned).
		Where(sq.Eq{"id": loanID, "returned": nil}).
		Suffix("returning " + joinColumns(loanColumns)).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	loan, err := r.getLoan(ctx, query, args...)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Loan{}, errs.ErrNotBorrowed
	}
	return loan, err
}

func (r *repository) SetAvailability(ctx context.Context, bookID int64, available bool) error {
	query, args, err := qb.Update(booksTableName).
		Set("available", available).
		Where(sq.Eq{"id": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "SetAvailability")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) HasLoanHistory(ctx context.Context, bookID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`select exists(select 1 from borrowed where book_id = $1)`, bookID).Scan(&exists)
	return exists, errors.Wrap(err, "HasLoanHistory")
}

func (r *repository) GetLibrary(ctx context.Context, libraryID int64) (model.Library, error) {
	query, args, err := qb.Select("id", "name", "address", "city").
		From(libraryTableName).
		Where(sq.Eq{"id": libraryID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Library{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Library{}, err
	}
	defer rows.Close()

	lib, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Library])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Library{}, errs.ErrNotFound
		}
		return model.Library{}, err
	}
	return lib, nil
}

func (r *repository) ListLibrary(ctx context.Context, city string, page, size int) (model.ListLibraries, error) {
	filter := sq.And{}
	if city != "" {
		filter = append(filter, sq.Eq{"city": city})
	}

	var total int
	countQuery, countArgs, err := qb.Select("count(*)").From(libraryTableName).Where(filter).ToSql()
	if err != nil {
		return model.ListLibraries{}, err
	}
	if err = r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return model.ListLibraries{}, errors.Wrap(err, "count libraries")
	}

	q := qb.Select("id", "name", "address", "city").
		From(libraryTableName).
		Where(filter).
		OrderBy("id")
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListLibraries{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.ListLibraries{}, err
	}
	defer rows.Close()

	libs, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Library])
	if err != nil {
		return model.ListLibraries{}, errors.Wrap(err, "pgx.CollectRows")
	}
	return model.ListLibraries{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: libs,
	}, nil
}

func (r *repository) ListBooks(ctx context.Context, libraryID int64, showAll bool, page, size int) (model.ListBooks, error) {
	filter := sq.And{sq.Eq{"library_id": libraryID}}
	if !showAll {
		filter = append(filter, sq.Eq{"available": true})
	}

	var total int
	countQuery, countArgs, err := qb.Select("count(*)").From(booksTableName).Where(filter).ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	if err = r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return model.ListBooks{}, errors.Wrap(err, "count books")
	}

	q := qb.Select(bookColumns...).
		From(booksTableName).
		Where(filter).
		OrderBy("id")
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.ListBooks{}, err
	}
	defer rows.Close()

	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return model.ListBooks{}, errors.Wrap(err, "pgx.CollectRows")
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}

func (r *repository) GetBook(ctx context.Context, bookID int64) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": bookID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.getBook(ctx, query, args...)
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "isbn", "info", "image_src", "library_id", "available").
		Values(book.Title, book.Author, book.ISBN, book.Info, book.ImageSrc, book.LibraryID, true).
		Suffix("returning " + joinColumns(bookColumns)).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	created, err := r.getBook(ctx, query, args...)
	if err != nil {
		if isPgCode(err, pgerrcode.ForeignKeyViolation) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	return created, nil
}

// UpdateBook rewrites the descriptive fields; availability belongs to the ledger.
func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(map[string]any{
			"title":     book.Title,
			"author":    book.Author,
			"isbn":      book.ISBN,
			"info":      book.Info,
			"image_src": book.ImageSrc,
		}).
		Where(sq.Eq{"id": book.ID}).
		Suffix("returning " + joinColumns(bookColumns)).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.getBook(ctx, query, args...)
}

func (r *repository) DeleteBook(ctx context.Context, bookID int64) error {
	query, args, err := qb.Delete(booksTableName).Where(sq.Eq{"id": bookID}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isPgCode(err, pgerrcode.ForeignKeyViolation) {
			return errs.ErrHasLoanHistory
		}
		return errors.Wrap(err, "DeleteBook")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) getBook(ctx context.Context, query string, args ...any) (model.Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	defer rows.Close()

	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) getLoan(ctx context.Context, query string, args ...any) (model.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Loan{}, err
	}
	defer rows.Close()

	loan, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Loan])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
