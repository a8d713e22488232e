package repository

import (
	"context"
	"fmt"

	"github.com/Astemirdum/library-lending/lending/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DashboardRepository is the read side behind the librarian dashboard.
type DashboardRepository interface {
	TopBorrowed(ctx context.Context, libraryID int64, limit int) ([]model.Frequency, error)
	CurrentlyLent(ctx context.Context, libraryID int64) ([]model.LentBook, error)
	CountLoans(ctx context.Context, libraryID int64) (int, error)
}

type dashboardRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewDashboardRepository(db *sqlx.DB, log *zap.Logger) *dashboardRepository {
	return &dashboardRepository{
		db:  db,
		log: log.Named("dashboard_repo"),
	}
}

var libraryLoans = qb.Select().
	From(borrowedTableName + " br").
	Join(fmt.Sprintf("%s b on b.id = br.book_id", booksTableName))

// TopBorrowed counts loans per title, most borrowed first, ties by title.
func (r *dashboardRepository) TopBorrowed(ctx context.Context, libraryID int64, limit int) ([]model.Frequency, error) {
	query, args, err := libraryLoans.
		Columns("b.title", "count(*) as count").
		Where(sq.Eq{"b.library_id": libraryID}).
		GroupBy("b.title").
		OrderBy("count desc", "b.title asc").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("TopBorrowed", zap.String("query", query), zap.Any("args", args))

	items := make([]model.Frequency, 0, limit)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "TopBorrowed")
	}
	return items, nil
}

func (r *dashboardRepository) CurrentlyLent(ctx context.Context, libraryID int64) ([]model.LentBook, error) {
	query, args, err := libraryLoans.
		Columns("br.id", "br.loan_uid", "br.book_id", "br.borrowed_by", "br.borrow_date",
			"br.latest_return_date", "br.returned", "b.title").
		Where(sq.Eq{"b.library_id": libraryID, "br.returned": nil}).
		OrderBy("br.borrow_date", "br.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	items := make([]model.LentBook, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "CurrentlyLent")
	}
	return items, nil
}

func (r *dashboardRepository) CountLoans(ctx context.Context, libraryID int64) (int, error) {
	query, args, err := libraryLoans.
		Columns("count(*)").
		Where(sq.Eq{"b.library_id": libraryID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "CountLoans")
	}
	return count, nil
}
