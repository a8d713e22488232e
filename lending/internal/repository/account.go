package repository

import (
	"context"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AccountStore is what account creation and its hooks may write.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc model.Account) (model.Account, error)
	CreateProfile(ctx context.Context, profile model.Profile) (model.Profile, error)
}

type AccountRepository interface {
	InAccountTx(ctx context.Context, fn func(AccountStore) error) error
	GetAccount(ctx context.Context, username string) (model.Account, error)
	GetProfile(ctx context.Context, username string) (model.Profile, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
	db   querier
	log  *zap.Logger
}

func NewAccountRepository(pool *pgxpool.Pool, log *zap.Logger) *accountRepository {
	return &accountRepository{
		pool: pool,
		db:   pool,
		log:  log.Named("account_repo"),
	}
}

const (
	accountsTableName = `accounts`
	profilesTableName = `profiles`
)

func (r *accountRepository) InAccountTx(ctx context.Context, fn func(AccountStore) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&accountRepository{pool: r.pool, db: tx, log: r.log})
	})
}

func (r *accountRepository) CreateAccount(ctx context.Context, acc model.Account) (model.Account, error) {
	query, args, err := qb.Insert(accountsTableName).
		Columns("username", "email", "role", "library_id").
		Values(acc.Username, acc.Email, acc.Role, acc.LibraryID).
		Suffix("returning username, email, role, library_id").
		ToSql()
	if err != nil {
		return model.Account{}, err
	}
	created, err := r.getAccount(ctx, query, args...)
	if err != nil {
		switch {
		case isPgCode(err, pgerrcode.UniqueViolation):
			return model.Account{}, errs.ErrAlreadyExists
		case isPgCode(err, pgerrcode.ForeignKeyViolation):
			return model.Account{}, errors.Wrap(errs.ErrNotFound, "library")
		}
		return model.Account{}, err
	}
	return created, nil
}

func (r *accountRepository) CreateProfile(ctx context.Context, profile model.Profile) (model.Profile, error) {
	query, args, err := qb.Insert(profilesTableName).
		Columns("username", "image").
		Values(profile.Username, profile.Image).
		ToSql()
	if err != nil {
		return model.Profile{}, err
	}
	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		if isPgCode(err, pgerrcode.UniqueViolation) {
			return model.Profile{}, errs.ErrAlreadyExists
		}
		return model.Profile{}, errors.Wrap(err, "CreateProfile")
	}
	return profile, nil
}

func (r *accountRepository) GetAccount(ctx context.Context, username string) (model.Account, error) {
	query, args, err := qb.Select("username", "email", "role", "library_id").
		From(accountsTableName).
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return model.Account{}, err
	}
	return r.getAccount(ctx, query, args...)
}

func (r *accountRepository) GetProfile(ctx context.Context, username string) (model.Profile, error) {
	query, args, err := qb.Select("username", "image").
		From(profilesTableName).
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return model.Profile{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Profile{}, err
	}
	defer rows.Close()

	profile, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, errs.ErrNotFound
		}
		return model.Profile{}, err
	}
	return profile, nil
}

func (r *accountRepository) getAccount(ctx context.Context, query string, args ...any) (model.Account, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Account{}, err
	}
	defer rows.Close()

	acc, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Account])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, errs.ErrNotFound
		}
		return model.Account{}, err
	}
	return acc, nil
}
