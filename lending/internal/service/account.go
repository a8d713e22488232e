package service

import (
	"context"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/repository"
	"github.com/Astemirdum/library-lending/pkg/auth"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PostCreateHook runs in the account creation transaction, right after the account row is written.
type PostCreateHook func(ctx context.Context, st repository.AccountStore, acc model.Account) error

func CreateProfile(ctx context.Context, st repository.AccountStore, acc model.Account) error {
	_, err := st.CreateProfile(ctx, model.Profile{
		Username: acc.Username,
		Image:    model.DefaultProfileImage,
	})
	return err
}

func (s *Service) Register(ctx context.Context, acc model.Account) (model.Account, error) {
	role := auth.Role(acc.Role)
	if !role.Valid() {
		return model.Account{}, errors.Wrapf(errs.ErrInvalidArgument, "role %q", acc.Role)
	}
	if role == auth.RoleLibrarian && acc.LibraryID == nil {
		return model.Account{}, errors.Wrap(errs.ErrInvalidArgument, "librarian requires a library")
	}
	if role == auth.RoleBorrower {
		acc.LibraryID = nil
	}

	var created model.Account
	err := s.accounts.InAccountTx(ctx, func(st repository.AccountStore) error {
		var err error
		if created, err = st.CreateAccount(ctx, acc); err != nil {
			return err
		}
		for _, hook := range s.hooks {
			if err = hook(ctx, st, created); err != nil {
				return errors.Wrap(err, "post create hook")
			}
		}
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}
	s.log.Info("account registered", zap.String("username", created.Username), zap.String("role", created.Role))
	return created, nil
}

func (s *Service) GetProfile(ctx context.Context, username string) (model.Profile, error) {
	return s.accounts.GetProfile(ctx, username)
}

// VerifyIdentity checks an authenticated identity against its registered
// account. Usernames without an account pass unchanged.
func (s *Service) VerifyIdentity(ctx context.Context, id auth.Identity) error {
	acc, err := s.accounts.GetAccount(ctx, id.UserName)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "get account")
	}
	if auth.Role(acc.Role) != id.Role {
		return errors.Wrapf(errs.ErrForbidden, "%s is registered as %s", acc.Username, acc.Role)
	}
	if acc.LibraryID != nil && *acc.LibraryID != id.LibraryID {
		return errors.Wrapf(errs.ErrForbidden, "%s is registered to library %d", acc.Username, *acc.LibraryID)
	}
	return nil
}
