package auth

import (
	"context"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	XUserNameHeader    = "X-User-Name"
	XUserRoleHeader    = "X-User-Role"
	XUserLibraryHeader = "X-User-Library"
)

type Role string

const (
	RoleBorrower  Role = "borrower"
	RoleLibrarian Role = "librarian"
)

func (r Role) Valid() bool {
	return r == RoleBorrower || r == RoleLibrarian
}

var (
	ErrNoIdentity = errors.New("no identity in context")
	ErrForbidden  = errors.New("forbidden")
)

// Identity is what the upstream identity provider vouches for.
type Identity struct {
	UserName  string
	Role      Role
	LibraryID int64
}

type Claims struct {
	Profile struct {
		Username  string `json:"username"`
		Role      string `json:"role"`
		LibraryID int64  `json:"libraryId,omitempty"`
	} `json:"profile"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{
		UserName:  c.Profile.Username,
		Role:      Role(c.Profile.Role),
		LibraryID: c.Profile.LibraryID,
	}
}

type ctxKey struct{}

func SetAuthContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserName == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

// Authorize reports whether id may act with the required role.
// A librarian may act as a borrower; the reverse is denied.
func Authorize(id Identity, required Role) error {
	if id.UserName == "" {
		return ErrNoIdentity
	}
	switch required {
	case RoleBorrower:
		if id.Role == RoleBorrower || id.Role == RoleLibrarian {
			return nil
		}
	case RoleLibrarian:
		if id.Role == RoleLibrarian && id.LibraryID > 0 {
			return nil
		}
	}
	return errors.Wrapf(ErrForbidden, "%s requires role %s", id.UserName, required)
}

func ParseLibraryID(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
