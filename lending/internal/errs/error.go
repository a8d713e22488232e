package errs

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("book is not available")
	ErrLimitExceeded   = errors.New("active loan limit reached")
	ErrNotBorrowed     = errors.New("book is not borrowed by this user")
	ErrHasLoanHistory  = errors.New("book has loan history")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
)
