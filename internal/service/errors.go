package service

import (
	"errors"

	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/validation"
)

// ValidationError carries per-field failures and matches ErrValidation.
type ValidationError = validation.Error

var (
	ErrValidation         = validation.ErrInvalid
	ErrDuplicateEmail     = repo.ErrDuplicateEmail
	ErrNotFound           = repo.ErrNotFound
	ErrStoreUnavailable   = repo.ErrStoreUnavailable
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient role")
)

func invalid(field, message string) error {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}
