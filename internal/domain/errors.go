package domain

import "errors"

// Domain errors
var (
	ErrInvalidIdentity  = errors.New("invalid player identity")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrNotFound         = errors.New("no entries found")
	ErrStore            = errors.New("database error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidIdentity) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidDateRange)
}
