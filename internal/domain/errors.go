package domain

import "errors"

// Every failure crossing the service boundary wraps exactly one of these,
// collaborator-specific errors never leak out.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("order not found")
	ErrRemoteUnavailable = errors.New("remote dependency unavailable")
	ErrPersistence       = errors.New("persistence failed")
	ErrConflict          = errors.New("status transition not permitted")
)
