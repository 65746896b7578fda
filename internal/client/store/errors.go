package store

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAccountNotFound    = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError describes the first invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }
