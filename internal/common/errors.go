// Package common holds sentinel errors shared by repositories and services.
// Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Storage contents that could not be decoded.
	ErrCorruptData = errors.New("corrupt data")
)
