// Package apperr defines sentinel errors shared across layers. Callers
// wrap them with context and test with errors.Is; the REST layer maps
// each one to a status code.
package apperr

import "errors"

var (
	// ErrNotFound marks a missing note or an unknown keyword.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists marks a keyword that is already configured.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidKeyword marks a keyword rejected by validation.
	ErrInvalidKeyword = errors.New("invalid keyword")
	// ErrInvalidInput marks a malformed request or path.
	ErrInvalidInput = errors.New("invalid input")
)
