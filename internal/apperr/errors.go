// Package apperr defines the error taxonomy shared by the gateway, the
// knowledge base and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the upstream provider rejected our credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
)

// UpstreamError is a non-success response from the upstream provider.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// ValidationError carries a caller-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation returns a ValidationError with msg.
func Validation(msg string) error {
	return &ValidationError{Msg: msg}
}
