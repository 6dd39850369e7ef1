// Package common defines shared sentinel errors used across authwall
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorAccessDenied = errors.New("access denied")
	ErrorForbidden    = errors.New("forbidden")

	// Registration errors.
	ErrEmailHostUnreachable = errors.New("email host unreachable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
