// Package common defines shared constants and sentinel errors used across
// the keuthlie server and client. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrorInternal is the opaque error handed to callers for unexpected failures.
	ErrorInternal = errors.New("internal error")

	// Input validation errors, rejected before any store access.
	ErrMalformedInput   = errors.New("malformed input")
	ErrPasswordTooShort = errors.New("password too short")

	// Business-rule violations.
	ErrInvalidCredentials = errors.New("invalid e-mail or password")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrEmailInUse         = errors.New("e-mail already in use")
	ErrServiceNotAllowed  = errors.New("service not allowed")

	// ErrInvalidToken is what every token verification failure collapses to
	// outside the server.
	ErrInvalidToken = errors.New("invalid token")
)
