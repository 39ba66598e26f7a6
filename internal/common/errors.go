// Package common defines the sentinel errors shared by the repositories,
// services and transports of the lingoplay backend. Callers match them with
// errors.Is; transports translate them into stable reason strings.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentity is returned when a user with the same email or
	// username already exists.
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrAlreadyExists is returned for non-identity unique collisions
	// (e.g. a video uploaded twice under the same path).
	ErrAlreadyExists = errors.New("already exists")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredential  = errors.New("missing credential")
	ErrUnauthorized       = errors.New("unauthorized")

	// Token codec errors. Any decode failure is exactly one of these two.
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")

	// Validation errors.
	ErrValidation = errors.New("validation failed")
)

// Stable, machine-checkable reasons returned to clients.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonMissingCredential  = "missing_credential"
	ReasonUnauthorized       = "unauthorized"
	ReasonTokenExpired       = "token_expired"
	ReasonInvalidToken       = "invalid_token"
	ReasonDuplicateIdentity  = "duplicate_identity"
	ReasonAlreadyExists      = "already_exists"
	ReasonNotFound           = "not_found"
	ReasonValidation         = "validation_failed"
	ReasonInternal           = "internal_error"
)

// Reason maps err to its reason string. Unknown errors collapse to
// ReasonInternal so nothing internal leaks to a client.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return ReasonInvalidCredentials
	case errors.Is(err, ErrMissingCredential):
		return ReasonMissingCredential
	case errors.Is(err, ErrTokenExpired):
		return ReasonTokenExpired
	case errors.Is(err, ErrInvalidToken):
		return ReasonInvalidToken
	case errors.Is(err, ErrUnauthorized):
		return ReasonUnauthorized
	case errors.Is(err, ErrDuplicateIdentity):
		return ReasonDuplicateIdentity
	case errors.Is(err, ErrAlreadyExists):
		return ReasonAlreadyExists
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	default:
		return ReasonInternal
	}
}

// IsAuthFailure reports whether err is one of the authentication failures
// that map to 401 / Unauthenticated.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrUnauthorized)
}
