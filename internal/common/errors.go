// Package common defines shared constants and sentinel errors used across
// the layers of the messenger backend. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors. ErrNotFound doubles as the authorization
	// denial for scoped lookups: "absent" and "not a member" are
	// deliberately indistinguishable to the caller.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Access token lifecycle errors. ErrTokenStale means the signature was
	// valid but the token's issue time fell outside the freshness window.
	// ErrSessionRevoked means the session id is absent from the revocation
	// whitelist.
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenStale     = errors.New("stale token")
	ErrSessionRevoked = errors.New("session revoked")

	// Authorization errors.
	ErrForbidden = errors.New("forbidden")

	// Validation errors.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)
