package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated occurs when the bearer credential is absent or malformed.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredential occurs when the identity provider rejects a token.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrIdentityUnavailable occurs when the identity provider cannot be reached.
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	// ErrWriteConflict occurs when a conditional write loses to a concurrent writer.
	ErrWriteConflict = errors.New("conditional write failed")
)
