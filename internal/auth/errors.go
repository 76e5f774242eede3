package auth

import "errors"

// Errors surfaced to callers. Messages are deliberately generic: the HTTP
// layer returns them verbatim, and they must not reveal whether an email is
// registered or which part of a credential was wrong.
var (
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrWeakPassword            = errors.New("password does not meet the minimum policy")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidOrExpiredSession = errors.New("invalid or expired session")
	ErrStorageUnavailable      = errors.New("storage unavailable")
)
