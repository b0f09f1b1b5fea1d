package auth

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials covers both unknown identity and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountLocked      = errors.New("auth: account temporarily locked")
	ErrAccountDeactivated = errors.New("auth: account deactivated")
	ErrNotFound           = errors.New("auth: not found")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrUsernameTaken      = errors.New("auth: username already taken")
	ErrUnauthorized       = errors.New("auth: unauthorized")

	ErrTokenExpired      = errors.New("auth: token expired")
	ErrTokenTypeMismatch = errors.New("auth: token type mismatch")
	ErrTokenSignature    = errors.New("auth: token signature invalid")
	ErrTokenRevoked      = errors.New("auth: token revoked")
)

// ValidationError carries the full list of violated input rules back to the caller.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "auth: validation failed: " + strings.Join(e.Violations, "; ")
}
