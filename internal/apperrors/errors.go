package apperrors

import (
	"errors"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")

	// Returned for every login failure: unknown email, wrong password or
	// inactive account. Callers must not be able to tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Returned for every token verification failure: bad signature, wrong
	// token kind, expiry, missing or inactive user.
	ErrInvalidToken = errors.New("invalid or expired token")
)
