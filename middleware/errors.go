package middleware

import "errors"

var (
	// ErrEmptyInput indicates the turn carried no usable input.
	ErrEmptyInput = errors.New("input cannot be empty")

	// ErrInvalidSessionID indicates the session ID failed validation.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrInvalidUserID indicates the user ID failed validation.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrRateLimitExceeded indicates a session hit its turn budget.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
