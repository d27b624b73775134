package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrForbidden          = errors.New("operation not allowed")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// ErrUserNotFound is the authoritative negative from the chat platform:
	// the handle does not resolve to any account. The membership verifier
	// stops its fallback chain on it instead of trying further tiers.
	ErrUserNotFound = errors.New("user not found on platform")

	// ErrBroadcastPending means the admin already has a broadcast awaiting
	// confirmation and must confirm or cancel it first.
	ErrBroadcastPending = errors.New("broadcast already pending")
)
