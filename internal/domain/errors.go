package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a versioned update loses against a
	// concurrent write (stale version).
	ErrConflict = errors.New("conflict")

	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")

	ErrOrderNotFound   = errors.New("order not found")
	ErrSessionNotPaid  = errors.New("checkout session is not paid")
	ErrUnknownTier     = errors.New("unknown publishing tier")
	ErrTemplateMissing = errors.New("no active email template for notification type")
)
