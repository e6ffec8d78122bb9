package services

import "errors"

// Sentinel errors shared across the service layer. Handlers translate them
// into HTTP statuses in exactly one place; services wrap them with context
// via fmt.Errorf("...: %w", Err...).
var (
	// ErrValidation covers bad input: malformed dates, out-of-range guest
	// counts, unknown enum values. Maps to 400.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is returned when credentials are missing or wrong.
	// Maps to 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the principal is authenticated but not
	// allowed to touch the resource. Maps to 403.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the referenced booking/listing/account
	// does not exist (or is soft-deleted). Maps to 404.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers availability overlaps and illegal state
	// transitions. Maps to 400 — the public contract predates 409 and is
	// preserved.
	ErrConflict = errors.New("conflict")
)
