package domain

import "errors"

// Error taxonomy shared by all services. Callers branch with errors.Is; the
// surrounding application layer translates these to protocol status codes.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the requested state change is already
	// satisfied by a uniqueness or ordering invariant: duplicate
	// registration, duplicate rating, attendance already marked.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the requester does not own the target
	// entity or acts under the wrong role.
	ErrForbidden = errors.New("forbidden")

	// ErrNotEligible is returned when required prior state is missing,
	// e.g. rating or certificate issuance before attendance was marked.
	ErrNotEligible = errors.New("not eligible")

	// ErrCapacityExceeded is returned when an event's registration ceiling
	// has been reached.
	ErrCapacityExceeded = errors.New("event is full")

	// ErrInvalidInput is returned when the request itself is invalid
	// (e.g. rating score out of range, empty event title).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDependency is returned when an external collaborator (certificate
	// renderer, persistent store) fails. Retry only idempotent operations.
	ErrDependency = errors.New("dependency failure")
)
