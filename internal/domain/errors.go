package domain

import "errors"

// Sentinel errors shared across services. Controllers map these to HTTP
// status codes; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrNotFound is returned when a trip, membership, expense, or
	// participant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed input: bad RSVP status,
	// non-positive share, share-sum mismatch, empty participant list.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned for role-disallowed actions, e.g. a planner
	// changing their own RSVP or a non-planner sending invitations.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a concurrent update is detected at commit
	// time. Callers may retry the operation once.
	ErrConflict = errors.New("conflict")
)

// ErrAlreadyMember is returned when inviting a user who already has a
// membership on the trip.
var ErrAlreadyMember = errors.New("already a trip member")
