package domain

import (
	"context"
	"time"
)

// RSVPStatus is a member's response to a trip invitation, or its
// pending/waitlisted precursor states.
type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "pending"
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPNotGoing RSVPStatus = "not_going"
	RSVPWaitlist RSVPStatus = "waitlist"
)

// Requestable reports whether the status may be submitted by a caller.
// Pending and waitlist are assigned by the engine, never requested.
func (s RSVPStatus) Requestable() bool {
	return s == RSVPGoing || s == RSVPMaybe || s == RSVPNotGoing
}

// MemberRole is a member's role on a trip.
type MemberRole string

const (
	RolePlanner MemberRole = "planner"
	RoleGuest   MemberRole = "guest"
	RoleViewer  MemberRole = "viewer"
)

// TripMembership is one (trip, user) membership record. WaitlistPosition is
// non-nil exactly when RSVPStatus is waitlist; positions form a dense 1..N
// ordering among waitlisted members of the same trip.
// swagger:model TripMembership
type TripMembership struct {
	TripID           string     `json:"trip_id"`
	UserID           string     `json:"user_id"`
	Role             MemberRole `json:"role"`
	RSVPStatus       RSVPStatus `json:"rsvp_status"`
	WaitlistPosition *int       `json:"waitlist_position,omitempty"`
	InvitedAt        time.Time  `json:"invited_at"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
}

// NewTripMembership returns a pending membership for the given trip and user.
func NewTripMembership(tripID, userID string, role MemberRole, invitedAt time.Time) *TripMembership {
	return &TripMembership{
		TripID:     tripID,
		UserID:     userID,
		Role:       role,
		RSVPStatus: RSVPPending,
		InvitedAt:  invitedAt,
	}
}

// RSVPResult is the outcome of an RSVP submission. Waitlisted is true when
// the caller asked to go but was placed on the waitlist instead.
// swagger:model RSVPResult
type RSVPResult struct {
	RSVPStatus       RSVPStatus `json:"rsvp_status"`
	Waitlisted       bool       `json:"waitlisted"`
	WaitlistPosition *int       `json:"waitlist_position,omitempty"`
}

// MembershipTx exposes membership reads and writes scoped to a single
// transaction holding the trip's row lock. All counts and positions observed
// through it are stable for the duration of the transaction.
type MembershipTx interface {
	GetMembership(ctx context.Context, tripID, userID string) (*TripMembership, error)
	// CountGoing counts memberships with rsvp_status = going for the trip,
	// excluding excludeUserID when non-empty.
	CountGoing(ctx context.Context, tripID, excludeUserID string) (int, error)
	// MaxWaitlistPosition returns the highest waitlist position on the trip,
	// or 0 when the waitlist is empty.
	MaxWaitlistPosition(ctx context.Context, tripID string) (int, error)
	// FirstWaitlisted returns the waitlisted membership with the smallest
	// position, or ErrNotFound when the waitlist is empty.
	FirstWaitlisted(ctx context.Context, tripID string) (*TripMembership, error)
	// UpdateRSVP writes rsvp_status, waitlist_position, and responded_at.
	UpdateRSVP(ctx context.Context, m *TripMembership) error
	// ShiftWaitlistAbove decrements every waitlist position greater than pos
	// by one, keeping the ordering dense.
	ShiftWaitlistAbove(ctx context.Context, tripID string, pos int) error
}

// MembershipRepository defines the interface for trip membership storage.
type MembershipRepository interface {
	Create(ctx context.Context, m *TripMembership) error
	GetByTripAndUser(ctx context.Context, tripID, userID string) (*TripMembership, error)
	ListByTripID(ctx context.Context, tripID string) ([]*TripMembership, error)
	// InTripTx runs fn inside a transaction that holds an exclusive lock on
	// the trip row. All RSVP transitions and waitlist promotions for a trip
	// are serialized through this boundary; trips are independent of each
	// other. fn receives the locked trip and a transaction-scoped view of
	// its memberships. A serialization failure surfaces as ErrConflict.
	InTripTx(ctx context.Context, tripID string, fn func(trip *Trip, tx MembershipTx) error) error
}

// MembershipService validates and applies RSVP status transitions, enforcing
// capacity and waitlist ordering.
type MembershipService interface {
	// SubmitRSVP applies the desired status for the member. Desired must be
	// going, maybe, or not_going; pending and waitlist are engine-assigned.
	SubmitRSVP(ctx context.Context, tripID, userID string, desired RSVPStatus) (*RSVPResult, error)
}
