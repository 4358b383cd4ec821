package domain

import (
	"context"
	"time"
)

// Trip is the aggregate root for a planned group trip. It owns its
// memberships and is the transaction boundary for RSVP admission decisions.
// swagger:model Trip
type Trip struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	GuestLimit *int      `json:"guest_limit,omitempty"`
	InviteCode string    `json:"invite_code"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewTrip returns a new Trip with the given fields. ID and InviteCode are set
// by the service on create.
func NewTrip(name, location string, startDate, endDate time.Time, guestLimit *int, createdBy string) *Trip {
	return &Trip{
		Name:       name,
		Location:   location,
		StartDate:  startDate,
		EndDate:    endDate,
		GuestLimit: guestLimit,
		CreatedBy:  createdBy,
	}
}

// TripWithMembers bundles a trip with its membership list.
type TripWithMembers struct {
	Trip    *Trip             `json:"trip"`
	Members []*TripMembership `json:"members"`
}

// TripRepository defines the interface for trip storage.
type TripRepository interface {
	// Create persists the trip and its planner membership in one transaction.
	Create(ctx context.Context, trip *Trip, planner *TripMembership) error
	GetByID(ctx context.Context, id string) (*Trip, error)
	GetByInviteCode(ctx context.Context, code string) (*Trip, error)
	// ListByUserID returns all trips the user holds a membership on.
	ListByUserID(ctx context.Context, userID string) ([]*Trip, error)
	Delete(ctx context.Context, id string) error
}

// TripService defines trip-facing operations.
type TripService interface {
	CreateTrip(ctx context.Context, trip *Trip) (*Trip, error)
	// GetTrip returns the trip with its members. The requester must be a
	// member of the trip.
	GetTrip(ctx context.Context, tripID, requesterID string) (*TripWithMembers, error)
	ListMyTrips(ctx context.Context, userID string) ([]*Trip, error)
	// InviteMember creates a pending membership for the invitee and sends an
	// invitation email when the invitee has one. Only the planner may invite.
	InviteMember(ctx context.Context, tripID, plannerID, inviteeUserID string) (*TripMembership, error)
	// JoinByCode redeems a trip invite code into a pending membership.
	// Returns (membership, created, err): created is false when the user is
	// already a member.
	JoinByCode(ctx context.Context, inviteCode, userID string) (*TripMembership, bool, error)
	// DeleteTrip removes the trip together with its memberships and
	// expenses. Only the planner may delete.
	DeleteTrip(ctx context.Context, tripID, requesterID string) error
}
