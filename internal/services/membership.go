package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripsync/internal/domain"
)

type membershipService struct {
	membershipRepo domain.MembershipRepository
	contextTimeout time.Duration
}

// NewMembershipService creates a MembershipService with the given repository.
func NewMembershipService(membershipRepo domain.MembershipRepository, timeout time.Duration) domain.MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		contextTimeout: timeout,
	}
}

// SubmitRSVP applies an RSVP transition for one member. The whole transition,
// including any waitlist promotion it triggers, runs inside the trip's
// transaction boundary so the guest limit can never be exceeded by two racing
// submissions.
func (s *membershipService) SubmitRSVP(ctx context.Context, tripID, userID string, desired domain.RSVPStatus) (*domain.RSVPResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !desired.Requestable() {
		return nil, fmt.Errorf("%w: rsvp status must be going, maybe, or not_going", domain.ErrInvalidInput)
	}

	var result *domain.RSVPResult
	err := s.membershipRepo.InTripTx(ctx, tripID, func(trip *domain.Trip, tx domain.MembershipTx) error {
		m, err := tx.GetMembership(ctx, tripID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get membership: %w", err)
		}
		if m.Role == domain.RolePlanner {
			return fmt.Errorf("%w: the planner is always going", domain.ErrForbidden)
		}

		now := time.Now()
		prev := m.RSVPStatus
		prevPos := m.WaitlistPosition

		if desired != domain.RSVPGoing {
			m.RSVPStatus = desired
			m.WaitlistPosition = nil
			m.RespondedAt = &now
			if err := tx.UpdateRSVP(ctx, m); err != nil {
				return fmt.Errorf("update rsvp: %w", err)
			}
			// Leaving the waitlist must keep the remaining positions dense.
			if prev == domain.RSVPWaitlist && prevPos != nil {
				if err := tx.ShiftWaitlistAbove(ctx, tripID, *prevPos); err != nil {
					return fmt.Errorf("shift waitlist: %w", err)
				}
			}
			if prev == domain.RSVPGoing || prev == domain.RSVPWaitlist {
				if err := s.promote(ctx, trip, tx); err != nil {
					return err
				}
			}
			result = &domain.RSVPResult{RSVPStatus: m.RSVPStatus}
			return nil
		}

		// desired == going
		if prev == domain.RSVPGoing {
			// Re-submission: the member already holds a slot.
			m.RespondedAt = &now
			if err := tx.UpdateRSVP(ctx, m); err != nil {
				return fmt.Errorf("update rsvp: %w", err)
			}
			result = &domain.RSVPResult{RSVPStatus: domain.RSVPGoing}
			return nil
		}

		count, err := tx.CountGoing(ctx, tripID, userID)
		if err != nil {
			return fmt.Errorf("count going: %w", err)
		}
		if trip.GuestLimit == nil || count < *trip.GuestLimit {
			m.RSVPStatus = domain.RSVPGoing
			m.WaitlistPosition = nil
			m.RespondedAt = &now
			if err := tx.UpdateRSVP(ctx, m); err != nil {
				return fmt.Errorf("update rsvp: %w", err)
			}
			if prev == domain.RSVPWaitlist && prevPos != nil {
				if err := tx.ShiftWaitlistAbove(ctx, tripID, *prevPos); err != nil {
					return fmt.Errorf("shift waitlist: %w", err)
				}
			}
			result = &domain.RSVPResult{RSVPStatus: domain.RSVPGoing}
			return nil
		}

		// Trip is full.
		if prev == domain.RSVPWaitlist {
			// Already queued; keep the position rather than moving to the back.
			m.RespondedAt = &now
			if err := tx.UpdateRSVP(ctx, m); err != nil {
				return fmt.Errorf("update rsvp: %w", err)
			}
			result = &domain.RSVPResult{
				RSVPStatus:       domain.RSVPWaitlist,
				Waitlisted:       true,
				WaitlistPosition: m.WaitlistPosition,
			}
			return nil
		}

		maxPos, err := tx.MaxWaitlistPosition(ctx, tripID)
		if err != nil {
			return fmt.Errorf("max waitlist position: %w", err)
		}
		pos := maxPos + 1
		m.RSVPStatus = domain.RSVPWaitlist
		m.WaitlistPosition = &pos
		m.RespondedAt = &now
		if err := tx.UpdateRSVP(ctx, m); err != nil {
			return fmt.Errorf("update rsvp: %w", err)
		}
		result = &domain.RSVPResult{
			RSVPStatus:       domain.RSVPWaitlist,
			Waitlisted:       true,
			WaitlistPosition: &pos,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// promote seats waitlisted members in position order while capacity allows,
// re-densifying the remaining positions after each promotion. It runs in the
// same transaction as the transition that freed the slot, so a vacancy and a
// non-empty waitlist are never observable together.
func (s *membershipService) promote(ctx context.Context, trip *domain.Trip, tx domain.MembershipTx) error {
	if trip.GuestLimit == nil {
		// Unlimited trips never waitlist anyone.
		return nil
	}
	for {
		going, err := tx.CountGoing(ctx, trip.ID, "")
		if err != nil {
			return fmt.Errorf("count going: %w", err)
		}
		if going >= *trip.GuestLimit {
			return nil
		}
		head, err := tx.FirstWaitlisted(ctx, trip.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("first waitlisted: %w", err)
		}
		if head.WaitlistPosition == nil {
			return fmt.Errorf("waitlisted member %s has no position", head.UserID)
		}
		pos := *head.WaitlistPosition
		head.RSVPStatus = domain.RSVPGoing
		head.WaitlistPosition = nil
		if err := tx.UpdateRSVP(ctx, head); err != nil {
			return fmt.Errorf("promote member: %w", err)
		}
		if err := tx.ShiftWaitlistAbove(ctx, trip.ID, pos); err != nil {
			return fmt.Errorf("shift waitlist: %w", err)
		}
	}
}
