package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"tripsync/internal/domain"
)

const inviteCodeLength = 6

var inviteCodeAlphabet = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

type tripService struct {
	tripRepo       domain.TripRepository
	membershipRepo domain.MembershipRepository
	userRepo       domain.UserRepository
	mailer         domain.Mailer
	renderer       domain.EmailTemplateRenderer
	contextTimeout time.Duration
}

// NewTripService creates a TripService with the given repositories and mailer.
func NewTripService(
	tripRepo domain.TripRepository,
	membershipRepo domain.MembershipRepository,
	userRepo domain.UserRepository,
	mailer domain.Mailer,
	renderer domain.EmailTemplateRenderer,
	timeout time.Duration,
) domain.TripService {
	return &tripService{
		tripRepo:       tripRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		renderer:       renderer,
		contextTimeout: timeout,
	}
}

// CreateTrip persists the trip together with its planner membership. The
// creator becomes the trip's only planner, always going.
func (s *tripService) CreateTrip(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(trip.Name) == "" {
		return nil, fmt.Errorf("%w: trip name is required", domain.ErrInvalidInput)
	}
	if trip.CreatedBy == "" {
		return nil, fmt.Errorf("%w: trip creator is required", domain.ErrInvalidInput)
	}
	if !trip.EndDate.IsZero() && trip.EndDate.Before(trip.StartDate) {
		return nil, fmt.Errorf("%w: end date must not precede start date", domain.ErrInvalidInput)
	}
	if trip.GuestLimit != nil && *trip.GuestLimit <= 0 {
		return nil, fmt.Errorf("%w: guest limit must be positive", domain.ErrInvalidInput)
	}

	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	if trip.InviteCode == "" {
		code, err := generateInviteCode()
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}
		trip.InviteCode = code
	}

	planner := domain.NewTripMembership(trip.ID, trip.CreatedBy, domain.RolePlanner, now)
	planner.RSVPStatus = domain.RSVPGoing
	planner.RespondedAt = &now

	if err := s.tripRepo.Create(ctx, trip, planner); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return trip, nil
}

func (s *tripService) GetTrip(ctx context.Context, tripID, requesterID string) (*domain.TripWithMembers, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get trip: %w", err)
	}
	members, err := s.membershipRepo.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	isMember := false
	for _, m := range members {
		if m.UserID == requesterID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, fmt.Errorf("%w: only trip members can view the trip", domain.ErrForbidden)
	}
	return &domain.TripWithMembers{Trip: trip, Members: members}, nil
}

func (s *tripService) ListMyTrips(ctx context.Context, userID string) ([]*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	trips, err := s.tripRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	if trips == nil {
		trips = []*domain.Trip{}
	}
	return trips, nil
}

// InviteMember creates a pending membership for the invitee. Only the
// planner may invite. The invitation email is best-effort: a delivery
// failure is logged, not surfaced.
func (s *tripService) InviteMember(ctx context.Context, tripID, plannerID, inviteeUserID string) (*domain.TripMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get trip: %w", err)
	}
	requester, err := s.membershipRepo.GetByTripAndUser(ctx, tripID, plannerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: only the planner can invite", domain.ErrForbidden)
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if requester.Role != domain.RolePlanner {
		return nil, fmt.Errorf("%w: only the planner can invite", domain.ErrForbidden)
	}

	invitee, err := s.userRepo.GetByID(ctx, inviteeUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	m := domain.NewTripMembership(tripID, invitee.ID, domain.RoleGuest, time.Now())
	if err := s.membershipRepo.Create(ctx, m); err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}

	if invitee.Email != "" {
		s.sendInvitation(invitee.Email, trip)
	}
	return m, nil
}

// JoinByCode redeems a trip invite code. Idempotent: a user who already has
// a membership gets it back with created=false.
func (s *tripService) JoinByCode(ctx context.Context, inviteCode, userID string) (*domain.TripMembership, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	code := strings.ToLower(strings.TrimSpace(inviteCode))
	trip, err := s.tripRepo.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get trip by code: %w", err)
	}

	if existing, err := s.membershipRepo.GetByTripAndUser(ctx, trip.ID, userID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("get membership: %w", err)
	}

	m := domain.NewTripMembership(trip.ID, userID, domain.RoleGuest, time.Now())
	if err := s.membershipRepo.Create(ctx, m); err != nil {
		return nil, false, fmt.Errorf("create membership: %w", err)
	}
	return m, true, nil
}

// DeleteTrip removes the trip; memberships and expenses cascade with it.
func (s *tripService) DeleteTrip(ctx context.Context, tripID, requesterID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.tripRepo.GetByID(ctx, tripID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get trip: %w", err)
	}
	m, err := s.membershipRepo.GetByTripAndUser(ctx, tripID, requesterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: only the planner can delete the trip", domain.ErrForbidden)
		}
		return fmt.Errorf("get membership: %w", err)
	}
	if m.Role != domain.RolePlanner {
		return fmt.Errorf("%w: only the planner can delete the trip", domain.ErrForbidden)
	}
	if err := s.tripRepo.Delete(ctx, tripID); err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return nil
}

func (s *tripService) sendInvitation(to string, trip *domain.Trip) {
	subject, html, text, err := s.renderer.Render("invitation", map[string]any{
		"TripName":   trip.Name,
		"Location":   trip.Location,
		"InviteCode": trip.InviteCode,
	})
	if err != nil {
		slog.Warn("render invitation email", "trip_id", trip.ID, "err", err)
		return
	}
	if err := s.mailer.Send(to, subject, html, text); err != nil {
		slog.Warn("send invitation email", "trip_id", trip.ID, "err", err)
	}
}

func generateInviteCode() (string, error) {
	b := make([]rune, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
