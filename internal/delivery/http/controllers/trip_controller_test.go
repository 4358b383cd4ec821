package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tripsync/internal/delivery/http/helpers"
	"tripsync/internal/delivery/http/middleware"
	"tripsync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTripService implements domain.TripService for handler tests.
type fakeTripService struct {
	createTripErr     error
	getTripErr        error
	getTripResult     *domain.TripWithMembers
	listMyTripsErr    error
	listMyTripsResult []*domain.Trip
	inviteMemberErr   error
	inviteResult      *domain.TripMembership
	joinByCodeErr     error
	joinResult        *domain.TripMembership
	joinCreated       bool
	deleteTripErr     error
	lastCreatedTrip   *domain.Trip
	lastInviteeID     string
	lastInviteCode    string
	lastDeletedTripID string
}

func (f *fakeTripService) CreateTrip(_ context.Context, trip *domain.Trip) (*domain.Trip, error) {
	f.lastCreatedTrip = trip
	if f.createTripErr != nil {
		return nil, f.createTripErr
	}
	trip.ID = testTripID
	trip.InviteCode = "ab12cd"
	return trip, nil
}

func (f *fakeTripService) GetTrip(_ context.Context, tripID, requesterID string) (*domain.TripWithMembers, error) {
	if f.getTripErr != nil {
		return nil, f.getTripErr
	}
	return f.getTripResult, nil
}

func (f *fakeTripService) ListMyTrips(_ context.Context, userID string) ([]*domain.Trip, error) {
	if f.listMyTripsErr != nil {
		return nil, f.listMyTripsErr
	}
	return f.listMyTripsResult, nil
}

func (f *fakeTripService) InviteMember(_ context.Context, tripID, plannerID, inviteeUserID string) (*domain.TripMembership, error) {
	f.lastInviteeID = inviteeUserID
	if f.inviteMemberErr != nil {
		return nil, f.inviteMemberErr
	}
	return f.inviteResult, nil
}

func (f *fakeTripService) JoinByCode(_ context.Context, inviteCode, userID string) (*domain.TripMembership, bool, error) {
	f.lastInviteCode = inviteCode
	if f.joinByCodeErr != nil {
		return nil, false, f.joinByCodeErr
	}
	return f.joinResult, f.joinCreated, nil
}

func (f *fakeTripService) DeleteTrip(_ context.Context, tripID, requesterID string) error {
	f.lastDeletedTripID = tripID
	return f.deleteTripErr
}

func TestTripController_CreateTrip(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		noUserContext  bool
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "success",
			body:       `{"name":"Lake weekend","location":"Tahoe","guest_limit":5}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			body:           `{"location":"Tahoe"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "name is required",
		},
		{
			name:           "zero guest limit",
			body:           `{"name":"Trip","guest_limit":0}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "guest_limit must be at least 1",
		},
		{
			name:           "end before start",
			body:           `{"name":"Trip","start_date":"2026-09-10T00:00:00Z","end_date":"2026-09-09T00:00:00Z"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "end_date must not be before start_date",
		},
		{
			name:           "no user context",
			body:           `{"name":"Trip"}`,
			noUserContext:  true,
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "unauthorized",
		},
		{
			name:           "service error",
			body:           `{"name":"Trip"}`,
			fakeErr:        errors.New("db down"),
			wantStatus:     http.StatusInternalServerError,
			wantBodySubstr: "db down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTripService{createTripErr: tt.fakeErr}
			ctrl := NewTripController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/trips", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
			}
			rr := httptest.NewRecorder()

			ctrl.CreateTrip(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var trip domain.Trip
				require.NoError(t, json.Unmarshal(dataBytes, &trip))
				assert.Equal(t, "Lake weekend", trip.Name)
				assert.Equal(t, "ab12cd", trip.InviteCode)
				require.NotNil(t, fake.lastCreatedTrip)
				assert.Equal(t, testUserID, fake.lastCreatedTrip.CreatedBy)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestTripController_GetTrip(t *testing.T) {
	withMembers := &domain.TripWithMembers{
		Trip: &domain.Trip{ID: testTripID, Name: "Trip"},
		Members: []*domain.TripMembership{
			{TripID: testTripID, UserID: testUserID, Role: domain.RolePlanner, RSVPStatus: domain.RSVPGoing},
		},
	}

	tests := []struct {
		name           string
		tripID         string
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "success",
			tripID:     testTripID,
			wantStatus: http.StatusOK,
		},
		{
			name:           "invalid trip id",
			tripID:         "nope",
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid tripID",
		},
		{
			name:           "not found",
			tripID:         testTripID,
			fakeErr:        domain.ErrNotFound,
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "trip not found",
		},
		{
			name:           "not a member",
			tripID:         testTripID,
			fakeErr:        domain.ErrForbidden,
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTripService{getTripErr: tt.fakeErr, getTripResult: withMembers}
			ctrl := NewTripController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/trips/"+tt.tripID, nil)
			req.SetPathValue("tripID", tt.tripID)
			req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
			rr := httptest.NewRecorder()

			ctrl.GetTrip(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var got domain.TripWithMembers
				require.NoError(t, json.Unmarshal(dataBytes, &got))
				require.NotNil(t, got.Trip)
				assert.Equal(t, testTripID, got.Trip.ID)
				require.Len(t, got.Members, 1)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestTripController_ListMyTrips(t *testing.T) {
	t.Run("empty list serializes as array", func(t *testing.T) {
		fake := &fakeTripService{}
		ctrl := NewTripController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/trips", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
		rr := httptest.NewRecorder()

		ctrl.ListMyTrips(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"data":[]`)
	})

	t.Run("returns trips", func(t *testing.T) {
		fake := &fakeTripService{listMyTripsResult: []*domain.Trip{
			{ID: testTripID, Name: "First"},
		}}
		ctrl := NewTripController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/trips", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
		rr := httptest.NewRecorder()

		ctrl.ListMyTrips(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		dataBytes, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		var trips []domain.Trip
		require.NoError(t, json.Unmarshal(dataBytes, &trips))
		require.Len(t, trips, 1)
		assert.Equal(t, "First", trips[0].Name)
	})
}

func TestTripController_InviteMember(t *testing.T) {
	inviteeID := "7f000001-0000-4000-8000-000000000003"
	membership := &domain.TripMembership{
		TripID:     testTripID,
		UserID:     inviteeID,
		Role:       domain.RoleGuest,
		RSVPStatus: domain.RSVPPending,
	}

	tests := []struct {
		name           string
		tripID         string
		body           string
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "success",
			tripID:     testTripID,
			body:       `{"user_id":"` + inviteeID + `"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "user_id must be a uuid",
			tripID:         testTripID,
			body:           `{"user_id":"bob"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "user_id must be a UUID",
		},
		{
			name:           "not the planner",
			tripID:         testTripID,
			body:           `{"user_id":"` + inviteeID + `"}`,
			fakeErr:        domain.ErrForbidden,
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "forbidden",
		},
		{
			name:           "already a member",
			tripID:         testTripID,
			body:           `{"user_id":"` + inviteeID + `"}`,
			fakeErr:        domain.ErrAlreadyMember,
			wantStatus:     http.StatusConflict,
			wantBodySubstr: "already a member",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTripService{inviteMemberErr: tt.fakeErr, inviteResult: membership}
			ctrl := NewTripController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/trips/"+tt.tripID+"/invitations", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("tripID", tt.tripID)
			req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
			rr := httptest.NewRecorder()

			ctrl.InviteMember(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, inviteeID, fake.lastInviteeID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestTripController_DeleteTrip(t *testing.T) {
	tests := []struct {
		name           string
		tripID         string
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "success",
			tripID:     testTripID,
			wantStatus: http.StatusOK,
		},
		{
			name:           "invalid trip id",
			tripID:         "nope",
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid tripID",
		},
		{
			name:           "not the planner",
			tripID:         testTripID,
			fakeErr:        domain.ErrForbidden,
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "only the planner can delete the trip",
		},
		{
			name:           "not found",
			tripID:         testTripID,
			fakeErr:        domain.ErrNotFound,
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "trip not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTripService{deleteTripErr: tt.fakeErr}
			ctrl := NewTripController(testLogger, fake)
			req := httptest.NewRequest(http.MethodDelete, "/trips/"+tt.tripID, nil)
			req.SetPathValue("tripID", tt.tripID)
			req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
			rr := httptest.NewRecorder()

			ctrl.DeleteTrip(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				dataMap, ok := envelope.Data.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "deleted", dataMap["status"])
				assert.Equal(t, tt.tripID, fake.lastDeletedTripID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestTripController_JoinByCode(t *testing.T) {
	membership := &domain.TripMembership{
		TripID:     testTripID,
		UserID:     testUserID,
		Role:       domain.RoleGuest,
		RSVPStatus: domain.RSVPPending,
	}

	tests := []struct {
		name           string
		body           string
		created        bool
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "new membership returns 201",
			body:       `{"invite_code":"ab12cd"}`,
			created:    true,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "existing membership returns 200",
			body:       `{"invite_code":"ab12cd"}`,
			created:    false,
			wantStatus: http.StatusOK,
		},
		{
			name:           "blank code",
			body:           `{"invite_code":"  "}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invite_code is required",
		},
		{
			name:           "unknown code",
			body:           `{"invite_code":"zzzzzz"}`,
			fakeErr:        domain.ErrNotFound,
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "invite code not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTripService{joinByCodeErr: tt.fakeErr, joinResult: membership, joinCreated: tt.created}
			ctrl := NewTripController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/trips/join", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
			rr := httptest.NewRecorder()

			ctrl.JoinByCode(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK || tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}
