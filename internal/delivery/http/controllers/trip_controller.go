package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tripsync/internal/delivery/http/helpers"
	"tripsync/internal/delivery/http/middleware"
	"tripsync/internal/domain"
)

type TripController struct {
	Logger  *slog.Logger
	Service domain.TripService
}

func NewTripController(logger *slog.Logger, svc domain.TripService) *TripController {
	return &TripController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateTripRequest is the request body for POST /trips.
type CreateTripRequest struct {
	Name       string     `json:"name"`
	Location   string     `json:"location"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	GuestLimit *int       `json:"guest_limit"`
}

// Validate implements Validator.
func (c CreateTripRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.GuestLimit != nil && *c.GuestLimit < 1 {
		errs = append(errs, "guest_limit must be at least 1")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		errs = append(errs, "end_date must not be before start_date")
	}
	return errs
}

// CreateTripSuccessResponse is the success response envelope for POST /trips (201).
type CreateTripSuccessResponse struct {
	Data  *domain.Trip      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateTrip godoc
// @Summary Create a new trip
// @Description Create a trip. The authenticated user becomes the planner with RSVP going. An invite code is generated server-side.
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trip body CreateTripRequest true "Trip data"
// @Success 201 {object} controllers.CreateTripSuccessResponse "data contains the created trip"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips [post]
func (c *TripController) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var start, end time.Time
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	trip := domain.NewTrip(req.Name, req.Location, start, end, req.GuestLimit, userID)
	created, err := c.Service.CreateTrip(r.Context(), trip)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// GetTripSuccessResponse is the success response envelope for GET /trips/{tripID} (200).
type GetTripSuccessResponse struct {
	Data  *domain.TripWithMembers `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// GetTrip godoc
// @Summary Get a trip by ID
// @Description Returns the trip and its membership list. The caller must be a member of the trip.
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param tripID path string true "Trip ID (UUID)"
// @Success 200 {object} controllers.GetTripSuccessResponse "data contains trip and members"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips/{tripID} [get]
func (c *TripController) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	if !uuidRegex.MatchString(tripID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid tripID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	trip, err := c.Service.GetTrip(r.Context(), tripID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "trip not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, trip)
}

// ListMyTripsSuccessResponse is the success response envelope for GET /trips (200).
type ListMyTripsSuccessResponse struct {
	Data  []*domain.Trip    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListMyTrips godoc
// @Summary List trips for the current user
// @Description Returns all trips where the authenticated user holds a membership, in any RSVP state.
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMyTripsSuccessResponse "data is an array of trips"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips [get]
func (c *TripController) ListMyTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	trips, err := c.Service.ListMyTrips(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if trips == nil {
		trips = []*domain.Trip{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, trips)
}

// InviteMemberRequest is the request body for POST /trips/{tripID}/invitations.
type InviteMemberRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (i InviteMemberRequest) Validate() []string {
	var errs []string
	if i.UserID == "" {
		errs = append(errs, "user_id is required")
	} else if !uuidRegex.MatchString(i.UserID) {
		errs = append(errs, "user_id must be a UUID")
	}
	return errs
}

// InviteMemberSuccessResponse is the success response envelope for POST /trips/{tripID}/invitations (201).
type InviteMemberSuccessResponse struct {
	Data  *domain.TripMembership `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// InviteMember godoc
// @Summary Invite a user to a trip
// @Description Creates a pending membership for the user and sends an invitation email when the user has one. Only the planner can invite.
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tripID path string true "Trip ID (UUID)"
// @Param body body InviteMemberRequest true "User to invite"
// @Success 201 {object} controllers.InviteMemberSuccessResponse "data contains the pending membership"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not planner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (trip or user)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already a member)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips/{tripID}/invitations [post]
func (c *TripController) InviteMember(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	if !uuidRegex.MatchString(tripID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid tripID")
		return
	}
	var req InviteMemberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	plannerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	member, err := c.Service.InviteMember(r.Context(), tripID, plannerID, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "trip or user not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrAlreadyMember) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "user is already a member")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, member)
}

// DeleteTripResponse is the data payload for DELETE /trips/{tripID} (200).
type DeleteTripResponse struct {
	Status string `json:"status"`
}

// DeleteTripSuccessResponse is the success response envelope for DELETE /trips/{tripID} (200).
type DeleteTripSuccessResponse struct {
	Data  DeleteTripResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// DeleteTrip godoc
// @Summary Delete a trip
// @Description Deletes the trip along with its memberships and expenses. Only the planner can delete.
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param tripID path string true "Trip ID (UUID)"
// @Success 200 {object} controllers.DeleteTripSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not planner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips/{tripID} [delete]
func (c *TripController) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	if !uuidRegex.MatchString(tripID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid tripID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteTrip(r.Context(), tripID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "trip not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the planner can delete the trip")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteTripResponse{Status: "deleted"})
}

// JoinByCodeRequest is the request body for POST /trips/join.
type JoinByCodeRequest struct {
	InviteCode string `json:"invite_code"`
}

// Validate implements Validator.
func (j JoinByCodeRequest) Validate() []string {
	if strings.TrimSpace(j.InviteCode) == "" {
		return []string{"invite_code is required"}
	}
	return nil
}

// JoinByCodeSuccessResponse is the success response envelope for POST /trips/join (200/201).
type JoinByCodeSuccessResponse struct {
	Data  *domain.TripMembership `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// JoinByCode godoc
// @Summary Join a trip with an invite code
// @Description Redeems an invite code into a pending membership. Idempotent: joining a trip the caller already belongs to returns the existing membership with 200 instead of 201.
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body JoinByCodeRequest true "Invite code"
// @Success 200 {object} controllers.JoinByCodeSuccessResponse "data contains the existing membership"
// @Success 201 {object} controllers.JoinByCodeSuccessResponse "data contains the new pending membership"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown code)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips/join [post]
func (c *TripController) JoinByCode(w http.ResponseWriter, r *http.Request) {
	var req JoinByCodeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	member, created, err := c.Service.JoinByCode(r.Context(), req.InviteCode, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite code not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, member)
}
