package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"tripsync/internal/delivery/http/helpers"
	"tripsync/internal/delivery/http/middleware"
	"tripsync/internal/domain"
)

type MembershipController struct {
	Logger  *slog.Logger
	Service domain.MembershipService
}

func NewMembershipController(logger *slog.Logger, svc domain.MembershipService) *MembershipController {
	return &MembershipController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmitRSVPRequest is the request body for PUT /trips/{tripID}/rsvp.
type SubmitRSVPRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator. Only going, maybe, and not_going may be
// submitted; pending and waitlist are assigned by the server.
func (s SubmitRSVPRequest) Validate() []string {
	if !domain.RSVPStatus(s.Status).Requestable() {
		return []string{"status must be one of: going, maybe, not_going"}
	}
	return nil
}

// SubmitRSVPSuccessResponse is the success response envelope for PUT /trips/{tripID}/rsvp (200).
type SubmitRSVPSuccessResponse struct {
	Data  *domain.RSVPResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// SubmitRSVP godoc
// @Summary Submit an RSVP for a trip
// @Description Applies the caller's RSVP. A "going" request on a full trip places the caller on the waitlist; the result reports the effective status and waitlist position. Freeing a spot promotes the first waitlisted member. The planner's RSVP is fixed and cannot be changed.
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tripID path string true "Trip ID (UUID)"
// @Param body body SubmitRSVPRequest true "Desired RSVP status"
// @Success 200 {object} controllers.SubmitRSVPSuccessResponse "data contains the effective RSVP result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid status)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (planner RSVP is fixed)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (trip or membership)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (concurrent update, retry)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips/{tripID}/rsvp [put]
func (c *MembershipController) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	if !uuidRegex.MatchString(tripID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid tripID")
		return
	}
	var req SubmitRSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	result, err := c.Service.SubmitRSVP(r.Context(), tripID, userID, domain.RSVPStatus(req.Status))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "trip or membership not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "planner RSVP cannot be changed")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "concurrent update, please retry")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
