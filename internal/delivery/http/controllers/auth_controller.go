package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"tripsync/internal/delivery/http/helpers"
	"tripsync/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// phoneRegex matches an E.164 phone number (+ followed by 7 to 15 digits).
var phoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// RequestCodeRequest is the request body for POST /auth/codes.
type RequestCodeRequest struct {
	Phone string `json:"phone"`
}

// Validate implements Validator.
func (r RequestCodeRequest) Validate() []string {
	var errs []string
	if r.Phone == "" {
		errs = append(errs, "phone is required")
	} else if !phoneRegex.MatchString(strings.TrimSpace(r.Phone)) {
		errs = append(errs, "phone must be in E.164 format, e.g. +14155550123")
	}
	return errs
}

// RequestCodeResponse is the data payload for POST /auth/codes (200).
type RequestCodeResponse struct {
	Status string `json:"status"`
}

// RequestCodeSuccessResponse is the success response envelope for POST /auth/codes (200).
type RequestCodeSuccessResponse struct {
	Data  RequestCodeResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// RequestCode godoc
// @Summary Request a one-time login code
// @Description Sends a short-lived one-time code to the given phone number via SMS. The response is the same whether or not the phone is already registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RequestCodeRequest true "Phone number in E.164 format"
// @Success 200 {object} controllers.RequestCodeSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/codes [post]
func (c *AuthController) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.RequestCode(r.Context(), req.Phone); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RequestCodeResponse{Status: "code sent"})
}

// VerifyCodeRequest is the request body for POST /auth/tokens.
type VerifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Validate implements Validator.
func (v VerifyCodeRequest) Validate() []string {
	var errs []string
	if v.Phone == "" {
		errs = append(errs, "phone is required")
	} else if !phoneRegex.MatchString(strings.TrimSpace(v.Phone)) {
		errs = append(errs, "phone must be in E.164 format, e.g. +14155550123")
	}
	if v.Code == "" {
		errs = append(errs, "code is required")
	}
	return errs
}

// VerifyCodeResponse is the data payload for POST /auth/tokens (200).
type VerifyCodeResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// VerifyCodeSuccessResponse is the success response envelope for POST /auth/tokens (200).
type VerifyCodeSuccessResponse struct {
	Data  VerifyCodeResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// VerifyCode godoc
// @Summary Exchange a one-time code for an access token
// @Description Verifies the code sent to the phone and returns a Bearer token. Creates the user account on first login.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body VerifyCodeRequest true "Phone number and one-time code"
// @Success 200 {object} controllers.VerifyCodeSuccessResponse "data contains token and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid or expired code)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/tokens [post]
func (c *AuthController) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid or expired code")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, VerifyCodeResponse{Token: token, User: user})
}
