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

type ExpenseController struct {
	Logger  *slog.Logger
	Service domain.ExpenseService
}

func NewExpenseController(logger *slog.Logger, svc domain.ExpenseService) *ExpenseController {
	return &ExpenseController{
		Logger:  logger,
		Service: svc,
	}
}

// ExpenseParticipantRequest is one participant entry in an expense body.
// ShareMinor zero means "split equally"; either all shares are zero or all
// are explicit and sum to amount_minor.
type ExpenseParticipantRequest struct {
	UserID     string `json:"user_id"`
	ShareMinor int64  `json:"share_minor"`
}

// ExpenseRequest is the request body for POST /trips/{tripID}/expenses and
// PUT /expenses/{expenseID}.
type ExpenseRequest struct {
	Title        string                      `json:"title"`
	AmountMinor  int64                       `json:"amount_minor"`
	Currency     string                      `json:"currency"`
	Date         *time.Time                  `json:"date"`
	Participants []ExpenseParticipantRequest `json:"participants"`
}

// Validate implements Validator. Share and currency consistency rules are
// enforced by the service; this covers shape only.
func (e ExpenseRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, "title is required")
	}
	if e.AmountMinor <= 0 {
		errs = append(errs, "amount_minor must be positive")
	}
	if len(e.Participants) == 0 {
		errs = append(errs, "participants is required")
	}
	for _, p := range e.Participants {
		if !uuidRegex.MatchString(p.UserID) {
			errs = append(errs, "participant user_id must be a UUID")
			break
		}
	}
	return errs
}

func (e ExpenseRequest) toDomain(tripID, creatorID string) *domain.Expense {
	var date time.Time
	if e.Date != nil {
		date = *e.Date
	} else {
		date = time.Now()
	}
	expense := &domain.Expense{
		TripID:      tripID,
		Title:       e.Title,
		AmountMinor: e.AmountMinor,
		Currency:    strings.ToUpper(strings.TrimSpace(e.Currency)),
		Date:        date,
		CreatorID:   creatorID,
	}
	for _, p := range e.Participants {
		expense.Participants = append(expense.Participants, &domain.ExpenseParticipant{
			UserID:     p.UserID,
			ShareMinor: p.ShareMinor,
		})
	}
	return expense
}

// ExpenseSuccessResponse is the success response envelope for expense create and update.
type ExpenseSuccessResponse struct {
	Data  *domain.Expense   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// writeExpenseError maps domain errors for expense operations to API responses.
func (c *ExpenseController) writeExpenseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// AddExpense godoc
// @Summary Add an expense to a trip
// @Description Records an expense in integer minor units. All participants (including the payer, if sharing) must be trip members. Omit or zero all share_minor values to split equally; otherwise shares must sum to amount_minor exactly. All expenses on a trip share one currency.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tripID path string true "Trip ID (UUID)"
// @Param expense body ExpenseRequest true "Expense data"
// @Success 201 {object} controllers.ExpenseSuccessResponse "data contains the created expense with computed shares"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (shares, currency, or non-member participant)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (payer not a member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (trip)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips/{tripID}/expenses [post]
func (c *ExpenseController) AddExpense(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	if !uuidRegex.MatchString(tripID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid tripID")
		return
	}
	var req ExpenseRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	created, err := c.Service.AddExpense(r.Context(), req.toDomain(tripID, userID))
	if err != nil {
		c.writeExpenseError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// UpdateExpense godoc
// @Summary Update an expense
// @Description Replaces the expense's title, amount, currency, date, and participant shares wholesale. Same validation as create. Any trip member may update.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param expenseID path string true "Expense ID (UUID)"
// @Param expense body ExpenseRequest true "New expense data"
// @Success 200 {object} controllers.ExpenseSuccessResponse "data contains the updated expense"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /expenses/{expenseID} [put]
func (c *ExpenseController) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := r.PathValue("expenseID")
	if !uuidRegex.MatchString(expenseID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid expenseID")
		return
	}
	var req ExpenseRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	expense := req.toDomain("", userID)
	expense.ID = expenseID
	updated, err := c.Service.UpdateExpense(r.Context(), expense)
	if err != nil {
		c.writeExpenseError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// DeleteExpenseResponse is the data payload for DELETE /expenses/{expenseID} (200).
type DeleteExpenseResponse struct {
	Status string `json:"status"`
}

// DeleteExpenseSuccessResponse is the success response envelope for DELETE /expenses/{expenseID} (200).
type DeleteExpenseSuccessResponse struct {
	Data  DeleteExpenseResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Description Deletes an expense and its participant shares. Any trip member may delete.
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param expenseID path string true "Expense ID (UUID)"
// @Success 200 {object} controllers.DeleteExpenseSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /expenses/{expenseID} [delete]
func (c *ExpenseController) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := r.PathValue("expenseID")
	if !uuidRegex.MatchString(expenseID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid expenseID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteExpense(r.Context(), expenseID, userID); err != nil {
		c.writeExpenseError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteExpenseResponse{Status: "deleted"})
}

// MarkPaidResponse is the data payload for POST /expenses/{expenseID}/participants/{userID}/paid (200).
type MarkPaidResponse struct {
	Status string `json:"status"`
}

// MarkPaidSuccessResponse is the success response envelope for POST /expenses/{expenseID}/participants/{userID}/paid (200).
type MarkPaidSuccessResponse struct {
	Data  MarkPaidResponse  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MarkParticipantPaid godoc
// @Summary Mark a participant's share as paid
// @Description Marks the participant's share of the expense as settled. Idempotent: marking an already-paid share succeeds.
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param expenseID path string true "Expense ID (UUID)"
// @Param userID path string true "Participant user ID (UUID)"
// @Success 200 {object} controllers.MarkPaidSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (expense or participant)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /expenses/{expenseID}/participants/{userID}/paid [post]
func (c *ExpenseController) MarkParticipantPaid(w http.ResponseWriter, r *http.Request) {
	expenseID := r.PathValue("expenseID")
	userID := r.PathValue("userID")
	if !uuidRegex.MatchString(expenseID) || !uuidRegex.MatchString(userID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid expenseID or userID")
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.MarkParticipantPaid(r.Context(), expenseID, userID); err != nil {
		c.writeExpenseError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MarkPaidResponse{Status: "paid"})
}

// GetSummarySuccessResponse is the success response envelope for GET /trips/{tripID}/expenses/summary (200).
type GetSummarySuccessResponse struct {
	Data  *domain.ExpenseSummary `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// GetSummary godoc
// @Summary Get the expense summary for a trip
// @Description Returns per-member balances and a minimal set of settlement transfers, recomputed from all trip expenses at a consistent snapshot. The caller must be a trip member.
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param tripID path string true "Trip ID (UUID)"
// @Success 200 {object} controllers.GetSummarySuccessResponse "data contains balances and settlements"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (trip)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /trips/{tripID}/expenses/summary [get]
func (c *ExpenseController) GetSummary(w http.ResponseWriter, r *http.Request) {
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
	summary, err := c.Service.ComputeSummary(r.Context(), tripID, userID)
	if err != nil {
		c.writeExpenseError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}
