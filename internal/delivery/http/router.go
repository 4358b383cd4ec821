package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"tripsync/internal/delivery/http/controllers"
	"tripsync/internal/delivery/http/middleware"
	"tripsync/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	tripController *controllers.TripController,
	membershipController *controllers.MembershipController,
	expenseController *controllers.ExpenseController,
) *http.ServeMux {
	mux := http.NewServeMux()
	authed := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/codes", authController.RequestCode)
	mux.HandleFunc("POST /auth/tokens", authController.VerifyCode)

	// Trips
	mux.HandleFunc("POST /trips", authed(tripController.CreateTrip))
	mux.HandleFunc("GET /trips", authed(tripController.ListMyTrips))
	mux.HandleFunc("POST /trips/join", authed(tripController.JoinByCode))
	mux.HandleFunc("GET /trips/{tripID}", authed(tripController.GetTrip))
	mux.HandleFunc("DELETE /trips/{tripID}", authed(tripController.DeleteTrip))
	mux.HandleFunc("POST /trips/{tripID}/invitations", authed(tripController.InviteMember))

	// RSVP
	mux.HandleFunc("PUT /trips/{tripID}/rsvp", authed(membershipController.SubmitRSVP))

	// Expenses
	mux.HandleFunc("POST /trips/{tripID}/expenses", authed(expenseController.AddExpense))
	mux.HandleFunc("GET /trips/{tripID}/expenses/summary", authed(expenseController.GetSummary))
	mux.HandleFunc("PUT /expenses/{expenseID}", authed(expenseController.UpdateExpense))
	mux.HandleFunc("DELETE /expenses/{expenseID}", authed(expenseController.DeleteExpense))
	mux.HandleFunc("POST /expenses/{expenseID}/participants/{userID}/paid", authed(expenseController.MarkParticipantPaid))

	// Observability
	mux.Handle("GET /metrics", promhttp.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
