package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"tripsync/config"
	_ "tripsync/docs"
	authadapter "tripsync/internal/adapters/auth"
	"tripsync/internal/adapters/email"
	"tripsync/internal/adapters/sms"
	httpdelivery "tripsync/internal/delivery/http"
	"tripsync/internal/delivery/http/controllers"
	"tripsync/internal/delivery/http/middleware"
	"tripsync/internal/repository/postgres"
	"tripsync/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title TripSync API
// @version 1.0
// @description Group trip planning: RSVPs with capacity and waitlist, shared expenses with settlement suggestions.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := config.NewLogger()

	db, err := postgres.Open(cfg.DBUrl, logger)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(db, cfg.MigrationsPath, logger); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	expenseRepo := postgres.NewExpenseRepository(db)
	loginCodeRepo := postgres.NewLoginCodeRepository(db)

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureTLS,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()

	smsSender, err := sms.NewSender(sms.SenderConfig{Provider: cfg.SMSProvider})
	if err != nil {
		logger.Error("failed to create sms sender", "err", err)
		os.Exit(1)
	}

	issuer := authadapter.NewJWTIssuer(cfg.JWTSecret)
	verifier := authadapter.NewJWTVerifier(cfg.JWTSecret)
	hasher := authadapter.NewBcryptCodeHasher(cfg.CodeHashCost)

	// Services
	authService := services.NewAuthService(userRepo, loginCodeRepo, hasher, smsSender, issuer, cfg.CodeExpiry, cfg.TokenExpiry)
	tripService := services.NewTripService(tripRepo, membershipRepo, userRepo, mailer, renderer, serviceTimeout)
	membershipService := services.NewMembershipService(membershipRepo, serviceTimeout)
	expenseService := services.NewExpenseService(expenseRepo, membershipRepo, tripRepo, serviceTimeout)

	// Controllers
	authController := controllers.NewAuthController(logger, authService)
	tripController := controllers.NewTripController(logger, tripService)
	membershipController := controllers.NewMembershipController(logger, membershipService)
	expenseController := controllers.NewExpenseController(logger, expenseService)

	mux := httpdelivery.NewRouter(verifier, authController, tripController, membershipController, expenseController)

	origins := strings.Split(cfg.CORSAllowedOrigin, ",")
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(origins, mux))

	addr := ":" + cfg.Port
	logger.Info("server starting", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
