// Package app wires the application together: it opens the database handle,
// constructs adapters, repositories, and services, and owns their lifecycle.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"campusevents/config"
	"campusevents/internal/adapters/auth"
	"campusevents/internal/adapters/certificate"
	"campusevents/internal/domain"
	"campusevents/internal/repository/postgres"
	"campusevents/internal/services"
)

// serviceTimeout bounds each service operation.
const serviceTimeout = 5 * time.Second

// App holds the composed application. The surrounding delivery layer calls
// the services; Close releases the store handle.
type App struct {
	db     *sql.DB
	Logger *slog.Logger

	Users           domain.UserService
	Events          domain.EventService
	Registrations   domain.RegistrationService
	Attendance      domain.AttendanceService
	Ratings         domain.RatingService
	Recommendations domain.RecommendationService
	Analytics       domain.AnalyticsService
	Verifier        domain.TokenVerifier
}

// New opens the database and builds all services.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	renderer, err := certificate.NewTemplateRenderer()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create certificate renderer: %w", err)
	}

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	certificateRepo := postgres.NewCertificateRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)

	hasher := auth.NewBcryptHasher(0)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	a := &App{
		db:     db,
		Logger: logger,

		Users:           services.NewUserService(userRepo, hasher, issuer, serviceTimeout),
		Events:          services.NewEventService(eventRepo, userRepo, serviceTimeout),
		Registrations:   services.NewRegistrationService(registrationRepo, eventRepo, userRepo, serviceTimeout),
		Attendance:      services.NewAttendanceService(registrationRepo, eventRepo, certificateRepo, renderer, serviceTimeout),
		Ratings:         services.NewRatingService(ratingRepo, registrationRepo, eventRepo, userRepo, serviceTimeout),
		Recommendations: services.NewRecommendationService(eventRepo, registrationRepo, userRepo, serviceTimeout),
		Analytics:       services.NewAnalyticsService(eventRepo, registrationRepo, serviceTimeout),
		Verifier:        verifier,
	}

	logger.Info("application initialized", "environment", cfg.Environment)
	return a, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	a.Logger.Info("closing database connection")
	return a.db.Close()
}
