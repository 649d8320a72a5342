package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pivotapp/pivot/internal/app"
	"github.com/pivotapp/pivot/internal/handler"
	"github.com/pivotapp/pivot/internal/httperr"
	"github.com/pivotapp/pivot/internal/middleware"
	"github.com/rs/cors"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	user := handler.NewUserHandler(app.UserService)
	habit := handler.NewHabitHandler(app.HabitService)
	urge := handler.NewUrgeHandler(app.UrgeService)

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)

	// Google routes only exist when client credentials are configured;
	// otherwise they fall through to the 404 envelope.
	if app.Cfg.GoogleOAuthEnabled() {
		mux.HandleFunc("GET /auth/google", auth.GoogleAuth)
		mux.HandleFunc("GET /auth/google/callback", auth.GoogleCallback)
	} else {
		slog.Info("google oauth disabled, credentials not configured")
	}

	// Users
	profileLimiter := middleware.RateLimitRoute(10, time.Hour)
	mux.HandleFunc("GET /users/me", middleware.RequireAuth(user.Me))
	mux.HandleFunc("PATCH /users/me", profileLimiter(middleware.RequireAuth(user.UpdateMe)))

	// Habits
	mux.HandleFunc("GET /habits", middleware.RequireAuth(habit.List))
	mux.HandleFunc("POST /habits", middleware.RequireAuth(habit.Create))
	mux.HandleFunc("GET /habits/{id}", middleware.RequireAuth(habit.Get))

	// Urges
	mux.HandleFunc("POST /urges", middleware.RequireAuth(urge.Create))
	mux.HandleFunc("GET /urges", middleware.RequireAuth(urge.List))
	mux.HandleFunc("GET /urges/stats", middleware.RequireAuth(urge.Stats))
	mux.HandleFunc("GET /urges/stats/by-type", middleware.RequireAuth(urge.StatsByHabit))
	mux.HandleFunc("GET /urges/stats/time-series", middleware.RequireAuth(urge.TimeSeries))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 404 in the JSON envelope
	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		httperr.Write(w, r, httperr.NotFound("Not found"))
	})

	// CORS restricted to the frontend origin
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{app.Cfg.FrontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.SecurityHeaders,
		corsMiddleware.Handler,
		middleware.RequestLogging,
		middleware.RateLimit(app.Cfg.RateLimitRequests, app.Cfg.RateLimitWindow),
		middleware.Auth(app.AuthService),
	)
}
