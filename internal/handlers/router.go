package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/superdrive/vehicle-ledger/internal/auth"
	"github.com/superdrive/vehicle-ledger/internal/db"
	"github.com/superdrive/vehicle-ledger/internal/fleet"
	"github.com/superdrive/vehicle-ledger/internal/middleware"
)

// NewRouter builds the HTTP API. All domain routes sit under /api/v1 and
// require a valid token; write routes additionally check role permissions.
func NewRouter(service *fleet.Service, authService *auth.Service, userStore db.UserStore) http.Handler {
	vehicles := NewVehicleHandler(service)
	ledger := NewLedgerHandler(service)
	metrics := NewMetricsHandler(service)
	reminders := NewReminderHandler(service)
	authHandler := NewAuthHandler(authService, userStore)
	authMiddleware := middleware.NewAuth(authService,
		"/api/v1/auth/login",
		"/api/v1/auth/register",
		"/health",
	)
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Heartbeat("/health"))
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(30 * time.Second))
	router.Use(authMiddleware.Authenticate)

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Limit)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/register", authHandler.Register)
		})

		r.Get("/auth/profile", authHandler.GetProfile)
		r.Put("/auth/profile", authHandler.UpdateProfile)
		r.Post("/auth/change-password", authHandler.ChangePassword)

		r.With(authMiddleware.RequirePermission("register_vehicle")).Post("/vehicles", vehicles.Register)
		r.With(authMiddleware.RequirePermission("view_vehicles")).Get("/vehicles", vehicles.List)
		r.With(authMiddleware.RequirePermission("view_vehicles")).Get("/vehicles/{id}", vehicles.Get)
		r.With(authMiddleware.RequirePermission("update_odometer")).Post("/vehicles/{id}/odometer", vehicles.UpdateOdometer)

		r.With(authMiddleware.RequirePermission("record_maintenance")).Post("/vehicles/{id}/maintenance", ledger.RecordMaintenance)
		r.With(authMiddleware.RequirePermission("view_ledger")).Get("/vehicles/{id}/maintenance", ledger.ListMaintenance)
		r.With(authMiddleware.RequirePermission("record_maintenance")).Post("/maintenance/{id}/complete", ledger.CompleteMaintenance)
		r.With(authMiddleware.RequirePermission("record_fuel")).Post("/vehicles/{id}/fuel", ledger.RecordFuel)
		r.With(authMiddleware.RequirePermission("view_ledger")).Get("/vehicles/{id}/fuel", ledger.ListFuel)

		r.With(authMiddleware.RequirePermission("view_metrics")).Get("/vehicles/{id}/metrics", metrics.Get)

		r.With(authMiddleware.RequirePermission("manage_reminders")).Post("/vehicles/{id}/reminders", reminders.Create)
		r.With(authMiddleware.RequirePermission("view_reminders")).Get("/vehicles/{id}/reminders", reminders.List)
		r.With(authMiddleware.RequirePermission("manage_reminders")).Post("/reminders/{id}/done", reminders.Done)
		r.With(authMiddleware.RequirePermission("manage_reminders")).Post("/reminders/{id}/defer", reminders.Defer)
	})

	return router
}
