package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Service   BookingService
	JWTSecret string
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", loginHandler(cfg.Service))

		r.Route("/slots", func(r chi.Router) {
			r.Get("/all", listAllSlotsHandler(cfg.Service))
			r.Get("/", listAvailableSlotsHandler(cfg.Service))

			// slot mutations are admin-only
			r.Group(func(r chi.Router) {
				r.Use(AdminOnly(cfg.JWTSecret))
				r.Post("/", createSlotHandler(cfg.Service))
				r.Put("/{id}", updateSlotHandler(cfg.Service))
				r.Delete("/{id}", deleteSlotHandler(cfg.Service))
			})
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", bookAppointmentHandler(cfg.Service))
			r.Get("/{email}", listAppointmentsHandler(cfg.Service))
			r.Delete("/{id}", cancelAppointmentHandler(cfg.Service))
		})
	})

	return r
}
