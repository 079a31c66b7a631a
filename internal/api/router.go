package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/barberbook/barberbook/internal/scheduling"
)

type RouterConfig struct {
	Engine  *scheduling.Engine
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/providers/{id}", func(r chi.Router) {
		r.Get("/availability", listAvailabilityHandler(cfg.Engine))
		r.Post("/hours", publishHoursHandler(cfg.Engine))

		r.Get("/appointments", listAppointmentsHandler(cfg.Engine))
		r.Post("/appointments", bookAppointmentHandler(cfg.Engine))
		r.Delete("/appointments/{appointmentID}", cancelAppointmentHandler(cfg.Engine))
		r.Patch("/appointments/{appointmentID}", rescheduleAppointmentHandler(cfg.Engine))
	})

	r.Get("/customers/{customerID}/appointment", customerAppointmentHandler(cfg.Engine))
	r.Delete("/customers/{customerID}/appointment", cancelCustomerAppointmentHandler(cfg.Engine))

	return r
}
