package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/allandev/salon-booking/internal/booking"
	"github.com/allandev/salon-booking/internal/schedule"
)

// BookingService is what the handlers need from the booking layer. Kept as
// an interface so handler tests run against a fake.
type BookingService interface {
	Availability(ctx context.Context, date time.Time, serviceID uuid.UUID) ([]schedule.Slot, error)
	Book(ctx context.Context, req booking.BookRequest) (*schedule.Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) error
	Appointments(ctx context.Context, date *time.Time) ([]schedule.Appointment, error)

	ListServices(ctx context.Context) ([]schedule.Service, error)
	CreateService(ctx context.Context, svc schedule.Service) (*schedule.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	WorkingHours(ctx context.Context) (schedule.WorkingHours, error)
	SaveWorkingHours(ctx context.Context, hours schedule.WorkingHours) error

	ListBlackoutRules(ctx context.Context) ([]schedule.BlackoutRule, error)
	CreateBlackoutRule(ctx context.Context, rule schedule.BlackoutRule) (*schedule.BlackoutRule, error)
	DeleteBlackoutRule(ctx context.Context, id uuid.UUID) error
}

type RouterConfig struct {
	Service BookingService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Booking surface
	r.Get("/availability", availabilityHandler(cfg.Service))
	r.Post("/appointments", bookAppointmentHandler(cfg.Service))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Service))

	// Admin surface
	r.Get("/services", listServicesHandler(cfg.Service))
	r.Post("/services", createServiceHandler(cfg.Service))
	r.Delete("/services/{id}", deleteServiceHandler(cfg.Service))

	r.Get("/schedule", getWorkingHoursHandler(cfg.Service))
	r.Put("/schedule", saveWorkingHoursHandler(cfg.Service))

	r.Get("/blackouts", listBlackoutsHandler(cfg.Service))
	r.Post("/blackouts", createBlackoutHandler(cfg.Service))
	r.Delete("/blackouts/{id}", deleteBlackoutHandler(cfg.Service))

	return r
}
