package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allandev/salon-booking/internal/schedule"
)

var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrBlackoutNotFound    = errors.New("blackout rule not found")
)

// Repository contains all storage interactions needed by the service. The
// engine itself owns no durable state; everything here belongs to the
// persistence collaborator.
type Repository interface {
	// Working-hours policy. Implementations return the default policy when
	// the operator has not saved one yet.
	GetWorkingHours(ctx context.Context) (schedule.WorkingHours, error)
	SaveWorkingHours(ctx context.Context, hours schedule.WorkingHours) error

	// Services catalogue
	ListServices(ctx context.Context) ([]schedule.Service, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*schedule.Service, error)
	CreateService(ctx context.Context, svc schedule.Service) (*schedule.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	// Blackout rules
	ListBlackoutRules(ctx context.Context) ([]schedule.BlackoutRule, error)
	CreateBlackoutRule(ctx context.Context, rule schedule.BlackoutRule) (*schedule.BlackoutRule, error)
	DeleteBlackoutRule(ctx context.Context, id uuid.UUID) error

	// Appointments
	ListAppointmentsByDate(ctx context.Context, date time.Time) ([]schedule.Appointment, error)
	ListAppointmentsFrom(ctx context.Context, from time.Time) ([]schedule.Appointment, error)

	// CommitAppointment inserts inside a transaction that re-reads the
	// day's appointments and re-checks overlap before writing; it is the
	// final guard against two admissions racing on stale snapshots and
	// returns schedule.ErrOverlaps when it loses.
	CommitAppointment(ctx context.Context, appt schedule.Appointment) (*schedule.Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Retention worker
	PurgeAppointmentsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeExhaustedBlackoutRules(ctx context.Context, today time.Time) (int64, error)
}
