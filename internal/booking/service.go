package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/allandev/salon-booking/internal/redis"
	"github.com/allandev/salon-booking/internal/schedule"
)

var (
	ErrDayBeingBooked = errors.New("another booking for this day is in progress, please retry")
)

// BookRequest is a booking attempt as it arrives from the outside: the
// service is referenced by ID and resolved here before admission.
type BookRequest struct {
	Date        time.Time
	Start       int // minutes since midnight
	ServiceID   uuid.UUID
	ClientName  string
	ClientPhone string
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// Availability computes the free slots for a service on a date: policy and
// blackout rules feed the slot generator, existing appointments feed the
// conflict filter. Purely derived, nothing is written.
func (s *Service) Availability(ctx context.Context, date time.Time, serviceID uuid.UUID) ([]schedule.Slot, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	hours, err := s.repo.GetWorkingHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}

	rules, err := s.repo.ListBlackoutRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blackout rules: %w", err)
	}

	existing, err := s.repo.ListAppointmentsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	day := schedule.DateOf(date)
	candidates := schedule.GenerateSlots(day, svc.Duration, hours, schedule.ExpandAll(rules, day, day))
	return schedule.FilterAvailable(candidates, existing), nil
}

// Book admits and persists one appointment. The day lock keeps concurrent
// requests for the same day out of the critical section so admission runs
// against a fresh snapshot, and CommitAppointment re-validates overlap
// inside its transaction as the final race guard.
func (s *Service) Book(ctx context.Context, req BookRequest) (*schedule.Appointment, error) {
	svc, err := s.repo.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	admitReq := schedule.BookingRequest{
		Date:        req.Date,
		Start:       req.Start,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Duration:    svc.Duration,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
	}

	var booked *schedule.Appointment

	err = s.locker.WithDayLock(ctx, schedule.DateOf(req.Date), func(lockCtx context.Context) error {
		hours, err := s.repo.GetWorkingHours(lockCtx)
		if err != nil {
			return fmt.Errorf("load working hours: %w", err)
		}

		rules, err := s.repo.ListBlackoutRules(lockCtx)
		if err != nil {
			return fmt.Errorf("load blackout rules: %w", err)
		}

		existing, err := s.repo.ListAppointmentsByDate(lockCtx, req.Date)
		if err != nil {
			return fmt.Errorf("load appointments: %w", err)
		}

		appt, err := schedule.Admit(admitReq, s.now(), hours, rules, existing)
		if err != nil {
			return err
		}

		committed, err := s.repo.CommitAppointment(lockCtx, *appt)
		if err != nil {
			return err
		}

		booked = committed
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDayBeingBooked
		}
		return nil, err
	}

	return booked, nil
}

// CancelAppointment removes a booking. Edits are modeled as cancel plus a
// new booking so the overlap invariant is re-checked from scratch.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// Appointments lists bookings, either for one date or all upcoming ones.
func (s *Service) Appointments(ctx context.Context, date *time.Time) ([]schedule.Appointment, error) {
	if date != nil {
		appts, err := s.repo.ListAppointmentsByDate(ctx, *date)
		if err != nil {
			return nil, fmt.Errorf("list appointments by date: %w", err)
		}
		return appts, nil
	}

	appts, err := s.repo.ListAppointmentsFrom(ctx, schedule.DateOf(s.now()))
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	return appts, nil
}

// Services catalogue

func (s *Service) ListServices(ctx context.Context) ([]schedule.Service, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (s *Service) CreateService(ctx context.Context, svc schedule.Service) (*schedule.Service, error) {
	if svc.Name == "" || svc.Price == "" || svc.Duration <= 0 {
		return nil, schedule.ErrInvalidRequest
	}
	created, err := s.repo.CreateService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return created, nil
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteService(ctx, id); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return err
		}
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

// Working-hours policy

func (s *Service) WorkingHours(ctx context.Context) (schedule.WorkingHours, error) {
	hours, err := s.repo.GetWorkingHours(ctx)
	if err != nil {
		return schedule.WorkingHours{}, fmt.Errorf("load working hours: %w", err)
	}
	return hours, nil
}

func (s *Service) SaveWorkingHours(ctx context.Context, hours schedule.WorkingHours) error {
	if err := hours.Validate(); err != nil {
		return err
	}
	if err := s.repo.SaveWorkingHours(ctx, hours); err != nil {
		return fmt.Errorf("save working hours: %w", err)
	}
	return nil
}

// Blackout rules

func (s *Service) ListBlackoutRules(ctx context.Context) ([]schedule.BlackoutRule, error) {
	rules, err := s.repo.ListBlackoutRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blackout rules: %w", err)
	}
	return rules, nil
}

func (s *Service) CreateBlackoutRule(ctx context.Context, rule schedule.BlackoutRule) (*schedule.BlackoutRule, error) {
	if rule.Title == "" || rule.Anchor.IsZero() || rule.Start >= rule.End {
		return nil, schedule.ErrInvalidRequest
	}
	if rule.Start < 0 || rule.End > schedule.MinutesPerDay {
		return nil, schedule.ErrInvalidRequest
	}
	switch rule.Recurrence {
	case schedule.RecurNone, "":
		rule.Recurrence = schedule.RecurNone
		rule.RepeatCount = 1
	case schedule.RecurDaily, schedule.RecurWeekly, schedule.RecurMonthly:
		if rule.RepeatCount < 1 {
			return nil, schedule.ErrInvalidRequest
		}
		if rule.RepeatCount > schedule.MaxRepeatCount {
			rule.RepeatCount = schedule.MaxRepeatCount
		}
	default:
		return nil, schedule.ErrInvalidRequest
	}

	created, err := s.repo.CreateBlackoutRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("create blackout rule: %w", err)
	}
	return created, nil
}

func (s *Service) DeleteBlackoutRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBlackoutRule(ctx, id); err != nil {
		if errors.Is(err, ErrBlackoutNotFound) {
			return err
		}
		return fmt.Errorf("delete blackout rule: %w", err)
	}
	return nil
}

// PurgeExpired is called by the retention worker: appointments older than
// retention are deleted, and blackout rules whose final occurrence has
// passed are removed so expansion stops walking dead rules.
func (s *Service) PurgeExpired(ctx context.Context, retentionDays int) error {
	today := schedule.DateOf(s.now())

	cutoff := today.AddDate(0, 0, -retentionDays)
	appts, err := s.repo.PurgeAppointmentsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge appointments: %w", err)
	}

	rules, err := s.repo.PurgeExhaustedBlackoutRules(ctx, today)
	if err != nil {
		return fmt.Errorf("purge blackout rules: %w", err)
	}

	if appts > 0 || rules > 0 {
		log.Printf("retention purge removed appointments=%d blackout_rules=%d", appts, rules)
	}
	return nil
}
