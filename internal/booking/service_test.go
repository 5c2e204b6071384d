package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/allandev/salon-booking/internal/redis"
	"github.com/allandev/salon-booking/internal/schedule"
)

// fakeRepo is an in-memory Repository. Commit re-checks overlap the same
// way the Postgres store does, so lock-bypass races are visible in tests.
type fakeRepo struct {
	hours        schedule.WorkingHours
	services     map[uuid.UUID]schedule.Service
	rules        map[uuid.UUID]schedule.BlackoutRule
	appointments map[uuid.UUID]schedule.Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		hours:        schedule.DefaultWorkingHours(),
		services:     make(map[uuid.UUID]schedule.Service),
		rules:        make(map[uuid.UUID]schedule.BlackoutRule),
		appointments: make(map[uuid.UUID]schedule.Appointment),
	}
}

func (r *fakeRepo) GetWorkingHours(ctx context.Context) (schedule.WorkingHours, error) {
	return r.hours, nil
}

func (r *fakeRepo) SaveWorkingHours(ctx context.Context, hours schedule.WorkingHours) error {
	r.hours = hours
	return nil
}

func (r *fakeRepo) ListServices(ctx context.Context) ([]schedule.Service, error) {
	out := make([]schedule.Service, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, svc)
	}
	return out, nil
}

func (r *fakeRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*schedule.Service, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &svc, nil
}

func (r *fakeRepo) CreateService(ctx context.Context, svc schedule.Service) (*schedule.Service, error) {
	svc.ID = uuid.New()
	svc.CreatedAt = time.Now()
	r.services[svc.ID] = svc
	return &svc, nil
}

func (r *fakeRepo) DeleteService(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.services[id]; !ok {
		return ErrServiceNotFound
	}
	delete(r.services, id)
	return nil
}

func (r *fakeRepo) ListBlackoutRules(ctx context.Context) ([]schedule.BlackoutRule, error) {
	out := make([]schedule.BlackoutRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (r *fakeRepo) CreateBlackoutRule(ctx context.Context, rule schedule.BlackoutRule) (*schedule.BlackoutRule, error) {
	rule.ID = uuid.New()
	rule.CreatedAt = time.Now()
	r.rules[rule.ID] = rule
	return &rule, nil
}

func (r *fakeRepo) DeleteBlackoutRule(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.rules[id]; !ok {
		return ErrBlackoutNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *fakeRepo) ListAppointmentsByDate(ctx context.Context, date time.Time) ([]schedule.Appointment, error) {
	day := schedule.DateOf(date)
	var out []schedule.Appointment
	for _, appt := range r.appointments {
		if schedule.SameDate(appt.Date, day) {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAppointmentsFrom(ctx context.Context, from time.Time) ([]schedule.Appointment, error) {
	var out []schedule.Appointment
	for _, appt := range r.appointments {
		if !appt.Date.Before(from) {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (r *fakeRepo) CommitAppointment(ctx context.Context, appt schedule.Appointment) (*schedule.Appointment, error) {
	for _, other := range r.appointments {
		if schedule.SameDate(appt.Date, other.Date) &&
			appt.Start < other.End && other.Start < appt.End {
			return nil, schedule.ErrOverlaps
		}
	}
	appt.ID = uuid.New()
	appt.CreatedAt = time.Now()
	r.appointments[appt.ID] = appt
	return &appt, nil
}

func (r *fakeRepo) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *fakeRepo) PurgeAppointmentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, appt := range r.appointments {
		if appt.Date.Before(cutoff) {
			delete(r.appointments, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) PurgeExhaustedBlackoutRules(ctx context.Context, today time.Time) (int64, error) {
	var n int64
	for id, rule := range r.rules {
		if rule.LastOccurrence().Before(today) {
			delete(r.rules, id)
			n++
		}
	}
	return n, nil
}

// fakeLocker runs the section inline. busy simulates a held day lock.
type fakeLocker struct {
	busy  bool
	calls int
}

func (l *fakeLocker) WithDayLock(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error {
	l.calls++
	if l.busy {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

func testDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeLocker, uuid.UUID) {
	t.Helper()

	repo := newFakeRepo()
	locker := &fakeLocker{}
	svc := NewService(repo, locker)
	svc.now = func() time.Time {
		return time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)
	}

	created, err := repo.CreateService(context.Background(), schedule.Service{
		Name:     "Corte de Cabelo",
		Price:    "15€",
		Duration: 30,
	})
	if err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return svc, repo, locker, created.ID
}

func TestBookPersistsAdmittedAppointment(t *testing.T) {
	svc, repo, _, serviceID := newTestService(t)

	appt, err := svc.Book(context.Background(), BookRequest{
		Date:        testDate(2026, time.September, 7), // Monday
		Start:       11 * 60,
		ServiceID:   serviceID,
		ClientName:  "Ana Pereira",
		ClientPhone: "+351 912 345 678",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.ID == uuid.Nil {
		t.Error("committed appointment has no ID")
	}
	if appt.End != 11*60+30 {
		t.Errorf("End = %d, want %d", appt.End, 11*60+30)
	}
	if appt.ServiceName != "Corte de Cabelo" {
		t.Errorf("ServiceName = %q, resolved from the catalogue expected", appt.ServiceName)
	}
	if len(repo.appointments) != 1 {
		t.Errorf("stored %d appointments, want 1", len(repo.appointments))
	}
}

func TestBookRejectsOverlapAndStoresNothing(t *testing.T) {
	svc, repo, _, serviceID := newTestService(t)

	first := BookRequest{
		Date:        testDate(2026, time.September, 7),
		Start:       12 * 60,
		ServiceID:   serviceID,
		ClientName:  "Ana Pereira",
		ClientPhone: "+351 912 345 678",
	}
	if _, err := svc.Book(context.Background(), first); err != nil {
		t.Fatalf("first Book: %v", err)
	}

	second := first
	second.Start = 12*60 + 15
	second.ClientName = "Bruno Costa"
	if _, err := svc.Book(context.Background(), second); !errors.Is(err, schedule.ErrOverlaps) {
		t.Fatalf("second Book error = %v, want ErrOverlaps", err)
	}
	if len(repo.appointments) != 1 {
		t.Errorf("stored %d appointments after rejection, want 1", len(repo.appointments))
	}
}

func TestBookUnknownService(t *testing.T) {
	svc, _, locker, _ := newTestService(t)

	_, err := svc.Book(context.Background(), BookRequest{
		Date:        testDate(2026, time.September, 7),
		Start:       11 * 60,
		ServiceID:   uuid.New(),
		ClientName:  "Ana Pereira",
		ClientPhone: "+351 912 345 678",
	})
	if !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("Book error = %v, want ErrServiceNotFound", err)
	}
	if locker.calls != 0 {
		t.Error("lock taken before the service resolved")
	}
}

func TestBookDayLockBusy(t *testing.T) {
	svc, repo, locker, serviceID := newTestService(t)
	locker.busy = true

	_, err := svc.Book(context.Background(), BookRequest{
		Date:        testDate(2026, time.September, 7),
		Start:       11 * 60,
		ServiceID:   serviceID,
		ClientName:  "Ana Pereira",
		ClientPhone: "+351 912 345 678",
	})
	if !errors.Is(err, ErrDayBeingBooked) {
		t.Fatalf("Book error = %v, want ErrDayBeingBooked", err)
	}
	if len(repo.appointments) != 0 {
		t.Errorf("stored %d appointments, want 0", len(repo.appointments))
	}
}

func TestAvailabilityFiltersBookedSlots(t *testing.T) {
	svc, _, _, serviceID := newTestService(t)
	day := testDate(2026, time.September, 7)

	before, err := svc.Availability(context.Background(), day, serviceID)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}

	if _, err := svc.Book(context.Background(), BookRequest{
		Date:        day,
		Start:       11 * 60,
		ServiceID:   serviceID,
		ClientName:  "Ana Pereira",
		ClientPhone: "+351 912 345 678",
	}); err != nil {
		t.Fatalf("Book: %v", err)
	}

	after, err := svc.Availability(context.Background(), day, serviceID)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(after) != len(before)-1 {
		t.Errorf("got %d slots after booking, want %d", len(after), len(before)-1)
	}
	for _, slot := range after {
		if slot.Start == 11*60 {
			t.Errorf("booked slot %s still offered", schedule.FormatClock(slot.Start))
		}
	}
}

func TestAvailabilityClosedDayEmpty(t *testing.T) {
	svc, _, _, serviceID := newTestService(t)

	slots, err := svc.Availability(context.Background(), testDate(2026, time.September, 6), serviceID) // Sunday
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("got %d slots on a closed day, want 0", len(slots))
	}
}

func TestCreateBlackoutRuleValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	anchor := testDate(2026, time.September, 7)

	tests := []struct {
		name    string
		rule    schedule.BlackoutRule
		wantErr bool
	}{
		{
			name: "one-off",
			rule: schedule.BlackoutRule{Title: "Inventário", Anchor: anchor, Start: 10 * 60, End: 11 * 60},
		},
		{
			name: "weekly",
			rule: schedule.BlackoutRule{Title: "Formação", Anchor: anchor, Start: 9 * 60, End: 11 * 60, Recurrence: schedule.RecurWeekly, RepeatCount: 4},
		},
		{
			name:    "missing title",
			rule:    schedule.BlackoutRule{Anchor: anchor, Start: 10 * 60, End: 11 * 60},
			wantErr: true,
		},
		{
			name:    "inverted interval",
			rule:    schedule.BlackoutRule{Title: "Inventário", Anchor: anchor, Start: 11 * 60, End: 10 * 60},
			wantErr: true,
		},
		{
			name:    "zero anchor",
			rule:    schedule.BlackoutRule{Title: "Inventário", Start: 10 * 60, End: 11 * 60},
			wantErr: true,
		},
		{
			name:    "recurring without count",
			rule:    schedule.BlackoutRule{Title: "Formação", Anchor: anchor, Start: 10 * 60, End: 11 * 60, Recurrence: schedule.RecurWeekly},
			wantErr: true,
		},
		{
			name:    "unknown recurrence",
			rule:    schedule.BlackoutRule{Title: "Formação", Anchor: anchor, Start: 10 * 60, End: 11 * 60, Recurrence: "yearly", RepeatCount: 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBlackoutRule(context.Background(), tt.rule)
			if tt.wantErr {
				if !errors.Is(err, schedule.ErrInvalidRequest) {
					t.Fatalf("CreateBlackoutRule error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBlackoutRule: %v", err)
			}
		})
	}
}

func TestCreateBlackoutRuleClampsRepeatCount(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.CreateBlackoutRule(context.Background(), schedule.BlackoutRule{
		Title:       "Formação",
		Anchor:      testDate(2026, time.September, 7),
		Start:       10 * 60,
		End:         11 * 60,
		Recurrence:  schedule.RecurWeekly,
		RepeatCount: 200,
	})
	if err != nil {
		t.Fatalf("CreateBlackoutRule: %v", err)
	}
	if created.RepeatCount != schedule.MaxRepeatCount {
		t.Errorf("RepeatCount = %d, want %d", created.RepeatCount, schedule.MaxRepeatCount)
	}
}

func TestCreateBlackoutRuleNormalizesOneOff(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.CreateBlackoutRule(context.Background(), schedule.BlackoutRule{
		Title:       "Inventário",
		Anchor:      testDate(2026, time.September, 7),
		Start:       10 * 60,
		End:         11 * 60,
		RepeatCount: 9,
	})
	if err != nil {
		t.Fatalf("CreateBlackoutRule: %v", err)
	}
	if created.Recurrence != schedule.RecurNone || created.RepeatCount != 1 {
		t.Errorf("got recurrence=%q repeat=%d, want none/1", created.Recurrence, created.RepeatCount)
	}
}

func TestSaveWorkingHoursRejectsInvalid(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	bad := schedule.WorkingHours{Start: 20 * 60, End: 9 * 60}
	if err := svc.SaveWorkingHours(context.Background(), bad); !errors.Is(err, schedule.ErrInvalidWorkingHours) {
		t.Fatalf("SaveWorkingHours error = %v, want ErrInvalidWorkingHours", err)
	}
	if repo.hours.Start == bad.Start {
		t.Error("invalid hours were persisted")
	}
}

func TestCreateServiceValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	tests := []struct {
		name string
		in   schedule.Service
	}{
		{"missing name", schedule.Service{Price: "15€", Duration: 30}},
		{"missing price", schedule.Service{Name: "Corte", Duration: 30}},
		{"zero duration", schedule.Service{Name: "Corte", Price: "15€"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateService(context.Background(), tt.in); !errors.Is(err, schedule.ErrInvalidRequest) {
				t.Fatalf("CreateService error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestPurgeExpired(t *testing.T) {
	svc, repo, _, serviceID := newTestService(t)

	old := schedule.Appointment{
		ID:          uuid.New(),
		Date:        testDate(2025, time.March, 1),
		Start:       10 * 60,
		End:         10*60 + 30,
		ServiceID:   serviceID,
		ServiceName: "Corte de Cabelo",
		Duration:    30,
		ClientName:  "Ana Pereira",
		ClientPhone: "+351 912 345 678",
	}
	repo.appointments[old.ID] = old

	recent := old
	recent.ID = uuid.New()
	recent.Date = testDate(2026, time.August, 20)
	repo.appointments[recent.ID] = recent

	done := schedule.BlackoutRule{
		ID:          uuid.New(),
		Title:       "Obras",
		Anchor:      testDate(2026, time.January, 5),
		Start:       9 * 60,
		End:         12 * 60,
		Recurrence:  schedule.RecurWeekly,
		RepeatCount: 2,
	}
	repo.rules[done.ID] = done

	active := done
	active.ID = uuid.New()
	active.Title = "Formação"
	active.Anchor = testDate(2026, time.August, 31)
	active.RepeatCount = 8
	repo.rules[active.ID] = active

	if err := svc.PurgeExpired(context.Background(), 90); err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}

	if _, ok := repo.appointments[old.ID]; ok {
		t.Error("appointment past retention survived the purge")
	}
	if _, ok := repo.appointments[recent.ID]; !ok {
		t.Error("recent appointment was purged")
	}
	if _, ok := repo.rules[done.ID]; ok {
		t.Error("exhausted blackout rule survived the purge")
	}
	if _, ok := repo.rules[active.ID]; !ok {
		t.Error("active blackout rule was purged")
	}
}
