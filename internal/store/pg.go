package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/allandev/salon-booking/internal/booking"
	"github.com/allandev/salon-booking/internal/schedule"
)

// PgStore implements booking.Repository on Postgres. Every row carries the
// client_id of the business this deployment serves.
type PgStore struct {
	pool     *pgxpool.Pool
	clientID string
}

func NewPgStore(pool *pgxpool.Pool, clientID string) *PgStore {
	return &PgStore{pool: pool, clientID: clientID}
}

// Helpers

func scanService(row pgx.Row) (*schedule.Service, error) {
	var s schedule.Service

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.Price,
		&s.Duration,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanBlackoutRule(row pgx.Row) (*schedule.BlackoutRule, error) {
	var r schedule.BlackoutRule
	var recurrence string

	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Anchor,
		&r.Start,
		&r.End,
		&recurrence,
		&r.RepeatCount,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBlackoutNotFound
		}
		return nil, err
	}

	r.Recurrence = schedule.Recurrence(recurrence)
	return &r, nil
}

func scanAppointment(row pgx.Row) (*schedule.Appointment, error) {
	var a schedule.Appointment

	err := row.Scan(
		&a.ID,
		&a.Date,
		&a.Start,
		&a.End,
		&a.ServiceID,
		&a.ServiceName,
		&a.Duration,
		&a.ClientName,
		&a.ClientPhone,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Working-hours policy

func (r *PgStore) GetWorkingHours(ctx context.Context) (schedule.WorkingHours, error) {
	var h schedule.WorkingHours
	var closed []int32

	err := r.pool.QueryRow(ctx, `
		SELECT start_minute, end_minute, break_start, break_end, closed_weekdays
		FROM working_hours
		WHERE client_id = $1
	`, r.clientID).Scan(&h.Start, &h.End, &h.BreakStart, &h.BreakEnd, &closed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Fresh deployment: behave like the default panel config.
			return schedule.DefaultWorkingHours(), nil
		}
		return schedule.WorkingHours{}, err
	}

	h.ClosedWeekdays = make([]time.Weekday, len(closed))
	for i, d := range closed {
		h.ClosedWeekdays[i] = time.Weekday(d)
	}
	return h, nil
}

func (r *PgStore) SaveWorkingHours(ctx context.Context, hours schedule.WorkingHours) error {
	closed := make([]int32, len(hours.ClosedWeekdays))
	for i, d := range hours.ClosedWeekdays {
		closed[i] = int32(d)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO working_hours (client_id, start_minute, end_minute, break_start, break_end, closed_weekdays, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (client_id) DO UPDATE
		SET start_minute = EXCLUDED.start_minute,
		    end_minute = EXCLUDED.end_minute,
		    break_start = EXCLUDED.break_start,
		    break_end = EXCLUDED.break_end,
		    closed_weekdays = EXCLUDED.closed_weekdays,
		    updated_at = now()
	`, r.clientID, hours.Start, hours.End, hours.BreakStart, hours.BreakEnd, closed)
	if err != nil {
		return fmt.Errorf("save working hours: %w", err)
	}
	return nil
}

// Services catalogue

func (r *PgStore) ListServices(ctx context.Context) ([]schedule.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, price, duration_minutes, created_at
		FROM services
		WHERE client_id = $1
		ORDER BY name ASC
	`, r.clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgStore) GetServiceByID(ctx context.Context, id uuid.UUID) (*schedule.Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, price, duration_minutes, created_at
		FROM services
		WHERE client_id = $1 AND id = $2
	`, r.clientID, id)
	return scanService(row)
}

func (r *PgStore) CreateService(ctx context.Context, svc schedule.Service) (*schedule.Service, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, client_id, name, description, price, duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, name, description, price, duration_minutes, created_at
	`, id, r.clientID, svc.Name, svc.Description, svc.Price, svc.Duration)

	return scanService(row)
}

func (r *PgStore) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM services
		WHERE client_id = $1 AND id = $2
	`, r.clientID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrServiceNotFound
	}
	return nil
}

// Blackout rules

func (r *PgStore) ListBlackoutRules(ctx context.Context) ([]schedule.BlackoutRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, anchor_date, start_minute, end_minute, recurrence, repeat_count, created_at
		FROM blackout_rules
		WHERE client_id = $1
		ORDER BY anchor_date ASC, start_minute ASC
	`, r.clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.BlackoutRule
	for rows.Next() {
		rule, err := scanBlackoutRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}

	return result, rows.Err()
}

func (r *PgStore) CreateBlackoutRule(ctx context.Context, rule schedule.BlackoutRule) (*schedule.BlackoutRule, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO blackout_rules (id, client_id, title, anchor_date, start_minute, end_minute, recurrence, repeat_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, title, anchor_date, start_minute, end_minute, recurrence, repeat_count, created_at
	`, id, r.clientID, rule.Title, schedule.DateOf(rule.Anchor), rule.Start, rule.End, string(rule.Recurrence), rule.RepeatCount)

	return scanBlackoutRule(row)
}

func (r *PgStore) DeleteBlackoutRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blackout_rules
		WHERE client_id = $1 AND id = $2
	`, r.clientID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrBlackoutNotFound
	}
	return nil
}

// Appointments

const appointmentColumns = `id, date, start_minute, end_minute, service_id, service_name, duration_minutes, client_name, client_phone, created_at`

// dayCommitLockKey derives the pg_advisory_xact_lock key serializing
// appointment commits for one business day. Deterministic so every writer
// for the same (business, date) contends on the same key.
func dayCommitLockKey(clientID string, date time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(clientID))
	h.Write([]byte{0})
	h.Write([]byte(date.Format("2006-01-02")))
	return int64(h.Sum64())
}

func (r *PgStore) ListAppointmentsByDate(ctx context.Context, date time.Time) ([]schedule.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1 AND date = $2
		ORDER BY start_minute ASC
	`, r.clientID, schedule.DateOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgStore) ListAppointmentsFrom(ctx context.Context, from time.Time) ([]schedule.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1 AND date >= $2
		ORDER BY date ASC, start_minute ASC
	`, r.clientID, schedule.DateOf(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]schedule.Appointment, error) {
	var result []schedule.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// CommitAppointment inserts the appointment inside a transaction that first
// serializes on the day and re-reads its rows. Admission ran against a
// snapshot; this re-check is the final guard when two writers race on the
// same day.
func (r *PgStore) CommitAppointment(ctx context.Context, appt schedule.Appointment) (*schedule.Appointment, error) {
	day := schedule.DateOf(appt.Date)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin commit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Advisory lock on the day. Row locks alone cannot serialize commits
	// for a day that has no rows yet: two transactions would each scan an
	// empty set and both insert. The advisory lock exists regardless, held
	// until commit or rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, dayCommitLockKey(r.clientID, day)); err != nil {
		return nil, fmt.Errorf("lock day: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT start_minute, end_minute
		FROM appointments
		WHERE client_id = $1 AND date = $2
		FOR UPDATE
	`, r.clientID, day)
	if err != nil {
		return nil, fmt.Errorf("lock day appointments: %w", err)
	}

	for rows.Next() {
		var start, end int
		if err := rows.Scan(&start, &end); err != nil {
			rows.Close()
			return nil, err
		}
		if appt.Start < end && start < appt.End {
			rows.Close()
			return nil, schedule.ErrOverlaps
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, client_id, date, start_minute, end_minute, service_id, service_name, duration_minutes, client_name, client_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING `+appointmentColumns+`
	`, id, r.clientID, day, appt.Start, appt.End,
		appt.ServiceID, appt.ServiceName, appt.Duration, appt.ClientName, appt.ClientPhone)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit appointment: %w", err)
	}

	return created, nil
}

func (r *PgStore) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE client_id = $1 AND id = $2
	`, r.clientID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrAppointmentNotFound
	}
	return nil
}

// Retention

func (r *PgStore) PurgeAppointmentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE client_id = $1 AND date < $2
	`, r.clientID, schedule.DateOf(cutoff))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeExhaustedBlackoutRules deletes rules whose final occurrence is in
// the past. The monthly clamp makes the final date awkward to express in
// SQL, so the schedule package stays authoritative and the dates are
// computed here in Go.
func (r *PgStore) PurgeExhaustedBlackoutRules(ctx context.Context, today time.Time) (int64, error) {
	rules, err := r.ListBlackoutRules(ctx)
	if err != nil {
		return 0, err
	}

	day := schedule.DateOf(today)
	var purged int64
	for _, rule := range rules {
		if !rule.LastOccurrence().Before(day) {
			continue
		}
		tag, err := r.pool.Exec(ctx, `
			DELETE FROM blackout_rules
			WHERE client_id = $1 AND id = $2
		`, r.clientID, rule.ID)
		if err != nil {
			return purged, err
		}
		purged += tag.RowsAffected()
	}
	return purged, nil
}
