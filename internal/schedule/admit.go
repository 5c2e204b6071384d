package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest      = errors.New("invalid booking request")
	ErrOutsideWorkingHours = errors.New("requested time is outside working hours")
	ErrFallsInBreak        = errors.New("requested time falls in the daily break")
	ErrFallsInBlackout     = errors.New("requested time falls in a blocked period")
	ErrOverlaps            = errors.New("requested time overlaps an existing appointment")
)

// BookingRequest is a fully resolved booking attempt: the caller has
// already looked up the service and filled in its duration and name.
type BookingRequest struct {
	Date        time.Time
	Start       int // minutes since midnight
	ServiceID   uuid.UUID
	ServiceName string
	Duration    int
	ClientName  string
	ClientPhone string
}

// Admit decides whether the exact requested interval is bookable right now.
// It is a pure function of its inputs; the evaluation instant is passed in
// explicitly so the decision is deterministic and trivially testable.
//
// On acceptance it returns an Appointment ready to persist (ID is assigned
// by the store on commit). On rejection it returns one of the sentinel
// errors above, never wrapped into another reason. Rejection touches no
// state, so a rejected request can be retried verbatim.
//
// The admission check runs against a snapshot of existing appointments; the
// caller must pair it with a serialized write (day lock plus transactional
// re-validation in the store) to close the check-then-act window.
func Admit(req BookingRequest, now time.Time, hours WorkingHours, rules []BlackoutRule, existing []Appointment) (*Appointment, error) {
	if req.Duration <= 0 {
		return nil, ErrInvalidRequest
	}
	if req.Start < 0 || req.Start+req.Duration > MinutesPerDay {
		return nil, ErrInvalidRequest
	}
	if req.ClientName == "" || req.ClientPhone == "" {
		return nil, ErrInvalidRequest
	}
	if req.Date.IsZero() {
		return nil, ErrInvalidRequest
	}

	day := DateOf(req.Date)
	startsAt := day.Add(time.Duration(req.Start) * time.Minute)
	if startsAt.Before(now) {
		return nil, ErrInvalidRequest
	}

	end := req.Start + req.Duration

	if hours.ClosedOn(day) {
		return nil, ErrOutsideWorkingHours
	}
	open, close := hours.WorkingWindow(day)
	if req.Start < open || end > close {
		return nil, ErrOutsideWorkingHours
	}

	if bs, be, ok := hours.Break(); ok && overlaps(req.Start, end, bs, be) {
		return nil, ErrFallsInBreak
	}

	if crossesBlackout(Slot{Date: day, Start: req.Start, End: end}, ExpandAll(rules, day, day)) {
		return nil, ErrFallsInBlackout
	}

	if HasConflict(Slot{Date: day, Start: req.Start, End: end}, existing) {
		return nil, ErrOverlaps
	}

	return &Appointment{
		Date:        day,
		Start:       req.Start,
		End:         end,
		ServiceID:   req.ServiceID,
		ServiceName: req.ServiceName,
		Duration:    req.Duration,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
	}, nil
}
