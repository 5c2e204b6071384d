package schedule

import (
	"errors"
	"time"
)

var (
	ErrInvalidWorkingHours = errors.New("invalid working hours")
)

// WorkingHours is the recurring weekly opening policy: one open window per
// day, an optional daily break, and weekdays the business is fully closed.
type WorkingHours struct {
	Start          int // minutes since midnight
	End            int
	BreakStart     int
	BreakEnd       int
	ClosedWeekdays []time.Weekday
}

// DefaultWorkingHours mirrors the configuration a fresh deployment starts
// with before the operator saves their own.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{
		Start:          11 * 60,
		End:            21 * 60,
		BreakStart:     14 * 60,
		BreakEnd:       15 * 60,
		ClosedWeekdays: []time.Weekday{time.Sunday},
	}
}

// Validate checks the structural invariants: the open window is non-empty,
// within a single day, and the break (if any) lies inside it.
func (h WorkingHours) Validate() error {
	if h.Start < 0 || h.End > MinutesPerDay || h.Start >= h.End {
		return ErrInvalidWorkingHours
	}
	if h.BreakStart > h.BreakEnd {
		return ErrInvalidWorkingHours
	}
	if h.BreakStart < h.BreakEnd {
		if h.BreakStart < h.Start || h.BreakEnd > h.End {
			return ErrInvalidWorkingHours
		}
	}
	return nil
}

// ClosedOn reports whether the date's weekday is a closed day.
func (h WorkingHours) ClosedOn(date time.Time) bool {
	wd := date.Weekday()
	for _, d := range h.ClosedWeekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// WorkingWindow returns the open interval for the date, or (0, 0) on a
// closed day.
func (h WorkingHours) WorkingWindow(date time.Time) (start, end int) {
	if h.ClosedOn(date) {
		return 0, 0
	}
	return h.Start, h.End
}

// Break returns the daily break window. A zero-width break counts as no
// break at all, so it never excludes a slot.
func (h WorkingHours) Break() (start, end int, ok bool) {
	if h.BreakStart >= h.BreakEnd {
		return 0, 0, false
	}
	return h.BreakStart, h.BreakEnd, true
}
