package schedule

import (
	"time"

	"github.com/google/uuid"
)

type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// MaxRepeatCount caps recurrence expansion so a stored rule can never make
// a query unbounded.
const MaxRepeatCount = 52

// BlackoutRule is an operator-defined period during which no bookings are
// accepted, anchored on a date and optionally repeating.
type BlackoutRule struct {
	ID          uuid.UUID
	Title       string
	Anchor      time.Time // date of the first occurrence
	Start       int       // minutes since midnight
	End         int
	Recurrence  Recurrence
	RepeatCount int // occurrences including the anchor; ignored for RecurNone
	CreatedAt   time.Time
}

// BlackoutInstance is one concrete occurrence of a rule. Instances are
// derived on demand and never persisted.
type BlackoutInstance struct {
	Date  time.Time
	Start int
	End   int
}

// Expand produces the rule's occurrences visible inside [windowStart,
// windowEnd], ordered by date. The occurrence schedule depends only on the
// rule: occurrences before the window are skipped but still consume the
// repeat budget, so narrowing the window never shifts later occurrences.
func Expand(rule BlackoutRule, windowStart, windowEnd time.Time) []BlackoutInstance {
	count := rule.RepeatCount
	if count < 1 || rule.Recurrence == RecurNone || rule.Recurrence == "" {
		count = 1
	}
	if count > MaxRepeatCount {
		count = MaxRepeatCount
	}

	ws := DateOf(windowStart)
	we := DateOf(windowEnd)

	var out []BlackoutInstance
	for i := 0; i < count; i++ {
		d := rule.occurrence(i)
		if d.After(we) {
			break
		}
		if d.Before(ws) {
			continue
		}
		out = append(out, BlackoutInstance{Date: d, Start: rule.Start, End: rule.End})
	}
	return out
}

// LastOccurrence returns the date of the rule's final occurrence.
func (r BlackoutRule) LastOccurrence() time.Time {
	count := r.RepeatCount
	if count < 1 || r.Recurrence == RecurNone || r.Recurrence == "" {
		count = 1
	}
	if count > MaxRepeatCount {
		count = MaxRepeatCount
	}
	return r.occurrence(count - 1)
}

// occurrence computes the i-th occurrence date (0 = anchor). Monthly
// recurrence keeps the anchor's day-of-month; when the target month is
// shorter it clamps to that month's last day rather than skipping the
// occurrence.
func (r BlackoutRule) occurrence(i int) time.Time {
	anchor := DateOf(r.Anchor)

	switch r.Recurrence {
	case RecurDaily:
		return anchor.AddDate(0, 0, i)
	case RecurWeekly:
		return anchor.AddDate(0, 0, 7*i)
	case RecurMonthly:
		y, m, _ := anchor.Date()
		first := time.Date(y, m+time.Month(i), 1, 0, 0, 0, 0, anchor.Location())
		day := anchor.Day()
		if last := first.AddDate(0, 1, -1).Day(); day > last {
			day = last
		}
		return first.AddDate(0, 0, day-1)
	default:
		return anchor
	}
}

// ExpandAll expands every rule over the window and returns the combined
// instances. Order across rules is not significant to the consumers.
func ExpandAll(rules []BlackoutRule, windowStart, windowEnd time.Time) []BlackoutInstance {
	var out []BlackoutInstance
	for _, r := range rules {
		out = append(out, Expand(r, windowStart, windowEnd)...)
	}
	return out
}
