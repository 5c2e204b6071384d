package schedule

import "time"

// SlotStepMinutes is the operator-facing booking granularity. Candidate
// starts walk the working window in steps of this size.
const SlotStepMinutes = 30

// GenerateSlots lists every bookable start for a service of the given
// duration on the date, ascending. A candidate is dropped when it crosses
// the break or a blackout instance on the same date. The loop bound
// guarantees no slot ever runs past closing time.
func GenerateSlots(date time.Time, duration int, hours WorkingHours, blackouts []BlackoutInstance) []Slot {
	if duration <= 0 {
		return nil
	}
	if hours.ClosedOn(date) {
		return nil
	}

	open, close := hours.WorkingWindow(date)
	day := DateOf(date)

	var out []Slot
	for t := open; t+duration <= close; t += SlotStepMinutes {
		s := Slot{Date: day, Start: t, End: t + duration}
		if bs, be, ok := hours.Break(); ok && overlaps(s.Start, s.End, bs, be) {
			continue
		}
		if crossesBlackout(s, blackouts) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func crossesBlackout(s Slot, blackouts []BlackoutInstance) bool {
	for _, b := range blackouts {
		if SameDate(s.Date, b.Date) && overlaps(s.Start, s.End, b.Start, b.End) {
			return true
		}
	}
	return false
}
