package schedule

// overlaps is the half-open interval test used everywhere in the engine:
// [aStart, aEnd) intersects [bStart, bEnd). Adjacent intervals (one ends
// where the next starts) never conflict.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// HasConflict reports whether the candidate intersects any existing
// appointment on the same date.
func HasConflict(s Slot, existing []Appointment) bool {
	for _, a := range existing {
		if SameDate(s.Date, a.Date) && overlaps(s.Start, s.End, a.Start, a.End) {
			return true
		}
	}
	return false
}

// FilterAvailable drops candidates that collide with existing appointments,
// preserving the ascending input order.
func FilterAvailable(candidates []Slot, existing []Appointment) []Slot {
	var out []Slot
	for _, s := range candidates {
		if HasConflict(s, existing) {
			continue
		}
		out = append(out, s)
	}
	return out
}
