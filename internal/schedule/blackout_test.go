package schedule

import (
	"testing"
	"time"
)

func TestExpandNone(t *testing.T) {
	rule := BlackoutRule{
		Title:      "supplier visit",
		Anchor:     date(2026, time.September, 7),
		Start:      10 * 60,
		End:        11 * 60,
		Recurrence: RecurNone,
		// RepeatCount deliberately nonsensical; none always yields one.
		RepeatCount: 5,
	}

	got := Expand(rule, date(2026, time.September, 1), date(2026, time.December, 31))
	if len(got) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(got))
	}
	if !got[0].Date.Equal(rule.Anchor) || got[0].Start != 10*60 || got[0].End != 11*60 {
		t.Errorf("unexpected instance: %+v", got[0])
	}
}

func TestExpandWeekly(t *testing.T) {
	// Weekly rule anchored on a Monday, three repeats: the anchor Monday
	// and the following two.
	rule := BlackoutRule{
		Anchor:      date(2026, time.September, 7), // Monday
		Start:       9 * 60,
		End:         10 * 60,
		Recurrence:  RecurWeekly,
		RepeatCount: 3,
	}

	got := Expand(rule, date(2026, time.September, 1), date(2026, time.October, 31))
	want := []time.Time{
		date(2026, time.September, 7),
		date(2026, time.September, 14),
		date(2026, time.September, 21),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d instances, got %d", len(want), len(got))
	}
	for i, w := range want {
		if !got[i].Date.Equal(w) {
			t.Errorf("instance %d: got %s, want %s", i, got[i].Date, w)
		}
		if got[i].Date.Weekday() != time.Monday {
			t.Errorf("instance %d: fell on %s, want Monday", i, got[i].Date.Weekday())
		}
	}
}

func TestExpandWindowClipsVisibilityNotSchedule(t *testing.T) {
	rule := BlackoutRule{
		Anchor:      date(2026, time.September, 7),
		Start:       9 * 60,
		End:         10 * 60,
		Recurrence:  RecurWeekly,
		RepeatCount: 3,
	}

	// Window starts after the first two occurrences: only the third is
	// visible, still on its original date.
	got := Expand(rule, date(2026, time.September, 16), date(2026, time.October, 31))
	if len(got) != 1 {
		t.Fatalf("expected 1 visible instance, got %d", len(got))
	}
	if !got[0].Date.Equal(date(2026, time.September, 21)) {
		t.Errorf("got %s, want 2026-09-21", got[0].Date)
	}

	// A window past the final occurrence sees nothing; the schedule is
	// exhausted, not shifted forward.
	if got := Expand(rule, date(2026, time.September, 22), date(2026, time.October, 31)); len(got) != 0 {
		t.Errorf("expected no instances past the schedule, got %d", len(got))
	}
}

func TestExpandDaily(t *testing.T) {
	rule := BlackoutRule{
		Anchor:      date(2026, time.September, 7),
		Start:       12 * 60,
		End:         13 * 60,
		Recurrence:  RecurDaily,
		RepeatCount: 4,
	}

	got := Expand(rule, date(2026, time.September, 1), date(2026, time.September, 30))
	if len(got) != 4 {
		t.Fatalf("expected 4 instances, got %d", len(got))
	}
	for i := range got {
		want := date(2026, time.September, 7+i)
		if !got[i].Date.Equal(want) {
			t.Errorf("instance %d: got %s, want %s", i, got[i].Date, want)
		}
	}
}

func TestExpandMonthlyClampsToShortMonths(t *testing.T) {
	// Anchored on Jan 31: February has no 31st, so the occurrence clamps
	// to the month's last day instead of being skipped.
	rule := BlackoutRule{
		Anchor:      date(2026, time.January, 31),
		Start:       9 * 60,
		End:         12 * 60,
		Recurrence:  RecurMonthly,
		RepeatCount: 4,
	}

	got := Expand(rule, date(2026, time.January, 1), date(2026, time.December, 31))
	want := []time.Time{
		date(2026, time.January, 31),
		date(2026, time.February, 28),
		date(2026, time.March, 31),
		date(2026, time.April, 30),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d instances, got %d", len(want), len(got))
	}
	for i, w := range want {
		if !got[i].Date.Equal(w) {
			t.Errorf("instance %d: got %s, want %s", i, got[i].Date, w)
		}
	}
}

func TestExpandDeterministic(t *testing.T) {
	rule := BlackoutRule{
		Anchor:      date(2026, time.September, 7),
		Start:       9 * 60,
		End:         10 * 60,
		Recurrence:  RecurDaily,
		RepeatCount: 10,
	}
	ws, we := date(2026, time.September, 1), date(2026, time.September, 30)

	first := Expand(rule, ws, we)
	second := Expand(rule, ws, we)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("instance %d differs between calls", i)
		}
	}
}

func TestExpandRepeatCountCapped(t *testing.T) {
	rule := BlackoutRule{
		Anchor:      date(2026, time.September, 7),
		Start:       9 * 60,
		End:         10 * 60,
		Recurrence:  RecurDaily,
		RepeatCount: 10000,
	}

	got := Expand(rule, date(2026, time.January, 1), date(2030, time.December, 31))
	if len(got) != MaxRepeatCount {
		t.Errorf("expected expansion capped at %d, got %d", MaxRepeatCount, len(got))
	}
}

func TestLastOccurrence(t *testing.T) {
	tests := []struct {
		name string
		rule BlackoutRule
		want time.Time
	}{
		{
			"none",
			BlackoutRule{Anchor: date(2026, time.September, 7), Recurrence: RecurNone, RepeatCount: 9},
			date(2026, time.September, 7),
		},
		{
			"weekly x3",
			BlackoutRule{Anchor: date(2026, time.September, 7), Recurrence: RecurWeekly, RepeatCount: 3},
			date(2026, time.September, 21),
		},
		{
			"monthly clamped",
			BlackoutRule{Anchor: date(2026, time.January, 31), Recurrence: RecurMonthly, RepeatCount: 2},
			date(2026, time.February, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.LastOccurrence(); !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
