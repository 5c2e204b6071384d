package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable offering. The engine only reads its duration; the
// rest is display data owned by the admin panel.
type Service struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       string // display string, e.g. "12€"
	Duration    int    // minutes
	CreatedAt   time.Time
}

// Appointment is a confirmed booking. End is always Start + Duration.
// Appointments are never edited in place; an edit is a delete plus a new
// booking so the overlap check always runs against the full picture.
type Appointment struct {
	ID          uuid.UUID
	Date        time.Time // calendar date, midnight in the caller's location
	Start       int       // minutes since midnight
	End         int
	ServiceID   uuid.UUID
	ServiceName string
	Duration    int
	ClientName  string
	ClientPhone string
	CreatedAt   time.Time
}

// Slot is a candidate bookable interval of exactly the requested duration.
// Slots are derived values, recomputed on every query and never stored.
type Slot struct {
	Date  time.Time
	Start int
	End   int
}
