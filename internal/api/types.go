package api

import (
	"github.com/google/uuid"
)

// Clock times cross the wire as "HH:MM" strings and dates as "YYYY-MM-DD",
// the format the booking panel already speaks.

type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityResponse struct {
	Date      string         `json:"date"`
	ServiceID uuid.UUID      `json:"service_id"`
	Slots     []SlotResponse `json:"slots"`
}

type BookAppointmentRequest struct {
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	ServiceID   string `json:"service_id"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Duration    int       `json:"duration_minutes"`
	ClientName  string    `json:"client_name"`
	ClientPhone string    `json:"client_phone"`
}

type ServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Duration    int    `json:"duration_minutes"`
}

type ServiceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Duration    int       `json:"duration_minutes"`
}

type WorkingHoursPayload struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	BreakStart     string `json:"break_start"`
	BreakEnd       string `json:"break_end"`
	ClosedWeekdays []int  `json:"closed_weekdays"` // 0=Sunday .. 6=Saturday
}

type BlackoutRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Recurrence  string `json:"recurrence,omitempty"` // none, daily, weekly, monthly
	RepeatCount int    `json:"repeat_count,omitempty"`
}

type BlackoutResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Recurrence  string    `json:"recurrence"`
	RepeatCount int       `json:"repeat_count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
