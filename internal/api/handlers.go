package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/allandev/salon-booking/internal/booking"
	"github.com/allandev/salon-booking/internal/schedule"
)

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func toAppointmentResponse(a schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		Date:        formatDate(a.Date),
		StartTime:   schedule.FormatClock(a.Start),
		EndTime:     schedule.FormatClock(a.End),
		ServiceID:   a.ServiceID,
		ServiceName: a.ServiceName,
		Duration:    a.Duration,
		ClientName:  a.ClientName,
		ClientPhone: a.ClientPhone,
	}
}

func availabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		slots, err := svc.Availability(r.Context(), date, serviceID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := AvailabilityResponse{
			Date:      formatDate(date),
			ServiceID: serviceID,
			Slots:     make([]SlotResponse, 0, len(slots)),
		}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, SlotResponse{
				Start: schedule.FormatClock(s.Start),
				End:   schedule.FormatClock(s.End),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		start, err := schedule.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}

		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		appt, err := svc.Book(r.Context(), booking.BookRequest{
			Date:        date,
			Start:       start,
			ServiceID:   serviceID,
			ClientName:  req.ClientName,
			ClientPhone: req.ClientPhone,
		})
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var date *time.Time
		if ds := r.URL.Query().Get("date"); ds != "" {
			d, err := parseDate(ds)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			date = &d
		}

		appts, err := svc.Appointments(r.Context(), date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for _, a := range appts {
			resp = append(resp, toAppointmentResponse(a))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.CancelAppointment(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// handleBookError maps a booking outcome to an HTTP status. Policy
// rejections are expected outcomes: the requester sees which constraint
// was hit, and nothing is logged as an error.
func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	case errors.Is(err, schedule.ErrOutsideWorkingHours):
		writeError(w, http.StatusConflict, "outside_working_hours", err.Error())
	case errors.Is(err, schedule.ErrFallsInBreak):
		writeError(w, http.StatusConflict, "falls_in_break", err.Error())
	case errors.Is(err, schedule.ErrFallsInBlackout):
		writeError(w, http.StatusConflict, "falls_in_blackout", err.Error())
	case errors.Is(err, schedule.ErrOverlaps):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrDayBeingBooked):
		writeError(w, http.StatusConflict, "day_being_booked", "another booking for this day is in progress, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrBlackoutNotFound):
		writeError(w, http.StatusNotFound, "blackout_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	case errors.Is(err, schedule.ErrInvalidWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "invalid_working_hours", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
