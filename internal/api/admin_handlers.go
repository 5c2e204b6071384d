package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/allandev/salon-booking/internal/schedule"
)

// Admin surface: the panel's services catalogue, working-hours document and
// blackout rules. Plain document CRUD; the engine consumes these as inputs.

func listServicesHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.ListServices(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, ServiceResponse{
				ID:          s.ID,
				Name:        s.Name,
				Description: s.Description,
				Price:       s.Price,
				Duration:    s.Duration,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createServiceHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.CreateService(r.Context(), schedule.Service{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Duration:    req.Duration,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ServiceResponse{
			ID:          created.ID,
			Name:        created.Name,
			Description: created.Description,
			Price:       created.Price,
			Duration:    created.Duration,
		})
	}
}

func deleteServiceHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteService(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getWorkingHoursHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours, err := svc.WorkingHours(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWorkingHoursPayload(hours))
	}
}

func saveWorkingHoursHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WorkingHoursPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		hours, err := fromWorkingHoursPayload(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_working_hours", err.Error())
			return
		}

		if err := svc.SaveWorkingHours(r.Context(), hours); err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWorkingHoursPayload(hours))
	}
}

func toWorkingHoursPayload(h schedule.WorkingHours) WorkingHoursPayload {
	closed := make([]int, 0, len(h.ClosedWeekdays))
	for _, d := range h.ClosedWeekdays {
		closed = append(closed, int(d))
	}
	return WorkingHoursPayload{
		Start:          schedule.FormatClock(h.Start),
		End:            schedule.FormatClock(h.End),
		BreakStart:     schedule.FormatClock(h.BreakStart),
		BreakEnd:       schedule.FormatClock(h.BreakEnd),
		ClosedWeekdays: closed,
	}
}

func fromWorkingHoursPayload(p WorkingHoursPayload) (schedule.WorkingHours, error) {
	var h schedule.WorkingHours
	var err error

	if h.Start, err = schedule.ParseClock(p.Start); err != nil {
		return h, err
	}
	if h.End, err = schedule.ParseClock(p.End); err != nil {
		return h, err
	}
	if h.BreakStart, err = schedule.ParseClock(p.BreakStart); err != nil {
		return h, err
	}
	if h.BreakEnd, err = schedule.ParseClock(p.BreakEnd); err != nil {
		return h, err
	}
	for _, d := range p.ClosedWeekdays {
		h.ClosedWeekdays = append(h.ClosedWeekdays, time.Weekday(d))
	}
	return h, nil
}

func listBlackoutsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := svc.ListBlackoutRules(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]BlackoutResponse, 0, len(rules))
		for _, rule := range rules {
			resp = append(resp, toBlackoutResponse(rule))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createBlackoutHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlackoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		anchor, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := schedule.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		end, err := schedule.ParseClock(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be HH:MM")
			return
		}

		created, err := svc.CreateBlackoutRule(r.Context(), schedule.BlackoutRule{
			Title:       req.Title,
			Anchor:      anchor,
			Start:       start,
			End:         end,
			Recurrence:  schedule.Recurrence(req.Recurrence),
			RepeatCount: req.RepeatCount,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBlackoutResponse(*created))
	}
}

func deleteBlackoutHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_blackout_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteBlackoutRule(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toBlackoutResponse(r schedule.BlackoutRule) BlackoutResponse {
	return BlackoutResponse{
		ID:          r.ID,
		Title:       r.Title,
		Date:        formatDate(r.Anchor),
		StartTime:   schedule.FormatClock(r.Start),
		EndTime:     schedule.FormatClock(r.End),
		Recurrence:  string(r.Recurrence),
		RepeatCount: r.RepeatCount,
	}
}
