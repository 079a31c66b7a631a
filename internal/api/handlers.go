package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/barberbook/barberbook/internal/availability"
	"github.com/barberbook/barberbook/internal/schedule"
	"github.com/barberbook/barberbook/internal/scheduling"
)

// ProviderIDHeader carries the caller's provider identity for the
// publish-hours endpoint.
const ProviderIDHeader = "X-Provider-Id"

func listAvailabilityHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := schedule.ProviderID(chi.URLParam(r, "id"))

		day, err := schedule.ParseDay(r.URL.Query().Get("day"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", err.Error())
			return
		}

		slots, err := eng.ListAvailability(r.Context(), provider, day)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := AvailabilityResponse{Day: day.String(), Slots: make([]string, 0, len(slots))}
		for _, slot := range slots {
			resp.Slots = append(resp.Slots, slot.Time.String())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listAppointmentsHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := schedule.ProviderID(chi.URLParam(r, "id"))

		day, err := schedule.ParseDay(r.URL.Query().Get("day"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", err.Error())
			return
		}

		appts, err := eng.DayAppointments(r.Context(), provider, day)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for _, appt := range appts {
			resp = append(resp, appointmentResponse(appt.ID, appt.CustomerID, appt.Day, appt.Time, appt.Notes))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := schedule.ProviderID(chi.URLParam(r, "id"))

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		day, err := schedule.ParseDay(req.Day)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", err.Error())
			return
		}
		t, err := schedule.ParseTimeOfDay(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}

		conf, err := eng.Book(r.Context(), provider, req.CustomerID, day, t, req.Notes)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(conf.AppointmentID, req.CustomerID, conf.Slot.Day, conf.Slot.Time, req.Notes))
	}
}

func cancelAppointmentHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := schedule.ProviderID(chi.URLParam(r, "id"))
		apptID := scheduling.AppointmentID(chi.URLParam(r, "appointmentID"))

		if err := eng.Cancel(r.Context(), provider, apptID); err != nil {
			handleSchedulingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func rescheduleAppointmentHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := schedule.ProviderID(chi.URLParam(r, "id"))
		apptID := scheduling.AppointmentID(chi.URLParam(r, "appointmentID"))

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		day, err := schedule.ParseDay(req.Day)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", err.Error())
			return
		}
		t, err := schedule.ParseTimeOfDay(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}

		conf, err := eng.Reschedule(r.Context(), provider, apptID, day, t)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(conf.AppointmentID, "", conf.Slot.Day, conf.Slot.Time, ""))
	}
}

func publishHoursHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := schedule.ProviderID(chi.URLParam(r, "id"))
		caller := schedule.ProviderID(r.Header.Get(ProviderIDHeader))

		var req PublishHoursRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		cal := make(availability.Calendar, len(req))
		for rawDay, rawTimes := range req {
			day, err := schedule.ParseDay(rawDay)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_day", err.Error())
				return
			}
			times := make([]schedule.TimeOfDay, 0, len(rawTimes))
			for _, rawTime := range rawTimes {
				t, err := schedule.ParseTimeOfDay(rawTime)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
					return
				}
				times = append(times, t)
			}
			cal[day] = times
		}

		if err := eng.PublishHours(r.Context(), caller, provider, cal); err != nil {
			handleSchedulingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func customerAppointmentHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerID")

		appt, err := eng.CustomerAppointment(r.Context(), customerID)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointmentResponse(appt.ID, appt.CustomerID, appt.Day, appt.Time, appt.Notes))
	}
}

func cancelCustomerAppointmentHandler(eng *scheduling.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerID")

		if err := eng.CancelByCustomer(r.Context(), customerID); err != nil {
			handleSchedulingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func appointmentResponse(id scheduling.AppointmentID, customerID string, day schedule.Day, t schedule.TimeOfDay, notes string) AppointmentResponse {
	return AppointmentResponse{
		AppointmentID: string(id),
		CustomerID:    customerID,
		Day:           day.String(),
		Time:          t.String(),
		Notes:         notes,
	}
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	var vErr *scheduling.ValidationError
	var iErr *scheduling.InconsistencyError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "invalid_request", vErr.Error())
	case errors.Is(err, availability.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, "not_authorized", err.Error())
	case errors.Is(err, scheduling.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrSlotNoLongerAvailable):
		writeError(w, http.StatusConflict, "slot_no_longer_available", err.Error())
	case errors.Is(err, scheduling.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, scheduling.ErrCustomerAlreadyBooked):
		writeError(w, http.StatusConflict, "customer_already_booked", err.Error())
	case errors.Is(err, scheduling.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.As(err, &iErr):
		writeError(w, http.StatusInternalServerError, "index_inconsistency", iErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
