package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotbook/booking-api/internal/booking"
)

// BookingService is the surface of booking.Service the handlers use.
type BookingService interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	ListSlots(ctx context.Context, now time.Time) ([]booking.SlotDetail, error)
	ListAvailableSlots(ctx context.Context, now time.Time) ([]booking.Slot, error)
	CreateSlot(ctx context.Context, dateTime time.Time) (*booking.Slot, error)
	UpdateSlot(ctx context.Context, id uuid.UUID, dateTime time.Time) (*booking.SlotDetail, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	BookAppointment(ctx context.Context, name, email string, slotID uuid.UUID) (*booking.Appointment, error)
	ListAppointmentsByEmail(ctx context.Context, email string) ([]booking.AppointmentDetail, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) error
}

func loginHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse JSON")
			return
		}

		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		token, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, booking.ErrNotAdmin):
				writeError(w, http.StatusUnauthorized, "Access denied. Admin role required.")
			case errors.Is(err, booking.ErrInvalidCredentials):
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
			default:
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token})
	}
}

func listAllSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListSlots(r.Context(), time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := make([]SlotDetailResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotDetailResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listAvailableSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListAvailableSlots(r.Context(), time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createSlotHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateTime, ok := decodeSlotRequest(w, r)
		if !ok {
			return
		}

		slot, err := svc.CreateSlot(r.Context(), dateTime)
		if err != nil {
			handleSlotError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSlotResponse(*slot))
	}
}

func updateSlotHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be a valid UUID")
			return
		}

		dateTime, ok := decodeSlotRequest(w, r)
		if !ok {
			return
		}

		slot, err := svc.UpdateSlot(r.Context(), id, dateTime)
		if err != nil {
			handleSlotError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotDetailResponse(*slot))
	}
}

func deleteSlotHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be a valid UUID")
			return
		}

		if err := svc.DeleteSlot(r.Context(), id); err != nil {
			handleSlotError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Slot deleted successfully"})
	}
}

func bookAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse JSON")
			return
		}

		if req.Name == "" || req.Email == "" || req.SlotID == "" {
			writeError(w, http.StatusBadRequest, "name, email and slotId are required")
			return
		}

		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			// an unparseable slot id can't reference any slot
			writeError(w, http.StatusBadRequest, "Slot is already booked or does not exist")
			return
		}

		appt, err := svc.BookAppointment(r.Context(), req.Name, req.Email, slotID)
		if err != nil {
			switch {
			case errors.Is(err, booking.ErrSlotUnavailable):
				writeError(w, http.StatusBadRequest, "Slot is already booked or does not exist")
			case errors.Is(err, booking.ErrSlotBeingBooked):
				writeError(w, http.StatusConflict, "Slot is currently being booked, please retry")
			default:
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")

		appointments, err := svc.ListAppointmentsByEmail(r.Context(), email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := make([]AppointmentDetailResponse, 0, len(appointments))
		for _, a := range appointments {
			resp = append(resp, toAppointmentDetailResponse(a))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}

		if err := svc.CancelAppointment(r.Context(), id); err != nil {
			if errors.Is(err, booking.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "Appointment not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment canceled"})
	}
}

func decodeSlotRequest(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var req SlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return time.Time{}, false
	}

	if req.DateTime == "" {
		writeError(w, http.StatusBadRequest, "dateTime is required")
		return time.Time{}, false
	}

	dateTime, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "dateTime must be an RFC 3339 timestamp")
		return time.Time{}, false
	}

	return dateTime, true
}

func handleSlotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "Slot not found")
	case errors.Is(err, booking.ErrDuplicateSlot):
		writeError(w, http.StatusBadRequest, "A slot already exists for this date and time")
	case errors.Is(err, booking.ErrSlotBooked):
		writeError(w, http.StatusBadRequest, "Cannot delete a booked slot. Cancel the appointment first.")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
