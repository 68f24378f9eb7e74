package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotbook/booking-api/internal/booking"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SlotRequest struct {
	DateTime string `json:"dateTime"`
}

type CreateAppointmentRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	SlotID string `json:"slotId"`
}

// Wire format follows the original frontend contract: camelCase keys.

type SlotResponse struct {
	ID       uuid.UUID `json:"id"`
	DateTime time.Time `json:"dateTime"`
	IsBooked bool      `json:"isBooked"`
}

type SlotDetailResponse struct {
	SlotResponse
	Booking *AppointmentResponse `json:"booking,omitempty"`
}

type AppointmentResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	SlotID uuid.UUID `json:"slotId"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	Slot *SlotResponse `json:"slot,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func toSlotResponse(s booking.Slot) SlotResponse {
	return SlotResponse{
		ID:       s.ID,
		DateTime: s.DateTime,
		IsBooked: s.IsBooked,
	}
}

func toAppointmentResponse(a booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:     a.ID,
		Name:   a.Name,
		Email:  a.Email,
		SlotID: a.SlotID,
	}
}

func toSlotDetailResponse(d booking.SlotDetail) SlotDetailResponse {
	resp := SlotDetailResponse{SlotResponse: toSlotResponse(d.Slot)}
	if d.Booking != nil {
		b := toAppointmentResponse(*d.Booking)
		resp.Booking = &b
	}
	return resp
}

func toAppointmentDetailResponse(d booking.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{AppointmentResponse: toAppointmentResponse(d.Appointment)}
	if d.Slot != nil {
		s := toSlotResponse(*d.Slot)
		resp.Slot = &s
	}
	return resp
}
