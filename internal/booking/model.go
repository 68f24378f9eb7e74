package booking

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Slot is a bookable point in time. IsBooked flips exactly with the
// life of the appointment holding it.
type Slot struct {
	ID        uuid.UUID
	DateTime  time.Time
	IsBooked  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID        uuid.UUID
	Name      string
	Email     string
	SlotID    uuid.UUID
	CreatedAt time.Time
}

// SlotDetail is a slot joined with its booking, if any.
type SlotDetail struct {
	Slot
	Booking *Appointment
}

// AppointmentDetail is an appointment joined with its slot.
type AppointmentDetail struct {
	Appointment
	Slot *Slot
}
