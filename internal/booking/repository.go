package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrDuplicateSlot       = errors.New("a slot already exists for this date and time")
	ErrSlotBooked          = errors.New("slot has an active booking")
	ErrSlotUnavailable     = errors.New("slot is already booked or does not exist")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Slot inventory
	ListSlots(ctx context.Context, now time.Time) ([]SlotDetail, error)
	ListAvailableSlots(ctx context.Context, now time.Time) ([]Slot, error)
	CreateSlot(ctx context.Context, dateTime time.Time) (*Slot, error)
	UpdateSlotTime(ctx context.Context, id uuid.UUID, dateTime time.Time) (*SlotDetail, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error

	// Booking. Both run as a single transaction: the appointment row and
	// the slot's is_booked flag change together or not at all.
	BookSlot(ctx context.Context, name, email string, slotID uuid.UUID) (*Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) error

	ListAppointmentsByEmail(ctx context.Context, email string) ([]AppointmentDetail, error)

	// Cleanup worker
	PurgePastUnbookedSlots(ctx context.Context, before time.Time) (int64, error)
}
