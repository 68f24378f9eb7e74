package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotbook/booking-api/internal/auth"
	"github.com/slotbook/booking-api/internal/config"
	redisclient "github.com/slotbook/booking-api/internal/redis"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("admin role required")
	ErrSlotBeingBooked    = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
	}
}

// Authenticate checks the admin's credentials and issues a signed
// bearer token carrying {userId, role}.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	// Role gate comes before the password check, same answer either way.
	if user.Role != RoleAdmin {
		return "", ErrNotAdmin
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := auth.MakeToken(user.ID.String(), string(user.Role), s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// ListSlots returns all slots at or after now, each with its booking.
func (s *Service) ListSlots(ctx context.Context, now time.Time) ([]SlotDetail, error) {
	slots, err := s.repo.ListSlots(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// ListAvailableSlots returns unbooked slots at or after now.
func (s *Service) ListAvailableSlots(ctx context.Context, now time.Time) ([]Slot, error) {
	slots, err := s.repo.ListAvailableSlots(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slots, nil
}

func (s *Service) CreateSlot(ctx context.Context, dateTime time.Time) (*Slot, error) {
	slot, err := s.repo.CreateSlot(ctx, dateTime)
	if err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			return nil, err
		}
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

func (s *Service) UpdateSlot(ctx context.Context, id uuid.UUID, dateTime time.Time) (*SlotDetail, error) {
	slot, err := s.repo.UpdateSlotTime(ctx, id, dateTime)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrDuplicateSlot) {
			return nil, err
		}
		return nil, fmt.Errorf("update slot: %w", err)
	}
	return slot, nil
}

func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteSlot(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSlotBooked) {
			return err
		}
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// BookAppointment reserves a slot for a client. The per-slot lock keeps
// concurrent requests for one slot from contending on the row lock; the
// transactional compare-and-swap inside BookSlot is what rules out a
// double booking.
func (s *Service) BookAppointment(ctx context.Context, name, email string, slotID uuid.UUID) (*Appointment, error) {
	var created *Appointment

	err := s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		appt, err := s.repo.BookSlot(lockCtx, name, email, slotID)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotUnavailable) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	return created, nil
}

func (s *Service) ListAppointmentsByEmail(ctx context.Context, email string) ([]AppointmentDetail, error) {
	appointments, err := s.repo.ListAppointmentsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list appointments by email: %w", err)
	}
	return appointments, nil
}

func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	err := s.repo.CancelAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}
	return nil
}

// PurgePastSlots is called by the cleanup worker. Slots that were never
// booked and whose time has passed are not bookable and not history, so
// they are removed outright.
func (s *Service) PurgePastSlots(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.PurgePastUnbookedSlots(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purge past slots: %w", err)
	}
	return n, nil
}
