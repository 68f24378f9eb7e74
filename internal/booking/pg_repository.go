package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DateTime,
		&s.IsBooked,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.SlotID,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Interface methods

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, now time.Time) ([]SlotDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.date_time, s.is_booked, s.created_at, s.updated_at,
		       a.id, a.name, a.email, a.slot_id, a.created_at
		FROM appointment_slots s
		LEFT JOIN appointments a ON a.slot_id = s.id
		WHERE s.date_time >= $1
		ORDER BY s.date_time ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SlotDetail
	for rows.Next() {
		var d SlotDetail
		var (
			apptID    *uuid.UUID
			apptName  *string
			apptEmail *string
			apptSlot  *uuid.UUID
			apptAt    *time.Time
		)

		err := rows.Scan(
			&d.ID, &d.DateTime, &d.IsBooked, &d.CreatedAt, &d.UpdatedAt,
			&apptID, &apptName, &apptEmail, &apptSlot, &apptAt,
		)
		if err != nil {
			return nil, err
		}

		if apptID != nil {
			d.Booking = &Appointment{
				ID:        *apptID,
				Name:      *apptName,
				Email:     *apptEmail,
				SlotID:    *apptSlot,
				CreatedAt: *apptAt,
			}
		}

		result = append(result, d)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListAvailableSlots(ctx context.Context, now time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date_time, is_booked, created_at, updated_at
		FROM appointment_slots
		WHERE is_booked = false AND date_time >= $1
		ORDER BY date_time ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateSlot(ctx context.Context, dateTime time.Time) (*Slot, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointment_slots (id, date_time, is_booked, created_at, updated_at)
		VALUES ($1, $2, false, now(), now())
		RETURNING id, date_time, is_booked, created_at, updated_at
	`, id, dateTime)

	slot, err := scanSlot(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlot
		}
		return nil, err
	}

	return slot, nil
}

func (r *PgRepository) UpdateSlotTime(ctx context.Context, id uuid.UUID, dateTime time.Time) (*SlotDetail, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment_slots
		SET date_time = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, date_time, is_booked, created_at, updated_at
	`, id, dateTime)

	slot, err := scanSlot(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlot
		}
		return nil, err
	}

	detail := SlotDetail{Slot: *slot}

	// Rescheduling a booked slot keeps the booking attached.
	appt, err := r.getAppointmentForSlot(ctx, id)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return nil, err
	}
	detail.Booking = appt

	return &detail, nil
}

func (r *PgRepository) getAppointmentForSlot(ctx context.Context, slotID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, slot_id, created_at
		FROM appointments
		WHERE slot_id = $1
	`, slotID)
	return scanAppointment(row)
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var isBooked bool
	err = tx.QueryRow(ctx, `
		SELECT is_booked
		FROM appointment_slots
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&isBooked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSlotNotFound
		}
		return err
	}
	if isBooked {
		return ErrSlotBooked
	}

	if _, err := tx.Exec(ctx, `DELETE FROM appointment_slots WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// BookSlot flips the slot to booked and inserts the appointment in one
// transaction. The conditional UPDATE is the compare-and-swap: a second
// booking for the same slot finds is_booked already true and gets
// ErrSlotUnavailable, never a double booking.
func (r *PgRepository) BookSlot(ctx context.Context, name, email string, slotID uuid.UUID) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE appointment_slots
		SET is_booked = true,
		    updated_at = now()
		WHERE id = $1
		  AND is_booked = false
	`, slotID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSlotUnavailable
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, name, email, slot_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, name, email, slot_id, created_at
	`, id, name, email, slotID)

	appt, err := scanAppointment(row)
	if err != nil {
		// slot_id is unique; a concurrent writer lost the race
		if isUniqueViolation(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return appt, nil
}

// CancelAppointment deletes the appointment and clears the slot flag
// together; a failure of either leaves both untouched.
func (r *PgRepository) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var slotID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT slot_id
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE appointment_slots
		SET is_booked = false,
		    updated_at = now()
		WHERE id = $1
	`, slotID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ListAppointmentsByEmail(ctx context.Context, email string) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.name, a.email, a.slot_id, a.created_at,
		       s.id, s.date_time, s.is_booked, s.created_at, s.updated_at
		FROM appointments a
		JOIN appointment_slots s ON s.id = a.slot_id
		WHERE a.email = $1
		ORDER BY s.date_time ASC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var d AppointmentDetail
		var s Slot

		err := rows.Scan(
			&d.ID, &d.Name, &d.Email, &d.SlotID, &d.CreatedAt,
			&s.ID, &s.DateTime, &s.IsBooked, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		d.Slot = &s
		result = append(result, d)
	}

	return result, rows.Err()
}

func (r *PgRepository) PurgePastUnbookedSlots(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointment_slots
		WHERE is_booked = false
		  AND date_time < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
