package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slotbook/booking-api/internal/auth"
	"github.com/slotbook/booking-api/internal/config"
	redisclient "github.com/slotbook/booking-api/internal/redis"
)

// MockRepository is a mock implementation of Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) ListSlots(ctx context.Context, now time.Time) ([]SlotDetail, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SlotDetail), args.Error(1)
}

func (m *MockRepository) ListAvailableSlots(ctx context.Context, now time.Time) ([]Slot, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Slot), args.Error(1)
}

func (m *MockRepository) CreateSlot(ctx context.Context, dateTime time.Time) (*Slot, error) {
	args := m.Called(ctx, dateTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Slot), args.Error(1)
}

func (m *MockRepository) UpdateSlotTime(ctx context.Context, id uuid.UUID, dateTime time.Time) (*SlotDetail, error) {
	args := m.Called(ctx, id, dateTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SlotDetail), args.Error(1)
}

func (m *MockRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) BookSlot(ctx context.Context, name, email string, slotID uuid.UUID) (*Appointment, error) {
	args := m.Called(ctx, name, email, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockRepository) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListAppointmentsByEmail(ctx context.Context, email string) ([]AppointmentDetail, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AppointmentDetail), args.Error(1)
}

func (m *MockRepository) PurgePastUnbookedSlots(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// fakeLocker runs the critical section inline, or fails to acquire.
type fakeLocker struct {
	acquireErr error
}

func (l *fakeLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	if l.acquireErr != nil {
		return l.acquireErr
	}
	return fn(ctx)
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret: "test-secret",
		TokenTTL:  24 * time.Hour,
	}
}

func newTestService(repo Repository, locker redisclient.Locker) *Service {
	return NewService(repo, locker, testConfig())
}

func adminUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         RoleAdmin,
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue a token with role", func(t *testing.T) {
		repo := new(MockRepository)
		user := adminUser(t, "admin123")
		repo.On("GetUserByEmail", ctx, "admin@example.com").Return(user, nil)

		svc := newTestService(repo, &fakeLocker{})
		token, err := svc.Authenticate(ctx, "admin@example.com", "admin123")
		require.NoError(t, err)

		claims, err := auth.ParseToken(token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, string(RoleAdmin), claims.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, ErrUserNotFound)

		svc := newTestService(repo, &fakeLocker{})
		_, err := svc.Authenticate(ctx, "nobody@example.com", "admin123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetUserByEmail", ctx, "admin@example.com").Return(adminUser(t, "admin123"), nil)

		svc := newTestService(repo, &fakeLocker{})
		_, err := svc.Authenticate(ctx, "admin@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("non-admin role is rejected even with the right password", func(t *testing.T) {
		repo := new(MockRepository)
		user := adminUser(t, "admin123")
		user.Role = Role("CLIENT")
		repo.On("GetUserByEmail", ctx, "user@example.com").Return(user, nil)

		svc := newTestService(repo, &fakeLocker{})
		_, err := svc.Authenticate(ctx, "user@example.com", "admin123")
		assert.ErrorIs(t, err, ErrNotAdmin)
	})
}

func TestBookAppointment(t *testing.T) {
	ctx := context.Background()
	slotID := uuid.New()

	t.Run("books an available slot", func(t *testing.T) {
		repo := new(MockRepository)
		appt := &Appointment{ID: uuid.New(), Name: "Ana", Email: "ana@x.com", SlotID: slotID}
		repo.On("BookSlot", mock.Anything, "Ana", "ana@x.com", slotID).Return(appt, nil)

		svc := newTestService(repo, &fakeLocker{})
		got, err := svc.BookAppointment(ctx, "Ana", "ana@x.com", slotID)
		require.NoError(t, err)
		assert.Equal(t, appt, got)
		repo.AssertExpectations(t)
	})

	t.Run("booked or missing slot surfaces ErrSlotUnavailable", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("BookSlot", mock.Anything, "Ana", "ana@x.com", slotID).Return(nil, ErrSlotUnavailable)

		svc := newTestService(repo, &fakeLocker{})
		_, err := svc.BookAppointment(ctx, "Ana", "ana@x.com", slotID)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("contended lock surfaces ErrSlotBeingBooked", func(t *testing.T) {
		repo := new(MockRepository)

		svc := newTestService(repo, &fakeLocker{acquireErr: redisclient.ErrLockNotAcquired})
		_, err := svc.BookAppointment(ctx, "Ana", "ana@x.com", slotID)
		assert.ErrorIs(t, err, ErrSlotBeingBooked)
		repo.AssertNotCalled(t, "BookSlot")
	})
}

func TestCreateSlot(t *testing.T) {
	ctx := context.Background()
	dt := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)

	t.Run("creates an unbooked slot", func(t *testing.T) {
		repo := new(MockRepository)
		slot := &Slot{ID: uuid.New(), DateTime: dt, IsBooked: false}
		repo.On("CreateSlot", ctx, dt).Return(slot, nil)

		svc := newTestService(repo, &fakeLocker{})
		got, err := svc.CreateSlot(ctx, dt)
		require.NoError(t, err)
		assert.False(t, got.IsBooked)
		assert.Equal(t, dt, got.DateTime)
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateSlot", ctx, dt).Return(nil, ErrDuplicateSlot)

		svc := newTestService(repo, &fakeLocker{})
		_, err := svc.CreateSlot(ctx, dt)
		assert.ErrorIs(t, err, ErrDuplicateSlot)
	})
}

func TestUpdateSlot(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	dt := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	t.Run("missing slot", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("UpdateSlotTime", ctx, id, dt).Return(nil, ErrSlotNotFound)

		svc := newTestService(repo, &fakeLocker{})
		_, err := svc.UpdateSlot(ctx, id, dt)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("colliding timestamp", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("UpdateSlotTime", ctx, id, dt).Return(nil, ErrDuplicateSlot)

		svc := newTestService(repo, &fakeLocker{})
		_, err := svc.UpdateSlot(ctx, id, dt)
		assert.ErrorIs(t, err, ErrDuplicateSlot)
	})

	t.Run("booked slot keeps its booking on reschedule", func(t *testing.T) {
		repo := new(MockRepository)
		detail := &SlotDetail{
			Slot:    Slot{ID: id, DateTime: dt, IsBooked: true},
			Booking: &Appointment{ID: uuid.New(), SlotID: id},
		}
		repo.On("UpdateSlotTime", ctx, id, dt).Return(detail, nil)

		svc := newTestService(repo, &fakeLocker{})
		got, err := svc.UpdateSlot(ctx, id, dt)
		require.NoError(t, err)
		assert.True(t, got.IsBooked)
		require.NotNil(t, got.Booking)
		assert.Equal(t, id, got.Booking.SlotID)
	})
}

func TestDeleteSlot(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("booked slot cannot be deleted", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("DeleteSlot", ctx, id).Return(ErrSlotBooked)

		svc := newTestService(repo, &fakeLocker{})
		assert.ErrorIs(t, svc.DeleteSlot(ctx, id), ErrSlotBooked)
	})

	t.Run("missing slot", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("DeleteSlot", ctx, id).Return(ErrSlotNotFound)

		svc := newTestService(repo, &fakeLocker{})
		assert.ErrorIs(t, svc.DeleteSlot(ctx, id), ErrSlotNotFound)
	})
}

func TestCancelAppointment(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("cancel frees the slot", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CancelAppointment", ctx, id).Return(nil)

		svc := newTestService(repo, &fakeLocker{})
		require.NoError(t, svc.CancelAppointment(ctx, id))
		repo.AssertExpectations(t)
	})

	t.Run("missing appointment", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CancelAppointment", ctx, id).Return(ErrAppointmentNotFound)

		svc := newTestService(repo, &fakeLocker{})
		assert.ErrorIs(t, svc.CancelAppointment(ctx, id), ErrAppointmentNotFound)
	})
}

func TestListAppointmentsByEmail(t *testing.T) {
	ctx := context.Background()

	repo := new(MockRepository)
	details := []AppointmentDetail{
		{
			Appointment: Appointment{ID: uuid.New(), Name: "Ana", Email: "ana@x.com"},
			Slot:        &Slot{ID: uuid.New(), DateTime: time.Now().Add(time.Hour), IsBooked: true},
		},
	}
	repo.On("ListAppointmentsByEmail", ctx, "ana@x.com").Return(details, nil)

	svc := newTestService(repo, &fakeLocker{})
	got, err := svc.ListAppointmentsByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ana@x.com", got[0].Email)
	require.NotNil(t, got[0].Slot)
}

func TestPurgePastSlots(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	repo := new(MockRepository)
	repo.On("PurgePastUnbookedSlots", ctx, now).Return(int64(3), nil)

	svc := newTestService(repo, &fakeLocker{})
	n, err := svc.PurgePastSlots(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
