package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mediqo/booking-api/internal/model"
)

// Sentinel errors the postgres layer maps database failures onto, so
// services never inspect driver errors directly.
var (
	ErrNotFound         = errors.New("not found")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrStaleStatus      = errors.New("appointment status changed concurrently")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrDuplicatePayment = errors.New("appointment already paid")
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		// Create inserts the appointment. The slot claim is revalidated
		// at write time; a lost race returns ErrSlotTaken.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// BookedSlots returns the slot labels of all non-cancelled
		// appointments for the doctor on the given day.
		BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
		// Reschedule cancels the old appointment and inserts the
		// replacement in one transaction; a taken slot returns
		// ErrSlotTaken and leaves the original untouched.
		Reschedule(ctx context.Context, oldID uuid.UUID, replacement *model.Appointment) error
	}

	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error)
	}

	FeedbackRepository interface {
		Create(ctx context.Context, feedback *model.Feedback) error
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Feedback, error)
	}

	// TokenStore holds short-lived password reset tokens.
	TokenStore interface {
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Duration) error
		// ConsumeResetToken validates and invalidates the token in one step.
		ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
	}
)
