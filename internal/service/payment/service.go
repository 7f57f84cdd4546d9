package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/mediqo/booking-api/pkg/errors"
	"github.com/mediqo/booking-api/pkg/security"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

// DoctorDirectory resolves the consultation fee for an appointment.
type DoctorDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
}

type Service struct {
	payments     repository.PaymentRepository
	appointments repository.AppointmentRepository
	doctors      DoctorDirectory
	tokenizer    security.CardTokenizer
	logger       zerolog.Logger
}

func NewService(
	payments repository.PaymentRepository,
	appointments repository.AppointmentRepository,
	doctors DoctorDirectory,
	tokenizer security.CardTokenizer,
	logger zerolog.Logger,
) *Service {
	return &Service{
		payments:     payments,
		appointments: appointments,
		doctors:      doctors,
		tokenizer:    tokenizer,
		logger:       logger,
	}
}

// Process records a payment for the caller's appointment. The card
// number is reduced to a token before anything touches the store; the
// amount comes from the doctor's consultation fee.
func (s *Service) Process(ctx context.Context, userID uuid.UUID, req *model.ProcessPaymentRequest) (*model.Payment, error) {
	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid appointment ID", err)
	}

	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, apperrors.NewTransient("failed to load appointment", err)
	}
	if apt.UserID != userID {
		return nil, apperrors.NewForbidden("appointment belongs to another user", nil)
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.NewConflict("cancelled appointment cannot be paid", nil)
	}

	card, err := s.tokenizer.Tokenize(req.CardNumber)
	if err != nil {
		return nil, apperrors.NewValidation("invalid card number", err)
	}

	doctor, err := s.doctors.Get(ctx, apt.DoctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, apperrors.NewTransient("failed to look up doctor", err)
	}

	p := &model.Payment{
		AppointmentID:   appointmentID,
		CardHolder:      req.CardHolder,
		CardLast4:       card.Last4,
		CardFingerprint: card.Fingerprint,
		Amount:          doctor.ConsultationFee,
		Status:          model.PaymentStatusCompleted,
	}

	if err := s.payments.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			return nil, apperrors.NewConflict("appointment is already paid", err)
		}
		return nil, apperrors.NewTransient("failed to record payment", err)
	}

	s.logger.Info().
		Str("payment_id", p.ID.String()).
		Str("appointment_id", appointmentID.String()).
		Int64("amount", p.Amount).
		Msg("payment recorded")

	return p, nil
}

// GetForAppointment returns the payment attached to the caller's appointment.
func (s *Service) GetForAppointment(ctx context.Context, userID, appointmentID uuid.UUID) (*model.Payment, error) {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, apperrors.NewTransient("failed to load appointment", err)
	}
	if apt.UserID != userID {
		return nil, apperrors.NewForbidden("appointment belongs to another user", nil)
	}

	p, err := s.payments.GetByAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("payment", err)
		}
		return nil, apperrors.NewTransient("failed to load payment", err)
	}
	return p, nil
}
