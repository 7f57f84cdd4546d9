package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

// paymentConstraint is the partial unique index allowing at most one
// completed payment per appointment.
const paymentConstraint = "uq_payments_completed_appointment"

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, appointment_id, card_holder, card_last4, card_fingerprint,
			amount, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.AppointmentID,
		payment.CardHolder,
		payment.CardLast4,
		payment.CardFingerprint,
		payment.Amount,
		payment.Status,
		payment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, paymentConstraint) {
			return repository.ErrDuplicatePayment
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, appointment_id, card_holder, card_last4, card_fingerprint,
			   amount, status, created_at
		FROM payments
		WHERE appointment_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment, query, appointmentID)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}
