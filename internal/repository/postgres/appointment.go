package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

// slotConstraint is the partial unique index on (doctor_id,
// appointment_date, slot_time) WHERE status <> 'cancelled'. It is the
// serialized check that closes the race between slot listing and booking.
const slotConstraint = "uq_appointments_active_slot"

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, user_id, doctor_id, appointment_date, slot_time,
			notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.UserID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Slot,
		appointment.Notes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, slotConstraint) {
			return repository.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, user_id, doctor_id, appointment_date, slot_time,
			   notes, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

// UpdateStatus is a compare-and-set on the status column, so two
// concurrent transitions cannot both succeed.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStaleStatus
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, user_id, doctor_id, appointment_date, slot_time,
			   notes, status, created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filters.UserID)
		argCount++
	}

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY appointment_date ASC, slot_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	query := `
		SELECT slot_time
		FROM appointments
		WHERE doctor_id = $1
		AND appointment_date = $2
		AND status <> 'cancelled'
	`
	var slots []string
	err := r.db.SelectContext(ctx, &slots, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked slots: %w", err)
	}
	return slots, nil
}

func (r *appointmentRepository) Reschedule(ctx context.Context, oldID uuid.UUID, replacement *model.Appointment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	release := `
		UPDATE appointments
		SET status = 'cancelled', updated_at = $1
		WHERE id = $2 AND status IN ('pending', 'confirmed')
	`
	result, err := tx.ExecContext(ctx, release, time.Now(), oldID)
	if err != nil {
		return fmt.Errorf("failed to release old slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStaleStatus
	}

	insert := `
		INSERT INTO appointments (
			id, user_id, doctor_id, appointment_date, slot_time,
			notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	replacement.ID = uuid.New()
	replacement.CreatedAt = time.Now()
	replacement.UpdatedAt = replacement.CreatedAt

	_, err = tx.ExecContext(ctx, insert,
		replacement.ID,
		replacement.UserID,
		replacement.DoctorID,
		replacement.Date,
		replacement.Slot,
		replacement.Notes,
		replacement.Status,
		replacement.CreatedAt,
		replacement.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, slotConstraint) {
			return repository.ErrSlotTaken
		}
		return fmt.Errorf("failed to insert rescheduled appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reschedule: %w", err)
	}
	return nil
}
