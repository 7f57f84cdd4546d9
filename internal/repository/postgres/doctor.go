package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, name, specialty, location, rating, consultation_fee, created_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, id)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := `
		SELECT id, name, specialty, location, rating, consultation_fee, created_at
		FROM doctors
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.Specialty != "" {
		query += fmt.Sprintf(" AND specialty = $%d", argCount)
		args = append(args, filters.Specialty)
		argCount++
	}

	if filters.Location != "" {
		query += fmt.Sprintf(" AND location = $%d", argCount)
		args = append(args, filters.Location)
		argCount++
	}

	if filters.MinRating > 0 {
		query += fmt.Sprintf(" AND rating >= $%d", argCount)
		args = append(args, filters.MinRating)
		argCount++
	}

	query += " ORDER BY rating DESC, name ASC"

	var doctors []*model.Doctor
	err := r.db.SelectContext(ctx, &doctors, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
