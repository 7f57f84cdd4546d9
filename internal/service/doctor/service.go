package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"

	apperrors "github.com/mediqo/booking-api/pkg/errors"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

// Directory is the doctor lookup the service reads from, normally the
// read-through cache.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
}

type Service struct {
	doctors Directory
}

func NewService(doctors Directory) *Service {
	return &Service{doctors: doctors}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, apperrors.NewTransient("failed to look up doctor", err)
	}
	return doctor, nil
}

func (s *Service) Search(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	doctors, err := s.doctors.List(ctx, filters)
	if err != nil {
		return nil, apperrors.NewTransient("failed to search doctors", err)
	}
	return doctors, nil
}
