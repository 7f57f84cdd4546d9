package feedback

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/mediqo/booking-api/pkg/errors"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

type Service struct {
	repo repository.FeedbackRepository
}

func NewService(repo repository.FeedbackRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req *model.SubmitFeedbackRequest) (*model.Feedback, error) {
	entry := &model.Feedback{
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, apperrors.NewTransient("failed to submit feedback", err)
	}
	return entry, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Feedback, error) {
	entries, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewTransient("failed to list feedback", err)
	}
	return entries, nil
}
