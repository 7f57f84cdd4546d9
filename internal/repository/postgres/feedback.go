package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediqo/booking-api/internal/model"
)

func (r *feedbackRepository) Create(ctx context.Context, feedback *model.Feedback) error {
	query := `
		INSERT INTO feedback (id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	feedback.ID = uuid.New()
	feedback.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		feedback.ID,
		feedback.UserID,
		feedback.Content,
		feedback.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Feedback, error) {
	query := `
		SELECT id, user_id, content, created_at
		FROM feedback
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var entries []*model.Feedback
	err := r.db.SelectContext(ctx, &entries, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return entries, nil
}
