package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mediqo/booking-api/internal/repository"
)

const resetKeyPrefix = "reset_token:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a TokenStore backed by the given redis URL.
func NewRedisStore(url string) (repository.TokenStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Duration) error {
	key := resetKeyPrefix + token
	if err := s.client.Set(ctx, key, userID.String(), expiry).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (s *redisStore) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	key := resetKeyPrefix + token

	val, err := s.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return uuid.Nil, repository.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt reset token payload: %w", err)
	}
	return userID, nil
}

// Generate returns a random token suitable for reset links.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
