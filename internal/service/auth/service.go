package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediqo/booking-api/pkg/auth"
	apperrors "github.com/mediqo/booking-api/pkg/errors"
	"github.com/mediqo/booking-api/pkg/security"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
	"github.com/mediqo/booking-api/internal/service/notification"
	"github.com/mediqo/booking-api/internal/token"
)

const resetTokenExpiry = 1 * time.Hour

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	tokens   repository.TokenStore
	hasher   security.PasswordHasher
	notifSvc notification.Service
	logger   zerolog.Logger
}

func NewService(
	userRepo repository.UserRepository,
	jwtSvc auth.JWTService,
	tokens repository.TokenStore,
	hasher security.PasswordHasher,
	notifSvc notification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		tokens:   tokens,
		hasher:   hasher,
		notifSvc: notifSvc,
		logger:   logger,
	}
}

func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewValidation("invalid password", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already registered", err)
		}
		return nil, apperrors.NewTransient("failed to create user", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials", nil)
		}
		return nil, apperrors.NewTransient("failed to look up user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials", nil)
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	return &model.TokenResponse{AccessToken: accessToken, User: user}, nil
}

func (s *Service) ValidateToken(_ context.Context, tokenStr string) (*auth.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(tokenStr)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token", err)
	}
	return claims, nil
}

// ForgotPassword issues a one-hour reset token and mails it to the user.
// An unknown email is reported as success so the endpoint cannot be used
// to probe for accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Str("email", email).Msg("password reset for unknown email ignored")
			return nil
		}
		return apperrors.NewTransient("failed to look up user", err)
	}

	resetToken, err := token.Generate()
	if err != nil {
		return apperrors.NewInternal(err)
	}

	if err := s.tokens.StoreResetToken(ctx, user.ID, resetToken, resetTokenExpiry); err != nil {
		return apperrors.NewTransient("failed to store reset token", err)
	}

	if err := s.notifSvc.PasswordReset(user, resetToken); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to send reset email")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	userID, err := s.tokens.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("invalid or expired reset token", err)
		}
		return apperrors.NewTransient("failed to validate reset token", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return apperrors.NewValidation("invalid password", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", err)
		}
		return apperrors.NewTransient("failed to update password", err)
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("password reset")
	return nil
}
