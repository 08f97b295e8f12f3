package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/app/repositories"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/auth"
	"github.com/yigit/classhub/internal/pkg/metrics"
)

// ClassroomRef identifies the classroom new members join
type ClassroomRef struct {
	Grade   int
	ClassNo int
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo      repositories.IUserRepository
	tokenRepo     repositories.ITokenRepository
	classroomRepo repositories.IClassroomRepository
	jwtService    *auth.JWTService
	classroom     ClassroomRef
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	classroomRepo repositories.IClassroomRepository,
	jwtService *auth.JWTService,
	classroom ClassroomRef,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		classroomRepo: classroomRepo,
		jwtService:    jwtService,
		classroom:     classroom,
		metrics:       m,
		logger:        logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a pending account in the default classroom.
// No session is issued until an admin approves the account.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	classroom, err := s.classroomRepo.Ensure(ctx, s.classroom.Grade, s.classroom.ClassNo)
	if err != nil {
		return nil, fmt.Errorf("error resolving classroom: %w", err)
	}

	user := &models.User{
		Name:       name,
		Email:      email,
		Password:   hashedPassword,
		RoleType:   models.RoleStudent,
		IsApproved: false,
	}
	if err := s.userRepo.CreateWithClassroom(ctx, user, classroom.ID); err != nil {
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.metrics.Registrations.Inc()
	s.logger.Info().Str("userID", user.ID).Str("email", email).Msg("User registered, waiting for approval")

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Login authenticates an approved user and opens a session
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Debug().Str("userID", user.ID).Msg("Password mismatch")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsApproved {
		return nil, apperrors.ErrAccountNotApproved
	}

	return s.generateAuthResponse(ctx, user)
}

// RefreshToken rotates a refresh token: the old one is revoked and a new pair issued
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, _, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsApproved {
		return nil, apperrors.ErrAccountNotApproved
	}

	// a concurrent refresh with the same token loses here
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.generateAuthResponse(ctx, user)
}

// Logout revokes a refresh token. Unknown and already revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokenRepo.RevokeToken(ctx, refreshToken)
	if err != nil && !errors.Is(err, apperrors.ErrTokenRevoked) {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Me returns the profile of the session user
func (s *AuthService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// generateAuthResponse issues a token pair and stores its refresh half
func (s *AuthService) generateAuthResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             pair.ExpiresIn,
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: pair.RefreshExpiresIn,
		},
		User: dto.NewUserResponse(user),
	}, nil
}
