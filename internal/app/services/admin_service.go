package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/auth"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/app/repositories"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/email"
	"github.com/yigit/classhub/internal/pkg/metrics"
)

// AdminService defines the interface for administrator operations
type AdminService interface {
	ListUsers(ctx context.Context) (*dto.AdminUserListResponse, error)
	ApproveUser(ctx context.Context, actor auth.Actor, id string) (*dto.UserResponse, error)
	RevertUser(ctx context.Context, actor auth.Actor, id string) (*dto.UserResponse, error)
	RejectUser(ctx context.Context, actor auth.Actor, id string) error
	DeleteUser(ctx context.Context, actor auth.Actor, id string) error
	UpdateRole(ctx context.Context, actor auth.Actor, id string, role models.RoleType) (*dto.UserResponse, error)
	DeletePost(ctx context.Context, actor auth.Actor, id string) error
	ReconcileReactions(ctx context.Context, actor auth.Actor) (*dto.ReconcileResponse, error)
}

type adminServiceImpl struct {
	userRepo     repositories.IUserRepository
	postRepo     repositories.IPostRepository
	reactionRepo repositories.IReactionRepository
	emailService email.EmailService
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewAdminService creates a new admin service instance
func NewAdminService(
	userRepo repositories.IUserRepository,
	postRepo repositories.IPostRepository,
	reactionRepo repositories.IReactionRepository,
	emailService email.EmailService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) AdminService {
	return &adminServiceImpl{
		userRepo:     userRepo,
		postRepo:     postRepo,
		reactionRepo: reactionRepo,
		emailService: emailService,
		metrics:      m,
		logger:       logger,
	}
}

func (s *adminServiceImpl) ListUsers(ctx context.Context) (*dto.AdminUserListResponse, error) {
	users, err := s.userRepo.ListWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	resp := &dto.AdminUserListResponse{Users: make([]dto.AdminUserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, dto.AdminUserResponse{
			UserResponse:  dto.NewUserResponse(&u.User),
			PostsCount:    u.PostsCount,
			CommentsCount: u.CommentsCount,
		})
		if u.IsApproved {
			resp.Approved++
		} else {
			resp.Pending++
		}
	}
	resp.Total = len(users)
	return resp, nil
}

// ApproveUser activates a pending account and notifies the user by mail.
// A failed mail does not undo the approval.
func (s *adminServiceImpl) ApproveUser(ctx context.Context, actor auth.Actor, id string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return nil, apperrors.ErrAlreadyApproved
	}

	if err := s.userRepo.Approve(ctx, id); err != nil {
		return nil, err
	}
	user.IsApproved = true

	if err := s.emailService.SendApprovalEmail(user.Email, user.Name); err != nil {
		s.logger.Error().Err(err).Str("userID", id).Msg("Failed to send approval email")
	}

	s.logger.Info().Str("userID", id).Str("adminID", actor.UserID).Msg("User approved")
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// RevertUser puts an approved student back into the pending list. The
// user can no longer log in or refresh until approved again.
func (s *adminServiceImpl) RevertUser(ctx context.Context, actor auth.Actor, id string) (*dto.UserResponse, error) {
	if id == actor.UserID {
		return nil, apperrors.NewBadRequestError("admins cannot revert their own account")
	}
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.RoleType != models.RoleStudent {
		return nil, apperrors.NewBadRequestError("only students can be reverted to pending")
	}
	if !user.IsApproved {
		return nil, apperrors.ErrAlreadyPending
	}

	if err := s.userRepo.RevertToPending(ctx, id); err != nil {
		return nil, err
	}
	user.IsApproved = false

	s.logger.Info().Str("userID", id).Str("adminID", actor.UserID).Msg("User reverted to pending")
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// RejectUser deletes an account that is still pending. Approved users and
// admins are reported as not found.
func (s *adminServiceImpl) RejectUser(ctx context.Context, actor auth.Actor, id string) error {
	if err := s.userRepo.DeletePending(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("userID", id).Str("adminID", actor.UserID).Msg("Pending user rejected")
	return nil
}

// DeleteUser removes a user and everything they own
func (s *adminServiceImpl) DeleteUser(ctx context.Context, actor auth.Actor, id string) error {
	if id == actor.UserID {
		return apperrors.NewBadRequestError("admins cannot delete their own account")
	}
	if err := s.userRepo.DeleteCascade(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("userID", id).Str("adminID", actor.UserID).Msg("User deleted")
	return nil
}

// UpdateRole changes a user's role. Admins cannot demote themselves, which
// keeps at least the acting admin able to reach this endpoint.
func (s *adminServiceImpl) UpdateRole(ctx context.Context, actor auth.Actor, id string, role models.RoleType) (*dto.UserResponse, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("role", "role must be ADMIN or STUDENT")
	}
	if id == actor.UserID && role != models.RoleAdmin {
		return nil, apperrors.NewBadRequestError("admins cannot remove their own admin role")
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", id).Str("role", string(role)).Str("adminID", actor.UserID).Msg("User role changed")
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// DeletePost is the moderation delete, regardless of the author
func (s *adminServiceImpl) DeletePost(ctx context.Context, actor auth.Actor, id string) error {
	if err := s.postRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("postID", id).Str("adminID", actor.UserID).Msg("Post removed by admin")
	return nil
}

// ReconcileReactions recomputes every post's counters from the reaction ledger
func (s *adminServiceImpl) ReconcileReactions(ctx context.Context, actor auth.Actor) (*dto.ReconcileResponse, error) {
	fixes, err := s.reactionRepo.ReconcileCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile counters: %w", err)
	}
	if fixes == nil {
		fixes = []models.CounterFix{}
	}

	s.metrics.CountersFixed.Add(float64(len(fixes)))
	s.logger.Info().Int("fixed", len(fixes)).Str("adminID", actor.UserID).Msg("Reaction counters reconciled")
	return &dto.ReconcileResponse{FixedCount: len(fixes), Fixes: fixes}, nil
}
