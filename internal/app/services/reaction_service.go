package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/auth"
	"github.com/yigit/classhub/internal/app/repositories"
	"github.com/yigit/classhub/internal/domain/reaction"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/metrics"
)

// ReactionService defines the interface for post reactions
type ReactionService interface {
	React(ctx context.Context, actor auth.Actor, postID, userID string, isLike bool) (reaction.State, error)
}

type reactionServiceImpl struct {
	reactionRepo repositories.IReactionRepository
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewReactionService creates a new reaction service instance
func NewReactionService(reactionRepo repositories.IReactionRepository, m *metrics.Metrics, logger zerolog.Logger) ReactionService {
	return &reactionServiceImpl{reactionRepo: reactionRepo, metrics: m, logger: logger}
}

// React applies a like or dislike click for the session user. The userId sent
// by the client must name the session user; it is never trusted on its own.
func (s *reactionServiceImpl) React(ctx context.Context, actor auth.Actor, postID, userID string, isLike bool) (reaction.State, error) {
	if userID == "" {
		s.metrics.ReactionErrors.WithLabelValues("bad_request").Inc()
		return reaction.State{}, apperrors.NewValidationError("userId", "userId is required")
	}
	if userID != actor.UserID {
		s.metrics.ReactionErrors.WithLabelValues("forbidden").Inc()
		s.logger.Warn().Str("sessionUser", actor.UserID).Str("claimedUser", userID).Msg("Reaction for another user rejected")
		return reaction.State{}, apperrors.NewForbiddenError("you can only react as yourself")
	}

	action := reaction.ActionFromBool(isLike)
	state, err := s.reactionRepo.SetReaction(ctx, actor.UserID, postID, action)
	if err != nil {
		reason := "internal"
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			reason = "not_found"
		}
		s.metrics.ReactionErrors.WithLabelValues(reason).Inc()
		return reaction.State{}, err
	}

	s.metrics.Reactions.WithLabelValues(action.String(), state.Disposition.String()).Inc()
	s.logger.Debug().
		Str("postID", postID).
		Str("userID", actor.UserID).
		Str("action", action.String()).
		Str("result", state.Disposition.String()).
		Int64("likes", state.Likes).
		Int64("dislikes", state.Dislikes).
		Msg("Reaction applied")
	return state, nil
}
