package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/auth"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/app/repositories"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/metrics"
)

// CommentService defines the interface for comment operations
type CommentService interface {
	ListComments(ctx context.Context, actor auth.Actor, postID string) ([]dto.CommentResponse, error)
	CreateComment(ctx context.Context, actor auth.Actor, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, actor auth.Actor, id string) error
	ToggleLike(ctx context.Context, actor auth.Actor, id string) (*dto.CommentLikeResponse, error)
}

type commentServiceImpl struct {
	commentRepo repositories.ICommentRepository
	postRepo    repositories.IPostRepository
	authz       *auth.AuthorizationService
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewCommentService creates a new comment service instance
func NewCommentService(
	commentRepo repositories.ICommentRepository,
	postRepo repositories.IPostRepository,
	authz *auth.AuthorizationService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) CommentService {
	return &commentServiceImpl{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		authz:       authz,
		metrics:     m,
		logger:      logger,
	}
}

func toCommentResponse(actor auth.Actor, c *models.CommentDetails) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          c.ID,
		PostID:      c.PostID,
		ParentID:    c.ParentID,
		Content:     c.Content,
		Author:      author(actor, c.AuthorID, c.AuthorName, c.IsAnonymous),
		IsAnonymous: c.IsAnonymous,
		IsMine:      actor.UserID != "" && actor.UserID == c.AuthorID,
		LikesCount:  c.LikesCount,
		Liked:       c.Liked,
		CreatedAt:   c.CreatedAt,
	}
}

// buildCommentTree groups replies under their top-level comment. Input is
// ordered oldest first and so is every reply list.
func buildCommentTree(actor auth.Actor, comments []*models.CommentDetails) []dto.CommentResponse {
	roots := make([]dto.CommentResponse, 0, len(comments))
	index := make(map[string]int, len(comments))

	for _, c := range comments {
		if c.ParentID == nil {
			index[c.ID] = len(roots)
			roots = append(roots, toCommentResponse(actor, c))
		}
	}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		i, ok := index[*c.ParentID]
		if !ok {
			continue
		}
		roots[i].Replies = append(roots[i].Replies, toCommentResponse(actor, c))
	}
	return roots
}

func (s *commentServiceImpl) ListComments(ctx context.Context, actor auth.Actor, postID string) ([]dto.CommentResponse, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, apperrors.NewValidationError("postId", "postId is required")
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return buildCommentTree(actor, comments), nil
}

// CreateComment adds a comment or a reply. A reply to a reply is attached to
// the top-level comment so nesting stays one level deep.
func (s *commentServiceImpl) CreateComment(ctx context.Context, actor auth.Actor, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content", "content cannot be empty")
	}

	if _, err := s.postRepo.GetByID(ctx, req.PostID); err != nil {
		return nil, err
	}

	var parentID *string
	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, apperrors.NewBadRequestError("parent comment not found")
			}
			return nil, err
		}
		if parent.PostID != req.PostID {
			return nil, apperrors.NewBadRequestError("parent comment belongs to another post")
		}
		root := parent.ID
		if parent.ParentID != nil {
			root = *parent.ParentID
		}
		parentID = &root
	}

	comment := &models.Comment{
		PostID:      req.PostID,
		AuthorID:    actor.UserID,
		ParentID:    parentID,
		Content:     content,
		IsAnonymous: req.IsAnonymous,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	resp := toCommentResponse(actor, &models.CommentDetails{Comment: *comment, AuthorName: actor.Name})
	return &resp, nil
}

// DeleteComment removes a comment and its replies. Deleting something that is
// already gone succeeds.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, actor auth.Actor, id string) error {
	if _, err := s.authz.ValidateCommentOwnership(ctx, actor, id); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Debug().Str("commentID", id).Msg("Comment already deleted")
			return nil
		}
		return err
	}

	n, err := s.commentRepo.SoftDeleteWithReplies(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info().Str("commentID", id).Int64("rows", n).Str("userID", actor.UserID).Msg("Comment deleted")
	return nil
}

func (s *commentServiceImpl) ToggleLike(ctx context.Context, actor auth.Actor, id string) (*dto.CommentLikeResponse, error) {
	liked, count, err := s.commentRepo.ToggleLike(ctx, actor.UserID, id)
	if err != nil {
		return nil, err
	}

	result := "unliked"
	if liked {
		result = "liked"
	}
	s.metrics.CommentLikes.WithLabelValues(result).Inc()

	return &dto.CommentLikeResponse{Success: true, Liked: liked, LikesCount: count}, nil
}
