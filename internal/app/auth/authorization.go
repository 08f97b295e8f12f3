package auth

import (
	"context"
	"fmt"

	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/logger"
)

// Actor is the authenticated caller as loaded from the database
type Actor struct {
	UserID string
	Name   string
	Role   models.RoleType
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanModify reports whether the actor may edit or delete something owned by ownerID
func (a Actor) CanModify(ownerID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == ownerID)
}

// PostReader is the subset of the post repository needed for ownership checks
type PostReader interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
}

// CommentReader is the subset of the comment repository needed for ownership checks
type CommentReader interface {
	GetByID(ctx context.Context, id string) (*models.Comment, error)
}

// AuthorizationService handles ownership checks on posts and comments
type AuthorizationService struct {
	posts    PostReader
	comments CommentReader
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(posts PostReader, comments CommentReader) *AuthorizationService {
	return &AuthorizationService{posts: posts, comments: comments}
}

// ValidatePostOwnership loads a post and verifies the actor may change it
func (s *AuthorizationService) ValidatePostOwnership(ctx context.Context, actor Actor, postID string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(post.AuthorID) {
		logger.Warn().Str("userID", actor.UserID).Str("postID", postID).Msg("Post modification denied")
		return nil, apperrors.NewForbiddenError("you can only modify your own posts")
	}
	return post, nil
}

// ValidateCommentOwnership loads a comment and verifies the actor may change it
func (s *AuthorizationService) ValidateCommentOwnership(ctx context.Context, actor Actor, commentID string) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(comment.AuthorID) {
		logger.Warn().Str("userID", actor.UserID).Str("commentID", commentID).Msg("Comment modification denied")
		return nil, fmt.Errorf("comment %s: %w", commentID, apperrors.NewForbiddenError("you can only delete your own comments"))
	}
	return comment, nil
}
