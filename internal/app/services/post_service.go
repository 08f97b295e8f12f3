package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/auth"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/app/repositories"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/helpers"
)

// PostService defines the interface for post operations
type PostService interface {
	ListPosts(ctx context.Context, actor auth.Actor, boardKey string, page, size int) (*dto.PostListResponse, error)
	GetPost(ctx context.Context, actor auth.Actor, id string) (*dto.PostResponse, error)
	CreatePost(ctx context.Context, actor auth.Actor, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	UpdatePost(ctx context.Context, actor auth.Actor, id string, req *dto.UpdatePostRequest) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, actor auth.Actor, id string) error
}

type postServiceImpl struct {
	postRepo      repositories.IPostRepository
	boardRepo     repositories.IBoardRepository
	classroomRepo repositories.IClassroomRepository
	authzService  *auth.AuthorizationService
	classroom     ClassroomRef
	logger        zerolog.Logger
}

// NewPostService creates a new post service instance
func NewPostService(
	postRepo repositories.IPostRepository,
	boardRepo repositories.IBoardRepository,
	classroomRepo repositories.IClassroomRepository,
	authzService *auth.AuthorizationService,
	classroom ClassroomRef,
	logger zerolog.Logger,
) PostService {
	return &postServiceImpl{
		postRepo:      postRepo,
		boardRepo:     boardRepo,
		classroomRepo: classroomRepo,
		authzService:  authzService,
		classroom:     classroom,
		logger:        logger,
	}
}

// author hides identity of anonymous content from everyone but its author and admins
func author(actor auth.Actor, authorID, authorName string, anonymous bool) dto.AuthorResponse {
	if anonymous && !actor.CanModify(authorID) {
		return dto.AuthorResponse{Name: dto.AnonymousName}
	}
	return dto.AuthorResponse{ID: authorID, Name: authorName}
}

func toPostResponse(actor auth.Actor, d *models.PostDetails) dto.PostResponse {
	return dto.PostResponse{
		ID:            d.ID,
		BoardKey:      d.BoardKey,
		BoardName:     d.BoardName,
		Title:         d.Title,
		Content:       d.Content,
		Author:        author(actor, d.AuthorID, d.AuthorName, d.IsAnonymous),
		IsAnonymous:   d.IsAnonymous,
		IsPinned:      d.IsPinned,
		IsMine:        actor.UserID != "" && actor.UserID == d.AuthorID,
		Views:         d.Views,
		Likes:         d.LikesCount,
		Dislikes:      d.DislikesCount,
		UserLike:      d.UserLike,
		CommentsCount: d.CommentsCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (s *postServiceImpl) ListPosts(ctx context.Context, actor auth.Actor, boardKey string, page, size int) (*dto.PostListResponse, error) {
	if boardKey != "" {
		if _, err := s.boardRepo.GetByKey(ctx, boardKey); err != nil {
			return nil, err
		}
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	posts, total, err := s.postRepo.List(ctx, models.PostFilter{BoardKey: boardKey, Offset: offset, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	resp := &dto.PostListResponse{
		Posts:      make([]dto.PostResponse, 0, len(posts)),
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, toPostResponse(actor, p))
	}
	return resp, nil
}

// GetPost counts a view and returns the post with the viewer's reaction
func (s *postServiceImpl) GetPost(ctx context.Context, actor auth.Actor, id string) (*dto.PostResponse, error) {
	if err := s.postRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}

	d, err := s.postRepo.GetDetails(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(actor, d)
	return &resp, nil
}

func (s *postServiceImpl) CreatePost(ctx context.Context, actor auth.Actor, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		return nil, apperrors.NewValidationError("title", "title cannot be empty")
	}
	if content == "" {
		return nil, apperrors.NewValidationError("content", "content cannot be empty")
	}
	if req.IsPinned && !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can pin posts")
	}

	board, err := s.boardRepo.GetByKey(ctx, req.BoardKey)
	if err != nil {
		return nil, err
	}

	classroom, err := s.classroomRepo.GetByGradeAndClassNo(ctx, s.classroom.Grade, s.classroom.ClassNo)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve classroom: %w", err)
	}

	post := &models.Post{
		BoardID:     board.ID,
		ClassroomID: classroom.ID,
		AuthorID:    actor.UserID,
		Title:       title,
		Content:     content,
		IsAnonymous: req.IsAnonymous,
		IsPinned:    req.IsPinned,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info().Str("postID", post.ID).Str("board", board.Key).Str("userID", actor.UserID).Msg("Post created")

	resp := toPostResponse(actor, &models.PostDetails{
		Post:       *post,
		BoardKey:   board.Key,
		BoardName:  board.Name,
		AuthorName: actor.Name,
	})
	return &resp, nil
}

func (s *postServiceImpl) UpdatePost(ctx context.Context, actor auth.Actor, id string, req *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	post, err := s.authzService.ValidatePostOwnership(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		return nil, apperrors.NewValidationError("title", "title cannot be empty")
	}
	if content == "" {
		return nil, apperrors.NewValidationError("content", "content cannot be empty")
	}

	post.Title = title
	post.Content = content
	if req.IsAnonymous != nil {
		post.IsAnonymous = *req.IsAnonymous
	}
	if req.IsPinned != nil && *req.IsPinned != post.IsPinned {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbiddenError("only admins can pin posts")
		}
		post.IsPinned = *req.IsPinned
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	d, err := s.postRepo.GetDetails(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(actor, d)
	return &resp, nil
}

func (s *postServiceImpl) DeletePost(ctx context.Context, actor auth.Actor, id string) error {
	if _, err := s.authzService.ValidatePostOwnership(ctx, actor, id); err != nil {
		return err
	}
	if err := s.postRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("postID", id).Str("userID", actor.UserID).Msg("Post deleted")
	return nil
}
