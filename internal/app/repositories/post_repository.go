package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/domain/reaction"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/helpers"
	"github.com/yigit/classhub/internal/pkg/logger"
)

// IPostRepository defines post persistence
type IPostRepository interface {
	List(ctx context.Context, filter models.PostFilter) ([]*models.PostDetails, int64, error)
	GetDetails(ctx context.Context, id, viewerID string) (*models.PostDetails, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	IncrementViews(ctx context.Context, id string) error
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	SoftDelete(ctx context.Context, id string) error
}

// PostRepository handles post database operations
type PostRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db, sb: psql()}
}

var postDetailColumns = []string{
	"p.id", "p.board_id", "p.classroom_id", "p.author_id", "p.title", "p.content",
	"p.is_anonymous", "p.is_pinned", "p.views", "p.likes_count", "p.dislikes_count",
	"p.created_at", "p.updated_at",
	"b.key", "b.name", "u.name",
	"(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.deleted_at IS NULL)",
}

func (r *PostRepository) detailsQuery() squirrel.SelectBuilder {
	return r.sb.Select(postDetailColumns...).
		From("posts p").
		Join("boards b ON b.id = p.board_id").
		Join("users u ON u.id = p.author_id").
		Where("p.deleted_at IS NULL")
}

func scanPostDetails(row pgx.Row, extra ...any) (*models.PostDetails, error) {
	d := &models.PostDetails{}
	dest := []any{
		&d.ID, &d.BoardID, &d.ClassroomID, &d.AuthorID, &d.Title, &d.Content,
		&d.IsAnonymous, &d.IsPinned, &d.Views, &d.LikesCount, &d.DislikesCount,
		&d.CreatedAt, &d.UpdatedAt,
		&d.BoardKey, &d.BoardName, &d.AuthorName, &d.CommentsCount,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns one page of posts, pinned first then newest, plus the total count
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter) ([]*models.PostDetails, int64, error) {
	query := r.detailsQuery()
	countQuery := r.sb.Select("COUNT(*)").
		From("posts p").
		Join("boards b ON b.id = p.board_id").
		Where("p.deleted_at IS NULL")

	if filter.BoardKey != "" {
		key := models.NormalizeBoardKey(filter.BoardKey)
		query = query.Where(squirrel.Eq{"b.key": key})
		countQuery = countQuery.Where(squirrel.Eq{"b.key": key})
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count posts query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting posts")
		return nil, 0, fmt.Errorf("error counting posts: %w", err)
	}

	sql, args, err := query.
		OrderBy("p.is_pinned DESC", "p.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(filter.Offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list posts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing posts")
		return nil, 0, fmt.Errorf("error listing posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.PostDetails
	for rows.Next() {
		d, err := scanPostDetails(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning post row: %w", err)
		}
		posts = append(posts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating post rows: %w", err)
	}
	return posts, total, nil
}

// GetDetails returns a live post with the viewer's reaction filled in
func (r *PostRepository) GetDetails(ctx context.Context, id, viewerID string) (*models.PostDetails, error) {
	if !helpers.IsValidID(id) {
		return nil, apperrors.ErrPostNotFound
	}

	query := r.detailsQuery().Where(squirrel.Eq{"p.id": id})
	if helpers.IsValidID(viewerID) {
		query = query.Column(squirrel.Expr(
			"(SELECT pr.is_like FROM post_reactions pr WHERE pr.post_id = p.id AND pr.user_id = ?)", viewerID))
	} else {
		query = query.Column("NULL::boolean")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}

	var userLike *bool
	d, err := scanPostDetails(r.db.QueryRow(ctx, sql, args...), &userLike)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		logger.Error().Err(err).Str("postID", id).Msg("Error scanning post row")
		return nil, fmt.Errorf("error getting post: %w", err)
	}
	d.UserLike = reaction.FromBool(userLike)
	return d, nil
}

// GetByID returns the bare post row when it is not deleted
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if !helpers.IsValidID(id) {
		return nil, apperrors.ErrPostNotFound
	}

	sql, args, err := r.sb.Select(
		"id", "board_id", "classroom_id", "author_id", "title", "content",
		"is_anonymous", "is_pinned", "views", "likes_count", "dislikes_count",
		"created_at", "updated_at",
	).
		From("posts").
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}

	p := &models.Post{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&p.ID, &p.BoardID, &p.ClassroomID, &p.AuthorID, &p.Title, &p.Content,
		&p.IsAnonymous, &p.IsPinned, &p.Views, &p.LikesCount, &p.DislikesCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		logger.Error().Err(err).Str("postID", id).Msg("Error scanning post row")
		return nil, fmt.Errorf("error getting post: %w", err)
	}
	return p, nil
}

// IncrementViews bumps the view counter in a single statement
func (r *PostRepository) IncrementViews(ctx context.Context, id string) error {
	if !helpers.IsValidID(id) {
		return apperrors.ErrPostNotFound
	}

	sql, args, err := r.sb.Update("posts").
		Set("views", squirrel.Expr("views + 1")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build increment views query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("postID", id).Msg("Error incrementing views")
		return fmt.Errorf("error incrementing views: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// Create inserts a post and fills its generated fields
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	sql, args, err := r.sb.Insert("posts").
		Columns("board_id", "classroom_id", "author_id", "title", "content", "is_anonymous", "is_pinned").
		Values(post.BoardID, post.ClassroomID, post.AuthorID, post.Title, post.Content, post.IsAnonymous, post.IsPinned).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create post query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("authorID", post.AuthorID).Msg("Error inserting post")
		return fmt.Errorf("error creating post: %w", err)
	}
	return nil
}

// Update writes the editable fields of a post
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	sql, args, err := r.sb.Update("posts").
		Set("title", post.Title).
		Set("content", post.Content).
		Set("is_anonymous", post.IsAnonymous).
		Set("is_pinned", post.IsPinned).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": post.ID}).
		Where("deleted_at IS NULL").
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update post query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&post.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrPostNotFound
		}
		logger.Error().Err(err).Str("postID", post.ID).Msg("Error updating post")
		return fmt.Errorf("error updating post: %w", err)
	}
	return nil
}

// SoftDelete hides a post from every read path
func (r *PostRepository) SoftDelete(ctx context.Context, id string) error {
	if !helpers.IsValidID(id) {
		return apperrors.ErrPostNotFound
	}

	sql, args, err := r.sb.Update("posts").
		Set("deleted_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete post query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("postID", id).Msg("Error deleting post")
		return fmt.Errorf("error deleting post: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}
