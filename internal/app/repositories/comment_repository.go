package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/db"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/helpers"
	"github.com/yigit/classhub/internal/pkg/logger"
)

// ICommentRepository defines comment persistence and the comment like ledger
type ICommentRepository interface {
	ListByPost(ctx context.Context, postID, viewerID string) ([]*models.CommentDetails, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	SoftDeleteWithReplies(ctx context.Context, id string) (int64, error)
	ToggleLike(ctx context.Context, userID, commentID string) (bool, int64, error)
}

// CommentRepository handles comment database operations
type CommentRepository struct {
	database *db.PostgresDB
	sb       squirrel.StatementBuilderType
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(database *db.PostgresDB) *CommentRepository {
	return &CommentRepository{database: database, sb: psql()}
}

// ListByPost returns the live comments of a post, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID, viewerID string) ([]*models.CommentDetails, error) {
	if !helpers.IsValidID(postID) {
		return []*models.CommentDetails{}, nil
	}

	query := r.sb.Select(
		"c.id", "c.post_id", "c.author_id", "c.parent_id", "c.content", "c.is_anonymous",
		"c.likes_count", "c.created_at", "c.updated_at", "u.name",
	).
		From("comments c").
		Join("users u ON u.id = c.author_id").
		Where(squirrel.Eq{"c.post_id": postID}).
		Where("c.deleted_at IS NULL").
		OrderBy("c.created_at ASC")
	if helpers.IsValidID(viewerID) {
		query = query.Column(squirrel.Expr(
			"EXISTS(SELECT 1 FROM comment_likes cl WHERE cl.comment_id = c.id AND cl.user_id = ?)", viewerID))
	} else {
		query = query.Column("FALSE")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list comments query: %w", err)
	}

	rows, err := r.database.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("postID", postID).Msg("Error listing comments")
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.CommentDetails{}
	for rows.Next() {
		c := &models.CommentDetails{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.IsAnonymous,
			&c.LikesCount, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName, &c.Liked); err != nil {
			return nil, fmt.Errorf("error scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}
	return comments, nil
}

// GetByID returns a live comment
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if !helpers.IsValidID(id) {
		return nil, apperrors.ErrCommentNotFound
	}

	sql, args, err := r.sb.Select(
		"id", "post_id", "author_id", "parent_id", "content", "is_anonymous",
		"likes_count", "created_at", "updated_at",
	).
		From("comments").
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comment query: %w", err)
	}

	c := &models.Comment{}
	err = r.database.Pool.QueryRow(ctx, sql, args...).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.IsAnonymous,
		&c.LikesCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		logger.Error().Err(err).Str("commentID", id).Msg("Error scanning comment row")
		return nil, fmt.Errorf("error getting comment: %w", err)
	}
	return c, nil
}

// Create inserts a comment and fills its generated fields
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	sql, args, err := r.sb.Insert("comments").
		Columns("post_id", "author_id", "parent_id", "content", "is_anonymous").
		Values(comment.PostID, comment.AuthorID, comment.ParentID, comment.Content, comment.IsAnonymous).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create comment query: %w", err)
	}

	if err := r.database.Pool.QueryRow(ctx, sql, args...).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("postID", comment.PostID).Msg("Error inserting comment")
		return fmt.Errorf("error creating comment: %w", err)
	}
	return nil
}

// SoftDeleteWithReplies hides a comment and its replies, returning how many rows changed
func (r *CommentRepository) SoftDeleteWithReplies(ctx context.Context, id string) (int64, error) {
	if !helpers.IsValidID(id) {
		return 0, nil
	}

	sql, args, err := r.sb.Update("comments").
		Set("deleted_at", squirrel.Expr("NOW()")).
		Where(squirrel.Or{squirrel.Eq{"id": id}, squirrel.Eq{"parent_id": id}}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete comment query: %w", err)
	}

	cmdTag, err := r.database.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("commentID", id).Msg("Error deleting comment")
		return 0, fmt.Errorf("error deleting comment: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// ToggleLike flips the user's like on a comment and returns the new state
func (r *CommentRepository) ToggleLike(ctx context.Context, userID, commentID string) (bool, int64, error) {
	if !helpers.IsValidID(commentID) {
		return false, 0, apperrors.ErrCommentNotFound
	}

	var (
		liked bool
		count int64
	)
	err := r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`SELECT likes_count FROM comments WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
			commentID,
		).Scan(&count); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrCommentNotFound
			}
			return fmt.Errorf("error locking comment: %w", err)
		}

		cmdTag, err := tx.Exec(ctx,
			`DELETE FROM comment_likes WHERE user_id = $1 AND comment_id = $2`, userID, commentID)
		if err != nil {
			return fmt.Errorf("error removing like: %w", err)
		}

		delta := int64(-1)
		if cmdTag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx,
				`INSERT INTO comment_likes (user_id, comment_id) VALUES ($1, $2)`, userID, commentID); err != nil {
				return fmt.Errorf("error adding like: %w", err)
			}
			delta = 1
			liked = true
		}

		return tx.QueryRow(ctx,
			`UPDATE comments SET likes_count = GREATEST(likes_count + $2, 0) WHERE id = $1 RETURNING likes_count`,
			commentID, delta,
		).Scan(&count)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrCommentNotFound) {
			logger.Error().Err(err).Str("commentID", commentID).Msg("Error toggling comment like")
		}
		return false, 0, err
	}
	return liked, count, nil
}
