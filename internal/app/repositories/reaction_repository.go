package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/db"
	"github.com/yigit/classhub/internal/domain/reaction"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/dberrors"
	"github.com/yigit/classhub/internal/pkg/helpers"
	"github.com/yigit/classhub/internal/pkg/logger"
)

// IReactionRepository defines the post reaction ledger
type IReactionRepository interface {
	SetReaction(ctx context.Context, userID, postID string, action reaction.Action) (reaction.State, error)
	GetUserDisposition(ctx context.Context, userID, postID string) (reaction.Disposition, error)
	ReconcileCounters(ctx context.Context) ([]models.CounterFix, error)
}

// ReactionRepository keeps post_reactions and the post counters in step
type ReactionRepository struct {
	database *db.PostgresDB
	sb       squirrel.StatementBuilderType
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(database *db.PostgresDB) *ReactionRepository {
	return &ReactionRepository{database: database, sb: psql()}
}

// SetReaction applies one like or dislike click. The post row is locked for
// the duration of the transaction so concurrent clicks on the same post are
// applied one after another.
func (r *ReactionRepository) SetReaction(ctx context.Context, userID, postID string, action reaction.Action) (reaction.State, error) {
	if userID == "" {
		return reaction.State{}, apperrors.NewBadRequestError("userId is required")
	}
	if !helpers.IsValidID(postID) {
		return reaction.State{}, apperrors.ErrPostNotFound
	}

	var result reaction.State
	err := r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var counts reaction.Counts
		err := tx.QueryRow(ctx,
			`SELECT likes_count, dislikes_count FROM posts WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
			postID,
		).Scan(&counts.Likes, &counts.Dislikes)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrPostNotFound
			}
			return fmt.Errorf("error locking post: %w", err)
		}

		current := reaction.Neutral
		var isLike bool
		err = tx.QueryRow(ctx,
			`SELECT is_like FROM post_reactions WHERE user_id = $1 AND post_id = $2`,
			userID, postID,
		).Scan(&isLike)
		switch {
		case err == nil:
			current = reaction.FromRecord(isLike)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("error reading reaction: %w", err)
		}

		next := reaction.Next(current, action)
		if err := r.writeRecord(ctx, tx, userID, postID, current, next); err != nil {
			return err
		}

		delta := reaction.Delta(current, next)
		err = tx.QueryRow(ctx,
			`UPDATE posts
			    SET likes_count = GREATEST(likes_count + $2, 0),
			        dislikes_count = GREATEST(dislikes_count + $3, 0)
			  WHERE id = $1
			RETURNING likes_count, dislikes_count`,
			postID, delta.Likes, delta.Dislikes,
		).Scan(&counts.Likes, &counts.Dislikes)
		if err != nil {
			return fmt.Errorf("error updating counters: %w", err)
		}

		result = reaction.State{Counts: counts, Disposition: next}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrResourceNotFound) && !errors.Is(err, apperrors.ErrBadRequest) {
			logger.Error().Err(err).Str("postID", postID).Str("userID", userID).Msg("Error applying reaction")
		}
		return reaction.State{}, err
	}
	return result, nil
}

func (r *ReactionRepository) writeRecord(ctx context.Context, tx pgx.Tx, userID, postID string, current, next reaction.Disposition) error {
	var (
		sql  string
		args []interface{}
		err  error
	)
	switch reaction.Operation(current, next) {
	case reaction.OpInsert:
		sql, args, err = r.sb.Insert("post_reactions").
			Columns("user_id", "post_id", "is_like").
			Values(userID, postID, next == reaction.Liked).
			ToSql()
	case reaction.OpDelete:
		sql, args, err = r.sb.Delete("post_reactions").
			Where(squirrel.Eq{"user_id": userID, "post_id": postID}).
			ToSql()
	case reaction.OpUpdate:
		sql, args, err = r.sb.Update("post_reactions").
			Set("is_like", next == reaction.Liked).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"user_id": userID, "post_id": postID}).
			ToSql()
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to build reaction query: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		switch {
		case dberrors.IsForeignKeyError(err):
			// the user was removed between session load and the click
			return apperrors.ErrUserNotFound
		case dberrors.IsInvalidInput(err):
			return apperrors.NewBadRequestError("userId is not a valid id")
		}
		return fmt.Errorf("error writing reaction: %w", err)
	}
	return nil
}

// GetUserDisposition returns the user's standing reaction to a post
func (r *ReactionRepository) GetUserDisposition(ctx context.Context, userID, postID string) (reaction.Disposition, error) {
	if !helpers.IsValidID(userID) || !helpers.IsValidID(postID) {
		return reaction.Neutral, nil
	}

	var isLike bool
	err := r.database.Pool.QueryRow(ctx,
		`SELECT is_like FROM post_reactions WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	).Scan(&isLike)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reaction.Neutral, nil
		}
		logger.Error().Err(err).Str("postID", postID).Msg("Error reading reaction")
		return reaction.Neutral, fmt.Errorf("error reading reaction: %w", err)
	}
	return reaction.FromRecord(isLike), nil
}

// ReconcileCounters recomputes every post's counters from the ledger.
// Each post is fixed in its own transaction under the same row lock that
// SetReaction takes, so reconciliation never races a click.
func (r *ReactionRepository) ReconcileCounters(ctx context.Context) ([]models.CounterFix, error) {
	rows, err := r.database.Pool.Query(ctx, `SELECT id FROM posts ORDER BY created_at`)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing posts for reconciliation")
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("error scanning post ids: %w", err)
	}

	fixes := []models.CounterFix{}
	for _, id := range ids {
		fix, changed, err := r.reconcilePost(ctx, id)
		if err != nil {
			return fixes, err
		}
		if changed {
			fixes = append(fixes, fix)
		}
	}

	logger.Info().Int("checked", len(ids)).Int("fixed", len(fixes)).Msg("Reaction counters reconciled")
	return fixes, nil
}

func (r *ReactionRepository) reconcilePost(ctx context.Context, postID string) (models.CounterFix, bool, error) {
	fix := models.CounterFix{PostID: postID}
	changed := false

	err := r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT title, likes_count, dislikes_count FROM posts WHERE id = $1 FOR UPDATE`,
			postID,
		).Scan(&fix.Title, &fix.LikesBefore, &fix.DislikesBefore)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// removed since the id list was read
				return nil
			}
			return fmt.Errorf("error locking post: %w", err)
		}

		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FILTER (WHERE is_like), COUNT(*) FILTER (WHERE NOT is_like)
			   FROM post_reactions WHERE post_id = $1`,
			postID,
		).Scan(&fix.LikesAfter, &fix.DislikesAfter)
		if err != nil {
			return fmt.Errorf("error counting reactions: %w", err)
		}

		if fix.LikesAfter == fix.LikesBefore && fix.DislikesAfter == fix.DislikesBefore {
			return nil
		}

		sql, args, err := r.sb.Update("posts").
			Set("likes_count", fix.LikesAfter).
			Set("dislikes_count", fix.DislikesAfter).
			Where(squirrel.Eq{"id": postID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build counter fix query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error fixing counters: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Str("postID", postID).Msg("Error reconciling post counters")
		return fix, false, err
	}
	return fix, changed, nil
}
