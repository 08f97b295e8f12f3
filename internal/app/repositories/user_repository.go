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
	"github.com/yigit/classhub/internal/pkg/dberrors"
	"github.com/yigit/classhub/internal/pkg/helpers"
	"github.com/yigit/classhub/internal/pkg/logger"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	CreateWithClassroom(ctx context.Context, user *models.User, classroomID string) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListWithStats(ctx context.Context) ([]*models.UserStats, error)
	Approve(ctx context.Context, id string) error
	RevertToPending(ctx context.Context, id string) error
	UpdateRole(ctx context.Context, id string, role models.RoleType) error
	DeletePending(ctx context.Context, id string) error
	DeleteCascade(ctx context.Context, id string) error
}

var userColumns = []string{"id", "name", "email", "password", "role_type", "is_approved", "created_at", "updated_at"}

// UserRepository handles user database operations
type UserRepository struct {
	database *db.PostgresDB
	sb       squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{database: database, sb: psql()}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.RoleType, &u.IsApproved, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateWithClassroom inserts a user and its classroom membership atomically
func (r *UserRepository) CreateWithClassroom(ctx context.Context, user *models.User, classroomID string) error {
	insertUser, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "role_type", "is_approved").
		Values(user.Name, user.Email, user.Password, user.RoleType, user.IsApproved).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	return r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertUser, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
				return apperrors.ErrEmailAlreadyExists
			}
			logger.Error().Err(err).Str("email", user.Email).Msg("Error inserting user")
			return fmt.Errorf("error creating user: %w", err)
		}

		join, joinArgs, err := r.sb.Insert("user_classrooms").
			Columns("user_id", "classroom_id").
			Values(user.ID, classroomID).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build classroom membership query: %w", err)
		}
		if _, err := tx.Exec(ctx, join, joinArgs...); err != nil {
			logger.Error().Err(err).Str("userID", user.ID).Msg("Error adding user to classroom")
			return fmt.Errorf("error adding user to classroom: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.database.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !helpers.IsValidID(id) {
		return nil, apperrors.ErrUserNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.database.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Error checking email existence")
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// ListWithStats returns every user, pending ones first, with post and comment totals
func (r *UserRepository) ListWithStats(ctx context.Context) ([]*models.UserStats, error) {
	sql, args, err := r.sb.Select(
		"u.id", "u.name", "u.email", "u.password", "u.role_type", "u.is_approved", "u.created_at", "u.updated_at",
		"(SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id AND p.deleted_at IS NULL)",
		"(SELECT COUNT(*) FROM comments c WHERE c.author_id = u.id AND c.deleted_at IS NULL)",
	).
		From("users u").
		OrderBy("u.is_approved ASC", "u.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.database.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing users")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var users []*models.UserStats
	for rows.Next() {
		s := &models.UserStats{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Password, &s.RoleType, &s.IsApproved,
			&s.CreatedAt, &s.UpdatedAt, &s.PostsCount, &s.CommentsCount); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *UserRepository) execUpdate(ctx context.Context, id string, set map[string]interface{}) error {
	if !helpers.IsValidID(id) {
		return apperrors.ErrUserNotFound
	}
	set["updated_at"] = squirrel.Expr("NOW()")

	sql, args, err := r.sb.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.database.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("userID", id).Msg("Error updating user")
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Approve marks a user as approved
func (r *UserRepository) Approve(ctx context.Context, id string) error {
	return r.execUpdate(ctx, id, map[string]interface{}{"is_approved": true})
}

// RevertToPending takes an approved student back to the pending state.
// Admins and users that are not approved are reported as not found.
func (r *UserRepository) RevertToPending(ctx context.Context, id string) error {
	if !helpers.IsValidID(id) {
		return apperrors.ErrUserNotFound
	}

	sql, args, err := r.sb.Update("users").
		Set("is_approved", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "is_approved": true, "role_type": models.RoleStudent}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revert user query: %w", err)
	}

	cmdTag, err := r.database.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("userID", id).Msg("Error reverting user to pending")
		return fmt.Errorf("error reverting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateRole changes the stored role
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.RoleType) error {
	return r.execUpdate(ctx, id, map[string]interface{}{"role_type": role})
}

// DeletePending removes a user that was never approved and is not an admin
func (r *UserRepository) DeletePending(ctx context.Context, id string) error {
	if !helpers.IsValidID(id) {
		return apperrors.ErrUserNotFound
	}

	sql, args, err := r.sb.Delete("users").
		Where(squirrel.Eq{"id": id, "is_approved": false}).
		Where(squirrel.NotEq{"role_type": models.RoleAdmin}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reject user query: %w", err)
	}

	cmdTag, err := r.database.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("userID", id).Msg("Error rejecting user")
		return fmt.Errorf("error rejecting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// DeleteCascade removes a user and everything they own in one transaction.
// Counters of posts and comments the user reacted to are decremented first so
// the denormalized counts keep matching the ledgers.
func (r *UserRepository) DeleteCascade(ctx context.Context, id string) error {
	if !helpers.IsValidID(id) {
		return apperrors.ErrUserNotFound
	}

	return r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		statements := []struct {
			name string
			sql  string
		}{
			{"release post likes", `UPDATE posts p SET likes_count = GREATEST(p.likes_count - 1, 0)
				FROM post_reactions r WHERE r.post_id = p.id AND r.user_id = $1 AND r.is_like`},
			{"release post dislikes", `UPDATE posts p SET dislikes_count = GREATEST(p.dislikes_count - 1, 0)
				FROM post_reactions r WHERE r.post_id = p.id AND r.user_id = $1 AND NOT r.is_like`},
			{"release comment likes", `UPDATE comments c SET likes_count = GREATEST(c.likes_count - 1, 0)
				FROM comment_likes l WHERE l.comment_id = c.id AND l.user_id = $1`},
		}
		for _, st := range statements {
			if _, err := tx.Exec(ctx, st.sql, id); err != nil {
				logger.Error().Err(err).Str("userID", id).Str("step", st.name).Msg("Error deleting user")
				return fmt.Errorf("%s: %w", st.name, err)
			}
		}

		// posts, comments, reactions, tokens and memberships go through ON DELETE CASCADE
		cmdTag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			logger.Error().Err(err).Str("userID", id).Msg("Error deleting user row")
			return fmt.Errorf("error deleting user: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
}
