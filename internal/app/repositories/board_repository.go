package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/logger"
)

// IBoardRepository defines board persistence
type IBoardRepository interface {
	List(ctx context.Context) ([]*models.Board, error)
	GetByKey(ctx context.Context, key string) (*models.Board, error)
	Create(ctx context.Context, key, name string) (*models.Board, error)
}

// BoardRepository handles board database operations
type BoardRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *pgxpool.Pool) *BoardRepository {
	return &BoardRepository{db: db, sb: psql()}
}

// List returns all boards ordered by creation
func (r *BoardRepository) List(ctx context.Context) ([]*models.Board, error) {
	sql, args, err := r.sb.Select("id", "key", "name", "created_at").
		From("boards").
		OrderBy("created_at ASC", "key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list boards query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing boards")
		return nil, fmt.Errorf("error listing boards: %w", err)
	}
	defer rows.Close()

	var boards []*models.Board
	for rows.Next() {
		b := &models.Board{}
		if err := rows.Scan(&b.ID, &b.Key, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning board row: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// GetByKey looks a board up by its normalized key
func (r *BoardRepository) GetByKey(ctx context.Context, key string) (*models.Board, error) {
	sql, args, err := r.sb.Select("id", "key", "name", "created_at").
		From("boards").
		Where(squirrel.Eq{"key": models.NormalizeBoardKey(key)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get board query: %w", err)
	}

	b := &models.Board{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.Key, &b.Name, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBoardNotFound
		}
		logger.Error().Err(err).Str("key", key).Msg("Error scanning board row")
		return nil, fmt.Errorf("error getting board: %w", err)
	}
	return b, nil
}

// Create inserts a board. An existing key is returned unchanged.
func (r *BoardRepository) Create(ctx context.Context, key, name string) (*models.Board, error) {
	key = models.NormalizeBoardKey(key)
	sql, args, err := r.sb.Insert("boards").
		Columns("key", "name").
		Values(key, name).
		Suffix("ON CONFLICT (key) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create board query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Error creating board")
		return nil, fmt.Errorf("error creating board: %w", err)
	}
	return r.GetByKey(ctx, key)
}
