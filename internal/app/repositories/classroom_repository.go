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

// IClassroomRepository defines classroom lookups
type IClassroomRepository interface {
	GetByGradeAndClassNo(ctx context.Context, grade, classNo int) (*models.Classroom, error)
	Ensure(ctx context.Context, grade, classNo int) (*models.Classroom, error)
}

// ClassroomRepository handles classroom database operations
type ClassroomRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewClassroomRepository creates a new ClassroomRepository
func NewClassroomRepository(db *pgxpool.Pool) *ClassroomRepository {
	return &ClassroomRepository{db: db, sb: psql()}
}

// GetByGradeAndClassNo finds a classroom
func (r *ClassroomRepository) GetByGradeAndClassNo(ctx context.Context, grade, classNo int) (*models.Classroom, error) {
	sql, args, err := r.sb.Select("id", "grade", "class_no", "created_at").
		From("classrooms").
		Where(squirrel.Eq{"grade": grade, "class_no": classNo}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get classroom query: %w", err)
	}

	c := &models.Classroom{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Grade, &c.ClassNo, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClassroomNotFound
		}
		logger.Error().Err(err).Int("grade", grade).Int("classNo", classNo).Msg("Error scanning classroom row")
		return nil, fmt.Errorf("error getting classroom: %w", err)
	}
	return c, nil
}

// Ensure returns the classroom, creating it first when missing
func (r *ClassroomRepository) Ensure(ctx context.Context, grade, classNo int) (*models.Classroom, error) {
	sql, args, err := r.sb.Insert("classrooms").
		Columns("grade", "class_no").
		Values(grade, classNo).
		Suffix("ON CONFLICT (grade, class_no) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ensure classroom query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error ensuring classroom")
		return nil, fmt.Errorf("error creating classroom: %w", err)
	}
	return r.GetByGradeAndClassNo(ctx, grade, classNo)
}
