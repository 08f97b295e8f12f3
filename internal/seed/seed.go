// Package seed creates the rows the application expects to exist
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/auth"
)

// DefaultBoards are created on every start when missing
var DefaultBoards = []struct{ Key, Name string }{
	{appModels.BoardFree, "자유게시판"},
	{appModels.BoardEvaluation, "수행/지필평가"},
	{appModels.BoardSuggestion, "건의사항"},
	{appModels.BoardMemories, "추억"},
}

// BoardCreator creates boards idempotently
type BoardCreator interface {
	Create(ctx context.Context, key, name string) (*appModels.Board, error)
}

// ClassroomEnsurer returns a classroom, creating it when missing
type ClassroomEnsurer interface {
	Ensure(ctx context.Context, grade, classNo int) (*appModels.Classroom, error)
}

// AdminCreator is the part of the user repository needed for the bootstrap admin
type AdminCreator interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateWithClassroom(ctx context.Context, user *appModels.User, classroomID string) error
}

// Options selects the default classroom and the optional bootstrap admin
type Options struct {
	Grade         int
	ClassNo       int
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// CreateDefaultData creates the default boards, the classroom and the
// bootstrap admin. It keeps going after a failure and returns every error.
func CreateDefaultData(ctx context.Context, boards BoardCreator, classrooms ClassroomEnsurer, users AdminCreator, opts Options, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (boards, classroom, admin)...")
	var finalErr error

	for _, b := range DefaultBoards {
		if _, err := boards.Create(ctx, b.Key, b.Name); err != nil {
			lgr.Error().Err(err).Str("board", b.Key).Msg("Error creating board")
			finalErr = errors.Join(finalErr, err)
		}
	}

	classroom, err := classrooms.Ensure(ctx, opts.Grade, opts.ClassNo)
	if err != nil {
		lgr.Error().Err(err).Int("grade", opts.Grade).Int("classNo", opts.ClassNo).Msg("Error creating classroom")
		// the admin needs a classroom
		return errors.Join(finalErr, err)
	}

	if opts.AdminEmail == "" {
		lgr.Info().Msg("No bootstrap admin configured, skipping")
		return finalErr
	}

	if err := createAdmin(ctx, users, classroom.ID, opts, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func createAdmin(ctx context.Context, users AdminCreator, classroomID string, opts Options, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}

	hashed, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	name := opts.AdminName
	if name == "" {
		name = "Administrator"
	}
	admin := &appModels.User{
		Name:       name,
		Email:      email,
		Password:   hashed,
		RoleType:   appModels.RoleAdmin,
		IsApproved: true,
	}
	if err := users.CreateWithClassroom(ctx, admin, classroomID); err != nil {
		// another instance won the race
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Str("adminID", admin.ID).Msg("Default admin user created successfully")
	return nil
}
