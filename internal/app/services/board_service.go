package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/repositories"
	"github.com/yigit/classhub/internal/pkg/apperrors"
)

// BoardService defines the interface for board operations
type BoardService interface {
	ListBoards(ctx context.Context) ([]*models.Board, error)
	CreateBoard(ctx context.Context, key, name string) (*models.Board, error)
}

type boardServiceImpl struct {
	boardRepo repositories.IBoardRepository
}

// NewBoardService creates a new board service instance
func NewBoardService(boardRepo repositories.IBoardRepository) BoardService {
	return &boardServiceImpl{boardRepo: boardRepo}
}

func (s *boardServiceImpl) ListBoards(ctx context.Context) ([]*models.Board, error) {
	boards, err := s.boardRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	if boards == nil {
		boards = []*models.Board{}
	}
	return boards, nil
}

// CreateBoard returns the existing board when the key is already taken
func (s *boardServiceImpl) CreateBoard(ctx context.Context, key, name string) (*models.Board, error) {
	key = models.NormalizeBoardKey(key)
	name = strings.TrimSpace(name)
	if key == "" {
		return nil, apperrors.NewValidationError("key", "key cannot be empty")
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}
	return s.boardRepo.Create(ctx, key, name)
}
