package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/yigit/classhub/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository      *UserRepository
	TokenRepository     *TokenRepository
	ClassroomRepository *ClassroomRepository
	BoardRepository     *BoardRepository
	PostRepository      *PostRepository
	ReactionRepository  *ReactionRepository
	CommentRepository   *CommentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:      NewUserRepository(database),
		TokenRepository:     NewTokenRepository(database.Pool),
		ClassroomRepository: NewClassroomRepository(database.Pool),
		BoardRepository:     NewBoardRepository(database.Pool),
		PostRepository:      NewPostRepository(database.Pool),
		ReactionRepository:  NewReactionRepository(database),
		CommentRepository:   NewCommentRepository(database),
	}
}

// psql is the statement builder shared by all repositories
func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
