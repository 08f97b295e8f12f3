package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/classhub/internal/app/auth"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/pkg/auth"
	"github.com/yigit/classhub/internal/pkg/metrics"
)

var testClassroom = ClassroomRef{Grade: 1, ClassNo: 8}

// env wires every service over one memDB
type env struct {
	db       *memDB
	metrics  *metrics.Metrics
	mailer   *fakeMailer
	auth     *AuthService
	boards   BoardService
	posts    PostService
	react    ReactionService
	comments CommentService
	admin    AdminService
}

func newEnv() *env {
	db := newMemDB()
	m := metrics.New()
	mailer := &fakeMailer{}
	log := zerolog.Nop()

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "classhub",
	})
	authz := appauth.NewAuthorizationService(fakePosts{db}, fakeComments{db})
	classrooms := fakeClassrooms{db}
	if _, err := classrooms.Ensure(context.Background(), testClassroom.Grade, testClassroom.ClassNo); err != nil {
		panic(err)
	}

	return &env{
		db:       db,
		metrics:  m,
		mailer:   mailer,
		auth:     NewAuthService(fakeUsers{db}, fakeTokens{db}, classrooms, jwtService, testClassroom, m, log),
		boards:   NewBoardService(fakeBoards{db}),
		posts:    NewPostService(fakePosts{db}, fakeBoards{db}, classrooms, authz, testClassroom, log),
		react:    NewReactionService(fakeReactions{db}, m, log),
		comments: NewCommentService(fakeComments{db}, fakePosts{db}, authz, m, log),
		admin:    NewAdminService(fakeUsers{db}, fakePosts{db}, fakeReactions{db}, mailer, m, log),
	}
}

func actorOf(u *models.User) appauth.Actor {
	return appauth.Actor{UserID: u.ID, Name: u.Name, Role: u.RoleType}
}
