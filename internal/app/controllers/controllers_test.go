package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classhub/internal/app/auth"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/domain/reaction"
	"github.com/yigit/classhub/internal/middleware"
	"github.com/yigit/classhub/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var student = appauth.Actor{UserID: "7c4b1d1e-3f0a-4c55-9f7e-2f3a1b0c9d8e", Name: "Minji", Role: models.RoleStudent}

// withActor stands in for SessionAuth
func withActor(actor *appauth.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ContextKeyActor, *actor)
		}
		c.Next()
	}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error == nil {
		t.Fatalf("not an error response: %s", w.Body.String())
	}
	return resp.Error.Code
}

type fakeReactions struct {
	state  reaction.State
	err    error
	called bool
}

func (f *fakeReactions) React(_ context.Context, actor appauth.Actor, postID, userID string, isLike bool) (reaction.State, error) {
	f.called = true
	if f.err != nil {
		return reaction.State{}, f.err
	}
	if userID != actor.UserID {
		return reaction.State{}, apperrors.NewForbiddenError("you can only react as yourself")
	}
	if postID == "xyz" {
		return reaction.State{}, apperrors.ErrPostNotFound
	}
	return f.state, nil
}

func TestReactionController_React(t *testing.T) {
	svc := &fakeReactions{state: reaction.State{Counts: reaction.Counts{Likes: 3, Dislikes: 1}, Disposition: reaction.Liked}}
	r := gin.New()
	r.POST("/api/posts/:id/like", withActor(&student), NewReactionController(svc, zerolog.Nop()).React)

	t.Run("ok", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/posts/p1/like", `{"userId":"`+student.UserID+`","isLike":true}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
		}
		want := `{"success":true,"likes":3,"dislikes":1,"userLike":true}`
		if w.Body.String() != want {
			t.Fatalf("body = %s, want %s", w.Body.String(), want)
		}
	})

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"missing isLike", "/api/posts/p1/like", `{"userId":"` + student.UserID + `"}`, http.StatusBadRequest},
		{"missing userId", "/api/posts/p1/like", `{"isLike":false}`, http.StatusBadRequest},
		{"malformed json", "/api/posts/p1/like", `{"isLike":`, http.StatusBadRequest},
		{"other user", "/api/posts/p1/like", `{"userId":"someone-else","isLike":true}`, http.StatusForbidden},
		{"unknown post", "/api/posts/xyz/like", `{"userId":"` + student.UserID + `","isLike":true}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}
}

func TestReactionController_FalseIsNotMissing(t *testing.T) {
	svc := &fakeReactions{state: reaction.State{Counts: reaction.Counts{Dislikes: 1}, Disposition: reaction.Disliked}}
	r := gin.New()
	r.POST("/api/posts/:id/like", withActor(&student), NewReactionController(svc, zerolog.Nop()).React)

	w := do(r, http.MethodPost, "/api/posts/p1/like", `{"userId":"`+student.UserID+`","isLike":false}`)
	if w.Code != http.StatusOK || !svc.called {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestReactionController_Unauthenticated(t *testing.T) {
	svc := &fakeReactions{}
	r := gin.New()
	r.POST("/api/posts/:id/like", withActor(nil), NewReactionController(svc, zerolog.Nop()).React)

	w := do(r, http.MethodPost, "/api/posts/p1/like", `{"userId":"u","isLike":true}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.called {
		t.Fatalf("service reached without a session")
	}
}

type fakeComments struct {
	deleted []string
}

func (f *fakeComments) ListComments(_ context.Context, _ appauth.Actor, postID string) ([]dto.CommentResponse, error) {
	if postID == "" {
		return nil, apperrors.NewValidationError("postId", "postId is required")
	}
	return []dto.CommentResponse{{ID: "c1", PostID: postID, Replies: []dto.CommentResponse{{ID: "c2", PostID: postID}}}}, nil
}

func (f *fakeComments) CreateComment(_ context.Context, _ appauth.Actor, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if req.ParentID != nil && *req.ParentID == "elsewhere" {
		return nil, apperrors.NewBadRequestError("parent comment belongs to another post")
	}
	return &dto.CommentResponse{ID: "c3", PostID: req.PostID, Content: req.Content}, nil
}

func (f *fakeComments) DeleteComment(_ context.Context, _ appauth.Actor, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeComments) ToggleLike(_ context.Context, _ appauth.Actor, id string) (*dto.CommentLikeResponse, error) {
	if id == "missing" {
		return nil, apperrors.ErrCommentNotFound
	}
	return &dto.CommentLikeResponse{Success: true, Liked: true, LikesCount: 4}, nil
}

func commentRouter(svc *fakeComments) *gin.Engine {
	c := NewCommentController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/api/comments", withActor(&student))
	g.GET("", c.ListComments)
	g.POST("", c.CreateComment)
	g.DELETE("/:id", c.DeleteComment)
	g.POST("/:id/like", c.ToggleLike)
	return r
}

func TestCommentController(t *testing.T) {
	svc := &fakeComments{}
	r := commentRouter(svc)

	w := do(r, http.MethodGet, "/api/comments", "")
	if w.Code != http.StatusBadRequest || errorCode(t, w) != dto.ErrorCodeValidationFailed {
		t.Fatalf("missing postId: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/comments?postId=p1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var list struct {
		Data []dto.CommentResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Data) != 1 || len(list.Data[0].Replies) != 1 {
		t.Fatalf("list body = %s", w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/comments", `{"postId":"p1","content":"hi"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodPost, "/api/comments", `{"postId":"p1","content":"hi","parentId":"elsewhere"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("foreign parent: %d", w.Code)
	}
	w = do(r, http.MethodPost, "/api/comments", `{"postId":"p1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing content: %d", w.Code)
	}

	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodDelete, "/api/comments/c1", ""); w.Code != http.StatusOK {
			t.Fatalf("delete #%d: %d", i, w.Code)
		}
	}
	if len(svc.deleted) != 2 {
		t.Fatalf("deleted = %v", svc.deleted)
	}

	w = do(r, http.MethodPost, "/api/comments/c1/like", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"success":true,"liked":true,"likesCount":4}` {
		t.Fatalf("like: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodPost, "/api/comments/missing/like", ""); w.Code != http.StatusNotFound {
		t.Fatalf("like missing: %d", w.Code)
	}
}

type fakeAuth struct{}

func (fakeAuth) Register(_ context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if req.Email == "taken@school.kr" {
		return nil, apperrors.ErrEmailAlreadyExists
	}
	return &dto.UserResponse{ID: "u1", Name: req.Name, Email: req.Email, Role: "STUDENT"}, nil
}

func (fakeAuth) Login(_ context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	switch req.Email {
	case "pending@school.kr":
		return nil, apperrors.ErrAccountNotApproved
	case "ok@school.kr":
		return &dto.AuthResponse{Token: dto.TokenResponse{AccessToken: "a", TokenType: "Bearer"}}, nil
	}
	return nil, apperrors.ErrInvalidCredentials
}

func (fakeAuth) RefreshToken(_ context.Context, token string) (*dto.AuthResponse, error) {
	if token != "good" {
		return nil, apperrors.ErrTokenRevoked
	}
	return &dto.AuthResponse{}, nil
}

func (fakeAuth) Logout(context.Context, string) error { return nil }

func (fakeAuth) Me(_ context.Context, userID string) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: userID}, nil
}

func TestAuthController(t *testing.T) {
	c := NewAuthController(fakeAuth{}, zerolog.Nop())
	r := gin.New()
	r.POST("/register", c.Register)
	r.POST("/login", c.Login)
	r.POST("/refresh", c.RefreshToken)
	r.POST("/logout", c.Logout)
	r.GET("/me", withActor(&student), c.Me)
	r.GET("/anon/me", c.Me)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"register", http.MethodPost, "/register", `{"name":"Minji","email":"m@school.kr","password":"secret123"}`, http.StatusCreated},
		{"register duplicate", http.MethodPost, "/register", `{"name":"Minji","email":"taken@school.kr","password":"secret123"}`, http.StatusConflict},
		{"register short password", http.MethodPost, "/register", `{"name":"Minji","email":"m@school.kr","password":"123"}`, http.StatusBadRequest},
		{"register bad email", http.MethodPost, "/register", `{"name":"Minji","email":"nope","password":"secret123"}`, http.StatusBadRequest},
		{"login", http.MethodPost, "/login", `{"email":"ok@school.kr","password":"x"}`, http.StatusOK},
		{"login pending", http.MethodPost, "/login", `{"email":"pending@school.kr","password":"x"}`, http.StatusForbidden},
		{"login wrong", http.MethodPost, "/login", `{"email":"who@school.kr","password":"x"}`, http.StatusUnauthorized},
		{"refresh", http.MethodPost, "/refresh", `{"refreshToken":"good"}`, http.StatusOK},
		{"refresh revoked", http.MethodPost, "/refresh", `{"refreshToken":"old"}`, http.StatusUnauthorized},
		{"logout", http.MethodPost, "/logout", `{"refreshToken":"anything"}`, http.StatusOK},
		{"logout without token", http.MethodPost, "/logout", `{}`, http.StatusBadRequest},
		{"me", http.MethodGet, "/me", "", http.StatusOK},
		{"me without session", http.MethodGet, "/anon/me", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}
}

type fakeAdmin struct {
	role models.RoleType
}

func (f *fakeAdmin) ListUsers(context.Context) (*dto.AdminUserListResponse, error) {
	return &dto.AdminUserListResponse{Total: 1, Pending: 1}, nil
}

func (f *fakeAdmin) ApproveUser(_ context.Context, _ appauth.Actor, id string) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: id, IsApproved: true}, nil
}

func (f *fakeAdmin) RevertUser(_ context.Context, actor appauth.Actor, id string) (*dto.UserResponse, error) {
	switch id {
	case actor.UserID:
		return nil, apperrors.NewBadRequestError("admins cannot revert their own account")
	case "missing":
		return nil, apperrors.ErrUserNotFound
	}
	return &dto.UserResponse{ID: id, IsApproved: false}, nil
}

func (f *fakeAdmin) RejectUser(context.Context, appauth.Actor, string) error { return nil }

func (f *fakeAdmin) DeleteUser(_ context.Context, actor appauth.Actor, id string) error {
	if id == actor.UserID {
		return apperrors.NewBadRequestError("you cannot delete your own account")
	}
	return nil
}

func (f *fakeAdmin) UpdateRole(_ context.Context, _ appauth.Actor, id string, role models.RoleType) (*dto.UserResponse, error) {
	f.role = role
	return &dto.UserResponse{ID: id, Role: string(role)}, nil
}

func (f *fakeAdmin) DeletePost(context.Context, appauth.Actor, string) error { return nil }

func (f *fakeAdmin) ReconcileReactions(context.Context, appauth.Actor) (*dto.ReconcileResponse, error) {
	return &dto.ReconcileResponse{FixedCount: 1, Fixes: []models.CounterFix{{PostID: "p1"}}}, nil
}

func TestAdminController(t *testing.T) {
	admin := appauth.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	svc := &fakeAdmin{}
	c := NewAdminController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/api/admin", withActor(&admin))
	g.GET("/users", c.ListUsers)
	g.PATCH("/users/:id/approve", c.ApproveUser)
	g.PATCH("/users/:id/revert", c.RevertUser)
	g.DELETE("/users/:id/reject", c.RejectUser)
	g.DELETE("/users/:id", c.DeleteUser)
	g.PATCH("/users/:id/role", c.UpdateRole)
	g.DELETE("/posts/:id", c.DeletePost)
	g.POST("/reactions/reconcile", c.ReconcileReactions)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"list", http.MethodGet, "/api/admin/users", "", http.StatusOK},
		{"approve", http.MethodPatch, "/api/admin/users/u1/approve", "", http.StatusOK},
		{"revert", http.MethodPatch, "/api/admin/users/u1/revert", "", http.StatusOK},
		{"revert self", http.MethodPatch, "/api/admin/users/admin-1/revert", "", http.StatusBadRequest},
		{"revert missing", http.MethodPatch, "/api/admin/users/missing/revert", "", http.StatusNotFound},
		{"reject", http.MethodDelete, "/api/admin/users/u1/reject", "", http.StatusOK},
		{"delete", http.MethodDelete, "/api/admin/users/u1", "", http.StatusOK},
		{"delete self", http.MethodDelete, "/api/admin/users/admin-1", "", http.StatusBadRequest},
		{"role", http.MethodPatch, "/api/admin/users/u1/role", `{"role":"ADMIN"}`, http.StatusOK},
		{"role unknown", http.MethodPatch, "/api/admin/users/u1/role", `{"role":"TEACHER"}`, http.StatusBadRequest},
		{"delete post", http.MethodDelete, "/api/admin/posts/p1", "", http.StatusOK},
		{"reconcile", http.MethodPost, "/api/admin/reactions/reconcile", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}
	if svc.role != models.RoleAdmin {
		t.Fatalf("role passed to service = %q", svc.role)
	}
}

type fakePosts struct {
	page, size int
	board      string
}

func (f *fakePosts) ListPosts(_ context.Context, _ appauth.Actor, boardKey string, page, size int) (*dto.PostListResponse, error) {
	if boardKey == "NOPE" {
		return nil, apperrors.ErrBoardNotFound
	}
	f.board, f.page, f.size = boardKey, page, size
	return &dto.PostListResponse{}, nil
}

func (f *fakePosts) GetPost(_ context.Context, _ appauth.Actor, id string) (*dto.PostResponse, error) {
	if id == "xyz" {
		return nil, apperrors.ErrPostNotFound
	}
	return &dto.PostResponse{ID: id}, nil
}

func (f *fakePosts) CreatePost(_ context.Context, actor appauth.Actor, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	if req.IsPinned && !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can pin posts")
	}
	return &dto.PostResponse{ID: "p9", BoardKey: req.BoardKey}, nil
}

func (f *fakePosts) UpdatePost(_ context.Context, _ appauth.Actor, id string, _ *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	if id == "theirs" {
		return nil, apperrors.NewForbiddenError("you can only modify your own posts")
	}
	return &dto.PostResponse{ID: id}, nil
}

func (f *fakePosts) DeletePost(_ context.Context, _ appauth.Actor, id string) error {
	if id == "xyz" {
		return apperrors.ErrPostNotFound
	}
	return nil
}

func TestPostController(t *testing.T) {
	svc := &fakePosts{}
	c := NewPostController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/api/posts", withActor(&student))
	g.GET("", c.ListPosts)
	g.POST("", c.CreatePost)
	g.GET("/:id", c.GetPost)
	g.PUT("/:id", c.UpdatePost)
	g.DELETE("/:id", c.DeletePost)

	if w := do(r, http.MethodGet, "/api/posts?board=FREE&page=2&size=5", ""); w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	if svc.board != "FREE" || svc.page != 2 || svc.size != 5 {
		t.Fatalf("list params = %q %d %d", svc.board, svc.page, svc.size)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"unknown board", http.MethodGet, "/api/posts?board=NOPE", "", http.StatusNotFound},
		{"get", http.MethodGet, "/api/posts/p1", "", http.StatusOK},
		{"get missing", http.MethodGet, "/api/posts/xyz", "", http.StatusNotFound},
		{"create", http.MethodPost, "/api/posts", `{"title":"t","content":"c","boardKey":"FREE"}`, http.StatusCreated},
		{"create pinned", http.MethodPost, "/api/posts", `{"title":"t","content":"c","boardKey":"FREE","isPinned":true}`, http.StatusForbidden},
		{"create no title", http.MethodPost, "/api/posts", `{"content":"c","boardKey":"FREE"}`, http.StatusBadRequest},
		{"update", http.MethodPut, "/api/posts/p1", `{"title":"t","content":"c"}`, http.StatusOK},
		{"update foreign", http.MethodPut, "/api/posts/theirs", `{"title":"t","content":"c"}`, http.StatusForbidden},
		{"delete", http.MethodDelete, "/api/posts/p1", "", http.StatusOK},
		{"delete missing", http.MethodDelete, "/api/posts/xyz", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}
}

type fakeBoards struct{}

func (fakeBoards) ListBoards(context.Context) ([]*models.Board, error) {
	return []*models.Board{{Key: models.BoardFree}}, nil
}

func (fakeBoards) CreateBoard(_ context.Context, key, name string) (*models.Board, error) {
	return &models.Board{Key: key, Name: name}, nil
}

func TestBoardController(t *testing.T) {
	c := NewBoardController(fakeBoards{}, zerolog.Nop())
	r := gin.New()
	r.GET("/boards", c.ListBoards)
	r.POST("/boards", c.CreateBoard)

	if w := do(r, http.MethodGet, "/boards", ""); w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/boards", `{"key":"NEWS","name":"News"}`); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/boards", `{"name":"News"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("create without key: %d", w.Code)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthController(t *testing.T) {
	for _, tt := range []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{errors.New("connection refused"), http.StatusServiceUnavailable},
	} {
		r := gin.New()
		r.GET("/health", NewHealthController(pinger{tt.err}, zerolog.Nop()).Health)
		if w := do(r, http.MethodGet, "/health", ""); w.Code != tt.code {
			t.Fatalf("ping err %v: status %d, want %d", tt.err, w.Code, tt.code)
		}
	}
}
