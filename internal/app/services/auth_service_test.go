package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/pkg/apperrors"
)

func TestRegisterLoginApprovalFlow(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	user, err := e.auth.Register(ctx, &dto.RegisterRequest{Name: " Kim Minji ", Email: "Minji@School.kr", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.IsApproved || user.Role != string(models.RoleStudent) || user.Email != "minji@school.kr" || user.Name != "Kim Minji" {
		t.Fatalf("registered user = %+v", user)
	}
	classroom, _ := fakeClassrooms{e.db}.GetByGradeAndClassNo(ctx, 1, 8)
	if e.db.members[user.ID] != classroom.ID {
		t.Fatalf("user not joined to the default classroom")
	}
	if got := testutil.ToFloat64(e.metrics.Registrations); got != 1 {
		t.Fatalf("registrations metric = %v", got)
	}

	if _, err := e.auth.Register(ctx, &dto.RegisterRequest{Name: "Other", Email: "minji@school.kr ", Password: "secret123"}); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("duplicate register: %v", err)
	}

	login := &dto.LoginRequest{Email: "minji@school.kr", Password: "secret123"}
	if _, err := e.auth.Login(ctx, login); !errors.Is(err, apperrors.ErrAccountNotApproved) {
		t.Fatalf("pending login: %v", err)
	}

	if err := (fakeUsers{e.db}).Approve(ctx, user.ID); err != nil {
		t.Fatal(err)
	}

	resp, err := e.auth.Login(ctx, login)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token.AccessToken == "" || resp.Token.RefreshToken == "" || resp.Token.TokenType != "Bearer" {
		t.Fatalf("token = %+v", resp.Token)
	}
	if resp.User.ID != user.ID {
		t.Fatalf("login user = %+v", resp.User)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	if _, err := e.auth.Register(ctx, &dto.RegisterRequest{Name: "Lee", Email: "lee@school.kr", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{"wrong password", dto.LoginRequest{Email: "lee@school.kr", Password: "nope"}},
		{"unknown email", dto.LoginRequest{Email: "ghost@school.kr", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.auth.Login(ctx, &tt.req); !errors.Is(err, apperrors.ErrInvalidCredentials) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	u, err := e.auth.Register(ctx, &dto.RegisterRequest{Name: "Park", Email: "park@school.kr", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	_ = fakeUsers{e.db}.Approve(ctx, u.ID)

	first, err := e.auth.Login(ctx, &dto.LoginRequest{Email: "park@school.kr", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}

	second, err := e.auth.RefreshToken(ctx, first.Token.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if second.Token.RefreshToken == first.Token.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	if _, err := e.auth.RefreshToken(ctx, first.Token.RefreshToken); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Fatalf("reuse of rotated token: %v", err)
	}
	if _, err := e.auth.RefreshToken(ctx, "  "); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Fatalf("blank token: %v", err)
	}

	if err := e.auth.Logout(ctx, second.Token.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := e.auth.RefreshToken(ctx, second.Token.RefreshToken); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Fatalf("refresh after logout: %v", err)
	}
	if err := e.auth.Logout(ctx, "unknown"); err != nil {
		t.Fatalf("Logout unknown: %v", err)
	}
}

func TestRefreshIsSingleUseUnderConcurrency(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	u := e.db.addUser("kang", models.RoleStudent, true)
	login, err := e.auth.generateAuthResponse(ctx, u)
	if err != nil {
		t.Fatal(err)
	}

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		revoked int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.auth.RefreshToken(ctx, login.Token.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperrors.ErrTokenRevoked):
				revoked++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || revoked != n-1 {
		t.Fatalf("successes=%d revoked=%d, want exactly one rotation", ok, revoked)
	}
}

func TestMe(t *testing.T) {
	e := newEnv()
	u := e.db.addUser("choi", models.RoleStudent, true)

	me, err := e.auth.Me(context.Background(), u.ID)
	if err != nil || me.ID != u.ID {
		t.Fatalf("Me = %+v, %v", me, err)
	}
	if _, err := e.auth.Me(context.Background(), "missing"); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("Me missing: %v", err)
	}
}
