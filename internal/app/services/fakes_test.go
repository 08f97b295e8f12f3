package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/domain/reaction"
	"github.com/yigit/classhub/internal/pkg/apperrors"
)

// memDB is an in-memory stand-in for the Postgres schema shared by the fakes below
type memDB struct {
	mu         sync.Mutex
	clock      time.Time
	users      map[string]*models.User
	members    map[string]string
	tokens     map[string]*memToken
	classrooms map[[2]int]*models.Classroom
	boards     map[string]*models.Board
	posts      map[string]*models.Post
	reactions  map[[2]string]bool
	comments   map[string]*models.Comment
	likes      map[[2]string]bool
	failWrites error
}

type memToken struct {
	userID  string
	expiry  time.Time
	revoked bool
}

func newMemDB() *memDB {
	db := &memDB{
		clock:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		users:      map[string]*models.User{},
		members:    map[string]string{},
		tokens:     map[string]*memToken{},
		classrooms: map[[2]int]*models.Classroom{},
		boards:     map[string]*models.Board{},
		posts:      map[string]*models.Post{},
		reactions:  map[[2]string]bool{},
		comments:   map[string]*models.Comment{},
		likes:      map[[2]string]bool{},
	}
	for _, b := range models.DefaultBoards {
		db.boards[b.Key] = &models.Board{ID: uuid.NewString(), Key: b.Key, Name: b.Name}
	}
	return db
}

// tick returns a strictly increasing timestamp so ordering is deterministic
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) addUser(name string, role models.RoleType, approved bool) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &models.User{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      name + "@school.kr",
		RoleType:   role,
		IsApproved: approved,
		CreatedAt:  db.tick(),
	}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addPost(authorID, boardKey string) *models.Post {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := &models.Post{
		ID:        uuid.NewString(),
		BoardID:   db.boards[boardKey].ID,
		AuthorID:  authorID,
		Title:     "title",
		Content:   "content",
		CreatedAt: db.tick(),
	}
	db.posts[p.ID] = p
	return p
}

func (db *memDB) boardByID(id string) *models.Board {
	for _, b := range db.boards {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// users

type fakeUsers struct{ db *memDB }

func (f fakeUsers) CreateWithClassroom(_ context.Context, user *models.User, classroomID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWrites != nil {
		return f.db.failWrites
	}
	for _, u := range f.db.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = f.db.tick()
	cp := *user
	f.db.users[user.ID] = &cp
	f.db.members[user.ID] = classroomID
	return nil
}

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f fakeUsers) ListWithStats(_ context.Context) ([]*models.UserStats, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*models.UserStats
	for _, u := range f.db.users {
		s := &models.UserStats{User: *u}
		for _, p := range f.db.posts {
			if p.AuthorID == u.ID && p.DeletedAt == nil {
				s.PostsCount++
			}
		}
		for _, c := range f.db.comments {
			if c.AuthorID == u.ID && c.DeletedAt == nil {
				s.CommentsCount++
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsApproved != out[j].IsApproved {
			return !out[i].IsApproved
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f fakeUsers) Approve(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.IsApproved = true
	return nil
}

func (f fakeUsers) RevertToPending(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok || !u.IsApproved || u.RoleType != models.RoleStudent {
		return apperrors.ErrUserNotFound
	}
	u.IsApproved = false
	return nil
}

func (f fakeUsers) UpdateRole(_ context.Context, id string, role models.RoleType) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.RoleType = role
	return nil
}

func (f fakeUsers) DeletePending(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok || u.IsApproved || u.RoleType == models.RoleAdmin {
		return apperrors.ErrUserNotFound
	}
	delete(f.db.users, id)
	return nil
}

func (f fakeUsers) DeleteCascade(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	for key, isLike := range f.db.reactions {
		if key[0] != id {
			continue
		}
		if p, ok := f.db.posts[key[1]]; ok {
			if isLike {
				p.LikesCount = max(p.LikesCount-1, 0)
			} else {
				p.DislikesCount = max(p.DislikesCount-1, 0)
			}
		}
		delete(f.db.reactions, key)
	}
	for key := range f.db.likes {
		if key[0] != id {
			continue
		}
		if c, ok := f.db.comments[key[1]]; ok {
			c.LikesCount = max(c.LikesCount-1, 0)
		}
		delete(f.db.likes, key)
	}
	for pid, p := range f.db.posts {
		if p.AuthorID == id {
			delete(f.db.posts, pid)
		}
	}
	for cid, c := range f.db.comments {
		if c.AuthorID == id {
			delete(f.db.comments, cid)
		}
	}
	delete(f.db.users, id)
	delete(f.db.members, id)
	return nil
}

// tokens

type fakeTokens struct{ db *memDB }

func (f fakeTokens) CreateToken(_ context.Context, token, userID string, expiry time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.tokens[token] = &memToken{userID: userID, expiry: expiry}
	return nil
}

func (f fakeTokens) GetTokenByValue(_ context.Context, token string) (string, time.Time, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tokens[token]
	switch {
	case !ok:
		return "", time.Time{}, apperrors.ErrTokenNotFound
	case t.revoked:
		return "", time.Time{}, apperrors.ErrTokenRevoked
	}
	return t.userID, t.expiry, nil
}

func (f fakeTokens) RevokeToken(_ context.Context, token string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tokens[token]
	if !ok || t.revoked {
		return apperrors.ErrTokenRevoked
	}
	t.revoked = true
	return nil
}

func (f fakeTokens) RevokeAllUserTokens(_ context.Context, userID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (f fakeTokens) CleanupExpiredTokens(context.Context) (int64, error) { return 0, nil }

// classrooms

type fakeClassrooms struct{ db *memDB }

func (f fakeClassrooms) GetByGradeAndClassNo(_ context.Context, grade, classNo int) (*models.Classroom, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.classrooms[[2]int{grade, classNo}]
	if !ok {
		return nil, apperrors.ErrClassroomNotFound
	}
	return c, nil
}

func (f fakeClassrooms) Ensure(ctx context.Context, grade, classNo int) (*models.Classroom, error) {
	f.db.mu.Lock()
	key := [2]int{grade, classNo}
	if _, ok := f.db.classrooms[key]; !ok {
		f.db.classrooms[key] = &models.Classroom{ID: uuid.NewString(), Grade: grade, ClassNo: classNo}
	}
	f.db.mu.Unlock()
	return f.GetByGradeAndClassNo(ctx, grade, classNo)
}

// boards

type fakeBoards struct{ db *memDB }

func (f fakeBoards) List(_ context.Context) ([]*models.Board, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*models.Board
	for _, b := range f.db.boards {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f fakeBoards) GetByKey(_ context.Context, key string) (*models.Board, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.boards[models.NormalizeBoardKey(key)]
	if !ok {
		return nil, apperrors.ErrBoardNotFound
	}
	return b, nil
}

func (f fakeBoards) Create(ctx context.Context, key, name string) (*models.Board, error) {
	f.db.mu.Lock()
	if _, ok := f.db.boards[key]; !ok {
		f.db.boards[key] = &models.Board{ID: uuid.NewString(), Key: key, Name: name}
	}
	f.db.mu.Unlock()
	return f.GetByKey(ctx, key)
}

// posts

type fakePosts struct{ db *memDB }

func (f fakePosts) details(p *models.Post, viewerID string) *models.PostDetails {
	d := &models.PostDetails{Post: *p}
	if b := f.db.boardByID(p.BoardID); b != nil {
		d.BoardKey, d.BoardName = b.Key, b.Name
	}
	if u, ok := f.db.users[p.AuthorID]; ok {
		d.AuthorName = u.Name
	}
	for _, c := range f.db.comments {
		if c.PostID == p.ID && c.DeletedAt == nil {
			d.CommentsCount++
		}
	}
	if isLike, ok := f.db.reactions[[2]string{viewerID, p.ID}]; ok {
		d.UserLike = reaction.FromRecord(isLike)
	}
	return d
}

func (f fakePosts) List(_ context.Context, filter models.PostFilter) ([]*models.PostDetails, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var all []*models.PostDetails
	for _, p := range f.db.posts {
		if p.DeletedAt != nil {
			continue
		}
		d := f.details(p, "")
		if filter.BoardKey != "" && d.BoardKey != models.NormalizeBoardKey(filter.BoardKey) {
			continue
		}
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IsPinned != all[j].IsPinned {
			return all[i].IsPinned
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	start := min(int(filter.Offset), len(all))
	end := min(start+filter.Limit, len(all))
	return all[start:end], total, nil
}

func (f fakePosts) GetDetails(_ context.Context, id, viewerID string) (*models.PostDetails, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.posts[id]
	if !ok || p.DeletedAt != nil {
		return nil, apperrors.ErrPostNotFound
	}
	return f.details(p, viewerID), nil
}

func (f fakePosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.posts[id]
	if !ok || p.DeletedAt != nil {
		return nil, apperrors.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakePosts) IncrementViews(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.posts[id]
	if !ok || p.DeletedAt != nil {
		return apperrors.ErrPostNotFound
	}
	p.Views++
	return nil
}

func (f fakePosts) Create(_ context.Context, post *models.Post) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	post.ID = uuid.NewString()
	post.CreatedAt = f.db.tick()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	f.db.posts[post.ID] = &cp
	return nil
}

func (f fakePosts) Update(_ context.Context, post *models.Post) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.posts[post.ID]
	if !ok || p.DeletedAt != nil {
		return apperrors.ErrPostNotFound
	}
	p.Title, p.Content, p.IsAnonymous, p.IsPinned = post.Title, post.Content, post.IsAnonymous, post.IsPinned
	p.UpdatedAt = f.db.tick()
	return nil
}

func (f fakePosts) SoftDelete(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.posts[id]
	if !ok || p.DeletedAt != nil {
		return apperrors.ErrPostNotFound
	}
	now := f.db.tick()
	p.DeletedAt = &now
	return nil
}

// reactions follow the same transition logic as the SQL repository

type fakeReactions struct{ db *memDB }

func (f fakeReactions) SetReaction(_ context.Context, userID, postID string, action reaction.Action) (reaction.State, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWrites != nil {
		return reaction.State{}, f.db.failWrites
	}
	if userID == "" {
		return reaction.State{}, apperrors.NewBadRequestError("userId is required")
	}
	p, ok := f.db.posts[postID]
	if !ok || p.DeletedAt != nil {
		return reaction.State{}, apperrors.ErrPostNotFound
	}

	key := [2]string{userID, postID}
	current := reaction.Neutral
	if isLike, ok := f.db.reactions[key]; ok {
		current = reaction.FromRecord(isLike)
	}
	next := reaction.Next(current, action)
	switch reaction.Operation(current, next) {
	case reaction.OpInsert, reaction.OpUpdate:
		f.db.reactions[key] = next == reaction.Liked
	case reaction.OpDelete:
		delete(f.db.reactions, key)
	}

	counts := reaction.Counts{Likes: p.LikesCount, Dislikes: p.DislikesCount}.Apply(reaction.Delta(current, next))
	p.LikesCount, p.DislikesCount = counts.Likes, counts.Dislikes
	return reaction.State{Counts: counts, Disposition: next}, nil
}

func (f fakeReactions) GetUserDisposition(_ context.Context, userID, postID string) (reaction.Disposition, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if isLike, ok := f.db.reactions[[2]string{userID, postID}]; ok {
		return reaction.FromRecord(isLike), nil
	}
	return reaction.Neutral, nil
}

func (f fakeReactions) ReconcileCounters(_ context.Context) ([]models.CounterFix, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var fixes []models.CounterFix
	for _, p := range f.db.posts {
		var likes, dislikes int64
		for key, isLike := range f.db.reactions {
			if key[1] != p.ID {
				continue
			}
			if isLike {
				likes++
			} else {
				dislikes++
			}
		}
		if likes == p.LikesCount && dislikes == p.DislikesCount {
			continue
		}
		fixes = append(fixes, models.CounterFix{
			PostID: p.ID, Title: p.Title,
			LikesBefore: p.LikesCount, LikesAfter: likes,
			DislikesBefore: p.DislikesCount, DislikesAfter: dislikes,
		})
		p.LikesCount, p.DislikesCount = likes, dislikes
	}
	return fixes, nil
}

// comments

type fakeComments struct{ db *memDB }

func (f fakeComments) ListByPost(_ context.Context, postID, viewerID string) ([]*models.CommentDetails, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []*models.CommentDetails{}
	for _, c := range f.db.comments {
		if c.PostID != postID || c.DeletedAt != nil {
			continue
		}
		d := &models.CommentDetails{Comment: *c, Liked: f.db.likes[[2]string{viewerID, c.ID}]}
		if u, ok := f.db.users[c.AuthorID]; ok {
			d.AuthorName = u.Name
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f fakeComments) GetByID(_ context.Context, id string) (*models.Comment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.comments[id]
	if !ok || c.DeletedAt != nil {
		return nil, apperrors.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeComments) Create(_ context.Context, comment *models.Comment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = f.db.tick()
	cp := *comment
	f.db.comments[comment.ID] = &cp
	return nil
}

func (f fakeComments) SoftDeleteWithReplies(_ context.Context, id string) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	now := f.db.tick()
	for _, c := range f.db.comments {
		if c.DeletedAt == nil && (c.ID == id || (c.ParentID != nil && *c.ParentID == id)) {
			c.DeletedAt = &now
			n++
		}
	}
	return n, nil
}

func (f fakeComments) ToggleLike(_ context.Context, userID, commentID string) (bool, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.comments[commentID]
	if !ok || c.DeletedAt != nil {
		return false, 0, apperrors.ErrCommentNotFound
	}
	key := [2]string{userID, commentID}
	if f.db.likes[key] {
		delete(f.db.likes, key)
		c.LikesCount = max(c.LikesCount-1, 0)
		return false, c.LikesCount, nil
	}
	f.db.likes[key] = true
	c.LikesCount++
	return true, c.LikesCount, nil
}

// mail

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) SendApprovalEmail(toEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return m.err
}

var errBoom = errors.New("boom")
