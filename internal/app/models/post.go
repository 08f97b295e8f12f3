package models

import (
	"time"

	"github.com/yigit/classhub/internal/domain/reaction"
)

// Post defines a board post from the 'posts' table
type Post struct {
	ID            string     `db:"id"`
	BoardID       string     `db:"board_id"`
	ClassroomID   string     `db:"classroom_id"`
	AuthorID      string     `db:"author_id"`
	Title         string     `db:"title"`
	Content       string     `db:"content"`
	IsAnonymous   bool       `db:"is_anonymous"`
	IsPinned      bool       `db:"is_pinned"`
	Views         int64      `db:"views"`
	LikesCount    int64      `db:"likes_count"`
	DislikesCount int64      `db:"dislikes_count"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

// PostDetails is a post joined with its board, author and comment count
type PostDetails struct {
	Post
	BoardKey      string
	BoardName     string
	AuthorName    string
	CommentsCount int64
	// UserLike is the viewer's disposition when the query was made for a viewer
	UserLike reaction.Disposition
}

// PostFilter narrows post listings
type PostFilter struct {
	BoardKey string
	Offset   uint64
	Limit    int
}

// CounterFix records one post whose denormalized counters disagreed with the ledger
type CounterFix struct {
	PostID         string `json:"postId"`
	Title          string `json:"title"`
	LikesBefore    int64  `json:"likesBefore"`
	LikesAfter     int64  `json:"likesAfter"`
	DislikesBefore int64  `json:"dislikesBefore"`
	DislikesAfter  int64  `json:"dislikesAfter"`
}
