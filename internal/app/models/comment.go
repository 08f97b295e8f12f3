package models

import "time"

// Comment defines a post comment from the 'comments' table.
// ParentID is set for replies and always points at a top-level comment.
type Comment struct {
	ID          string     `db:"id"`
	PostID      string     `db:"post_id"`
	AuthorID    string     `db:"author_id"`
	ParentID    *string    `db:"parent_id"`
	Content     string     `db:"content"`
	IsAnonymous bool       `db:"is_anonymous"`
	LikesCount  int64      `db:"likes_count"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

// CommentDetails is a comment joined with its author and the viewer's like
type CommentDetails struct {
	Comment
	AuthorName string
	Liked      bool
}
