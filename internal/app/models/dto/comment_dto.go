package dto

import "time"

// CreateCommentRequest represents a new comment or reply
type CreateCommentRequest struct {
	PostID      string  `json:"postId" binding:"required"`
	Content     string  `json:"content" binding:"required,max=2000"`
	IsAnonymous bool    `json:"isAnonymous"`
	ParentID    *string `json:"parentId"`
}

// CommentResponse is a comment; top-level comments carry their replies
type CommentResponse struct {
	ID          string            `json:"id"`
	PostID      string            `json:"postId"`
	ParentID    *string           `json:"parentId,omitempty"`
	Content     string            `json:"content"`
	Author      AuthorResponse    `json:"author"`
	IsAnonymous bool              `json:"isAnonymous"`
	IsMine      bool              `json:"isMine"`
	LikesCount  int64             `json:"likesCount"`
	Liked       bool              `json:"liked"`
	CreatedAt   time.Time         `json:"createdAt"`
	Replies     []CommentResponse `json:"replies,omitempty"`
}
