package dto

import (
	"time"

	"github.com/yigit/classhub/internal/domain/reaction"
)

// AnonymousName replaces the author name of anonymous posts and comments
const AnonymousName = "익명"

// CreatePostRequest represents a new post
type CreatePostRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Content     string `json:"content" binding:"required,max=20000"`
	BoardKey    string `json:"boardKey" binding:"required"`
	IsAnonymous bool   `json:"isAnonymous"`
	IsPinned    bool   `json:"isPinned"`
}

// UpdatePostRequest represents a post edit; nil flags keep their value
type UpdatePostRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Content     string `json:"content" binding:"required,max=20000"`
	IsAnonymous *bool  `json:"isAnonymous"`
	IsPinned    *bool  `json:"isPinned"`
}

// AuthorResponse identifies an author. ID is omitted for anonymous content.
type AuthorResponse struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// PostResponse represents a post with its counters and the viewer's reaction
type PostResponse struct {
	ID            string               `json:"id"`
	BoardKey      string               `json:"boardKey"`
	BoardName     string               `json:"boardName"`
	Title         string               `json:"title"`
	Content       string               `json:"content"`
	Author        AuthorResponse       `json:"author"`
	IsAnonymous   bool                 `json:"isAnonymous"`
	IsPinned      bool                 `json:"isPinned"`
	IsMine        bool                 `json:"isMine"`
	Views         int64                `json:"views"`
	Likes         int64                `json:"likes"`
	Dislikes      int64                `json:"dislikes"`
	UserLike      reaction.Disposition `json:"userLike" swaggertype:"boolean" extensions:"x-nullable"`
	CommentsCount int64                `json:"commentsCount"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// PostListResponse is one page of posts
type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination PaginationInfo `json:"pagination"`
}
