package dto

import "github.com/yigit/classhub/internal/domain/reaction"

// ReactionRequest is the body of POST /posts/{id}/like
type ReactionRequest struct {
	UserID string `json:"userId" binding:"required"`
	IsLike *bool  `json:"isLike" binding:"required"`
}

// ReactionResponse reports the post counters and the caller's disposition after a reaction
type ReactionResponse struct {
	Success  bool                 `json:"success" example:"true"`
	Likes    int64                `json:"likes" example:"3"`
	Dislikes int64                `json:"dislikes" example:"1"`
	UserLike reaction.Disposition `json:"userLike" swaggertype:"boolean" extensions:"x-nullable"`
}

// NewReactionResponse builds the response from the stored state
func NewReactionResponse(s reaction.State) ReactionResponse {
	return ReactionResponse{
		Success:  true,
		Likes:    s.Likes,
		Dislikes: s.Dislikes,
		UserLike: s.Disposition,
	}
}

// CommentLikeResponse reports a comment like toggle
type CommentLikeResponse struct {
	Success    bool  `json:"success" example:"true"`
	Liked      bool  `json:"liked" example:"true"`
	LikesCount int64 `json:"likesCount" example:"4"`
}
