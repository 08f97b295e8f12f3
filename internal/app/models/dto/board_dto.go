package dto

// CreateBoardRequest creates a board; an existing key returns the stored board
type CreateBoardRequest struct {
	Key  string `json:"key" binding:"required,max=32" example:"FREE"`
	Name string `json:"name" binding:"required,max=50" example:"자유게시판"`
}
