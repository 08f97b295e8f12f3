package dto

import "github.com/yigit/classhub/internal/app/models"

// AdminUserResponse is a user row in the admin list
type AdminUserResponse struct {
	UserResponse
	PostsCount    int64 `json:"postsCount"`
	CommentsCount int64 `json:"commentsCount"`
}

// AdminUserListResponse lists every user with approval totals
type AdminUserListResponse struct {
	Users    []AdminUserResponse `json:"users"`
	Total    int                 `json:"total"`
	Pending  int                 `json:"pending"`
	Approved int                 `json:"approved"`
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN STUDENT" example:"ADMIN"`
}

// ReconcileResponse lists posts whose counters were corrected
type ReconcileResponse struct {
	FixedCount int                 `json:"fixedCount"`
	Fixes      []models.CounterFix `json:"fixes"`
}
