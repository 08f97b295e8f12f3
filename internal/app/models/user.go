package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID         string    `json:"id" db:"id" example:"7c4b1d1e-3f0a-4c55-9f7e-2f3a1b0c9d8e"`
	Name       string    `json:"name" db:"name" example:"Kim Minji"`
	Email      string    `json:"email" db:"email" example:"minji@school.kr"`
	Password   string    `json:"-" db:"password"`
	RoleType   RoleType  `json:"role" db:"role_type" example:"STUDENT"`
	IsApproved bool      `json:"isApproved" db:"is_approved" example:"false"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the stored role is ADMIN
func (u *User) IsAdmin() bool {
	return u != nil && u.RoleType == RoleAdmin
}

// UserStats are the per-user content totals shown in the admin list
type UserStats struct {
	User
	PostsCount    int64 `json:"postsCount"`
	CommentsCount int64 `json:"commentsCount"`
}
