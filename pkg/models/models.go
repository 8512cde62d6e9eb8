package models

import (
	"time"
)

// User represents a user record in the system
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null" validate:"required,min=1,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null" validate:"required,email,max=254"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100" validate:"required,min=1,max=100"`
	Email string `json:"email" binding:"required,email,max=254" validate:"required,email,max=254"`
}

// UpdateUserRequest represents a partial user update request. Nil fields
// leave the stored values untouched.
type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitnil,min=1,max=100" validate:"omitnil,min=1,max=100"`
	Email *string `json:"email" binding:"omitnil,email,max=254" validate:"omitnil,email,max=254"`
}

// ListUsersQuery represents pagination query parameters for listing users
type ListUsersQuery struct {
	Limit  int `form:"limit,default=10" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// UserListResponse represents a page of users plus the unpaged total
type UserListResponse struct {
	Users  []*User `json:"users"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
