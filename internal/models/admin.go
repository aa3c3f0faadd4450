package models

import (
	"time"
)

// Admin is a back-office user and the author of the articles it creates
type Admin struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidRoles defines allowed admin roles
var ValidRoles = map[string]bool{
	"admin":  true,
	"editor": true,
}

// LoginRequest is the submitted login form
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}
