package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCandidate UserRole = "candidate"
	RoleAdmin     UserRole = "admin"
)

// User is an account allowed to call the Interview API.
type User struct {
	ID           string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	Name         string     `gorm:"column:name;type:text" json:"name"`
	PasswordHash string     `gorm:"column:password_hash;type:text" json:"-"`
	Role         UserRole   `gorm:"column:role;type:text" json:"role"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	LastSignInAt *time.Time `gorm:"column:last_sign_in_at;type:timestamptz" json:"last_sign_in_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleCandidate
	}
	return nil
}

// UserInfo is the public part of a User, returned on login and kept by the
// client session store.
type UserInfo struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresAt   int64    `json:"expires_at"`
	User        UserInfo `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// TokenClaims are carried by access tokens issued on login.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Role  UserRole `json:"role"`
}
