package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an admin.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResult is what the auth service hands back on success.
type LoginResult struct {
	Token     string
	ExpiresIn int64
	Admin     AdminInfo
	IssuedAt  time.Time
}

// AdminInfo describes the authenticated admin in responses.
type AdminInfo struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"fullName"`
	Role       AdminRole `json:"role"`
	Department string    `json:"department,omitempty"`
}

// JWTClaims represents the JWT payload for admin tokens.
type JWTClaims struct {
	AdminID    string    `json:"admin_id"`
	Username   string    `json:"username"`
	Role       AdminRole `json:"role"`
	Department string    `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Info projects the claims into the response shape.
func (c *JWTClaims) Info() AdminInfo {
	return AdminInfo{
		ID:         c.AdminID,
		Username:   c.Username,
		Role:       c.Role,
		Department: c.Department,
	}
}
