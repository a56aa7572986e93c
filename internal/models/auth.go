package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by this service. Identity and
// session management live in the external auth service; only the role claim
// is interpreted here.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleRecruiter UserRole = "RECRUITER"
)

// JWTClaims represents the JWT payload issued by the identity service.
// The subject is the recruiter (owner) id trusted for every call.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
