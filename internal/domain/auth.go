package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_auth_service.go -package mocks github.com/mailcanvas/mailcanvas/internal/domain AuthService

type contextKey string

const UserIDKey contextKey = "user_id"

// User is the authenticated caller. Accounts live outside this service;
// only the subject of the bearer token is known.
type User struct {
	ID string `json:"id"`
}

// ContextWithUserID returns a child context carrying the user ID
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

type AuthService interface {
	// AuthenticateUserFromContext returns ErrUnauthorized when ctx carries no user
	AuthenticateUserFromContext(ctx context.Context) (*User, error)

	GenerateToken(userID string, ttl time.Duration) (string, error)

	// VerifyToken returns the token subject
	VerifyToken(token string) (string, error)
}

type TokenRequest struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
}

func (r *TokenRequest) Validate() error {
	if r.UserID == "" {
		return NewValidationError("invalid token request: user_id is required")
	}
	if len(r.UserID) > 64 {
		return NewValidationError("invalid token request: user_id length must be between 1 and 64")
	}
	if r.Secret == "" {
		return NewValidationError("invalid token request: secret is required")
	}
	return nil
}
