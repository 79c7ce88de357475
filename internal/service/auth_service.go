package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

const tokenIssuer = "mailcanvas"

var ErrInvalidToken = errors.New("invalid or expired token")

type AuthService struct {
	secret []byte
	logger logger.Logger
	now    func() time.Time
}

type AuthServiceConfig struct {
	// HMAC key used to sign and verify HS256 tokens
	Secret string
	Logger logger.Logger
}

func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth service requires a signing secret")
	}
	return &AuthService{
		secret: []byte(cfg.Secret),
		logger: cfg.Logger,
		now:    time.Now,
	}, nil
}

// AuthenticateUserFromContext returns the user placed in ctx by the auth middleware
func (s *AuthService) AuthenticateUserFromContext(ctx context.Context) (*domain.User, error) {
	userID, ok := ctx.Value(domain.UserIDKey).(string)
	if !ok || userID == "" {
		return nil, &domain.ErrUnauthorized{Message: "user not authenticated"}
	}
	return &domain.User{ID: userID}, nil
}

// GenerateToken signs a bearer token for userID valid for ttl
func (s *AuthService) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.WithField("user_id", userID).Error(fmt.Sprintf("Failed to sign token: %v", err))
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, issuer and expiry and returns the subject
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.WithField("error", err.Error()).Debug("Rejected bearer token")
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
