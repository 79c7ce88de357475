package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mailcanvas/mailcanvas/internal/domain"
)

// TokenVerifier resolves a bearer token to the user it was issued for
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// AuthConfig holds the configuration for the auth middleware
type AuthConfig struct {
	Verifier TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware backed by the given verifier
func NewAuthMiddleware(verifier TokenVerifier) *AuthConfig {
	return &AuthConfig{
		Verifier: verifier,
	}
}

// RequireAuth creates a middleware that verifies the bearer token and puts
// the user id on the request context
func (ac *AuthConfig) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "Authorization header is required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeUnauthorized(w, "Invalid authorization header format")
				return
			}

			userID, err := ac.Verifier.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := domain.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="mailcanvas"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
