package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/internal/domain/mocks"
)

func TestNewAuthMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockAuthService(ctrl)

	middleware := NewAuthMiddleware(verifier)

	assert.Equal(t, verifier, middleware.Verifier)
}

func TestRequireAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockAuthService(ctrl)
	authConfig := NewAuthMiddleware(verifier)

	var seenUserID interface{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = r.Context().Value(domain.UserIDKey)
		w.WriteHeader(http.StatusOK)
	})
	handler := authConfig.RequireAuth()(next)

	t.Run("missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header is required")
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("invalid authorization header format", func(t *testing.T) {
		for _, header := range []string{"InvalidFormat", "Basic abc", "Bearer ", "Bearer"} {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code, header)
			assert.Contains(t, w.Body.String(), "Invalid authorization header format", header)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		verifier.EXPECT().VerifyToken("bad-token").Return("", errors.New("signature is invalid"))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
		assert.NotContains(t, w.Body.String(), "signature")
	})

	t.Run("valid token", func(t *testing.T) {
		seenUserID = nil
		verifier.EXPECT().VerifyToken("good-token").Return("user-42", nil)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "bearer good-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-42", seenUserID)
	})
}
