package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailcanvas/mailcanvas/internal/domain/mocks"
	"github.com/mailcanvas/mailcanvas/pkg/crypto"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

func postJSON(t *testing.T, mux *http.ServeMux, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_HandleToken(t *testing.T) {
	setup := func(t *testing.T, devSecret string) (*mocks.MockAuthService, *http.ServeMux) {
		ctrl := gomock.NewController(t)
		auth := mocks.NewMockAuthService(ctrl)
		mux := http.NewServeMux()
		NewAuthHandler(auth, devSecret, time.Hour, logger.NewMockLogger(t)).RegisterRoutes(mux)
		return auth, mux
	}

	t.Run("plain secret", func(t *testing.T) {
		auth, mux := setup(t, "let-me-in")
		auth.EXPECT().GenerateToken("user-1", time.Hour).Return("signed-token", nil)

		w := postJSON(t, mux, "/api/auth.token", map[string]string{"user_id": "user-1", "secret": "let-me-in"})
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "signed-token", body["token"])
		assert.Equal(t, float64(3600), body["expires_in"])
	})

	t.Run("bcrypt hashed secret", func(t *testing.T) {
		hash, err := crypto.HashSecret("let-me-in")
		require.NoError(t, err)
		auth, mux := setup(t, hash)
		auth.EXPECT().GenerateToken("user-1", time.Hour).Return("signed-token", nil)

		w := postJSON(t, mux, "/api/auth.token", map[string]string{"user_id": "user-1", "secret": "let-me-in"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, mux := setup(t, "let-me-in")
		w := postJSON(t, mux, "/api/auth.token", map[string]string{"user_id": "user-1", "secret": "guess"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, mux := setup(t, "let-me-in")
		w := postJSON(t, mux, "/api/auth.token", map[string]string{"secret": "let-me-in"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("signing failure", func(t *testing.T) {
		auth, mux := setup(t, "let-me-in")
		auth.EXPECT().GenerateToken("user-1", time.Hour).Return("", errors.New("boom"))

		w := postJSON(t, mux, "/api/auth.token", map[string]string{"user_id": "user-1", "secret": "let-me-in"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("get is not allowed", func(t *testing.T) {
		_, mux := setup(t, "let-me-in")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth.token", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
