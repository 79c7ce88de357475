package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailcanvas/mailcanvas/internal/domain/mocks"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
	"github.com/mailcanvas/mailcanvas/pkg/mailsink"
)

func TestInboxHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockAuthService(ctrl)
	verifier.EXPECT().VerifyToken("dev-token").Return("user-1", nil).AnyTimes()

	inbox := mailsink.NewInbox(10)
	inbox.Add("noreply@mailcanvas.local", []string{"qa@example.com"}, []byte("Subject: [Test] Welcome\r\n\r\nHello\r\n"))

	mux := http.NewServeMux()
	NewInboxHandler(inbox, verifier, logger.NewMockLogger(t)).RegisterRoutes(mux)

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	t.Run("requires auth", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/inbox.list", "").Code)
	})

	t.Run("lists captured messages", func(t *testing.T) {
		w := do(http.MethodGet, "/api/inbox.list", "dev-token")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Messages []mailsink.Message `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "[Test] Welcome", body.Messages[0].Subject)
		assert.Equal(t, []string{"qa@example.com"}, body.Messages[0].To)
	})

	t.Run("clear", func(t *testing.T) {
		assert.Equal(t, http.StatusMethodNotAllowed, do(http.MethodGet, "/api/inbox.clear", "dev-token").Code)

		w := do(http.MethodPost, "/api/inbox.clear", "dev-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, inbox.Len())

		w = do(http.MethodGet, "/api/inbox.list", "dev-token")
		assert.JSONEq(t, `{"messages":[]}`, w.Body.String())
	})
}
