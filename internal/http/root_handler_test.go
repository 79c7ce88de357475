package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestRootHandler(t *testing.T) {
	serve := func(h *RootHandler, path string) *httptest.ResponseRecorder {
		mux := http.NewServeMux()
		h.RegisterRoutes(mux)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("healthy without a database", func(t *testing.T) {
		w := serve(NewRootHandler(nil, "1.4", logger.NewMockLogger(t)), "/healthz")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","version":"1.4"}`, w.Body.String())
	})

	t.Run("healthy database", func(t *testing.T) {
		db := pingFunc(func(context.Context) error { return nil })
		w := serve(NewRootHandler(db, "1.4", logger.NewMockLogger(t)), "/healthz")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		db := pingFunc(func(context.Context) error { return errors.New("connection refused") })
		w := serve(NewRootHandler(db, "1.4", logger.NewMockLogger(t)), "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unavailable")
	})

	t.Run("unknown path", func(t *testing.T) {
		w := serve(NewRootHandler(nil, "1.4", logger.NewMockLogger(t)), "/wp-login.php")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	})
}
