package http

import (
	"net/http"
	"time"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/pkg/crypto"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// AuthHandler issues bearer tokens in exchange for the shared development
// secret. It is only mounted outside production.
type AuthHandler struct {
	auth      domain.AuthService
	devSecret string
	tokenTTL  time.Duration
	logger    logger.Logger
}

// NewAuthHandler creates an auth handler. devSecret is either the secret
// itself or its bcrypt hash.
func NewAuthHandler(auth domain.AuthService, devSecret string, tokenTTL time.Duration, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		devSecret: devSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth.token", h.handleToken)
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !crypto.CheckSecret(req.Secret, h.devSecret) {
		h.logger.WithField("user_id", req.UserID).Warn("Rejected token request with invalid secret")
		WriteJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.auth.GenerateToken(req.UserID, h.tokenTTL)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to generate token")
		WriteJSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": int(h.tokenTTL.Seconds()),
	})
}
