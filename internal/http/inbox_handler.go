package http

import (
	"net/http"

	"github.com/mailcanvas/mailcanvas/internal/http/middleware"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
	"github.com/mailcanvas/mailcanvas/pkg/mailsink"
)

// InboxReader is the read side of the development SMTP sink
type InboxReader interface {
	List() []mailsink.Message
	Clear()
}

// InboxHandler exposes the messages captured by the development SMTP sink
type InboxHandler struct {
	inbox    InboxReader
	verifier middleware.TokenVerifier
	logger   logger.Logger
}

func NewInboxHandler(inbox InboxReader, verifier middleware.TokenVerifier, logger logger.Logger) *InboxHandler {
	return &InboxHandler{
		inbox:    inbox,
		verifier: verifier,
		logger:   logger,
	}
}

func (h *InboxHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.NewAuthMiddleware(h.verifier).RequireAuth()

	mux.Handle("/api/inbox.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/inbox.clear", requireAuth(http.HandlerFunc(h.handleClear)))
}

func (h *InboxHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	messages := h.inbox.List()
	if messages == nil {
		messages = []mailsink.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

func (h *InboxHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.inbox.Clear()
	h.logger.Debug("Dev inbox cleared")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
