package http

import (
	"net/http"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/internal/http/middleware"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

type TemplateHandler struct {
	service  domain.TemplateService
	verifier middleware.TokenVerifier
	logger   logger.Logger
}

func NewTemplateHandler(service domain.TemplateService, verifier middleware.TokenVerifier, logger logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.NewAuthMiddleware(h.verifier).RequireAuth()

	// RPC-style endpoints with dot notation
	mux.Handle("/api/templates.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/templates.get", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/templates.create", requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("/api/templates.update", requireAuth(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("/api/templates.delete", requireAuth(http.HandlerFunc(h.handleDelete)))
	mux.Handle("/api/templates.render", requireAuth(http.HandlerFunc(h.handleRender)))
	mux.Handle("/api/templates.sendTest", requireAuth(http.HandlerFunc(h.handleSendTest)))
}

func (h *TemplateHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	templates, err := h.service.ListTemplates(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list templates")
		return
	}
	if templates == nil {
		templates = []*domain.TemplateSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
	})
}

func (h *TemplateHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetTemplateRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.GetTemplate(r.Context(), req.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get template")
		return
	}

	rendered, err := h.service.RenderTemplate(r.Context(), template.Content, nil)
	if err != nil {
		writeServiceError(w, h.logger.WithField("template_id", template.ID), err, "render template")
		return
	}

	writeJSON(w, http.StatusOK, domain.TemplateDetail{
		Template: template,
		Blocks:   rendered.Blocks,
		HTML:     rendered.HTML,
	})
}

func (h *TemplateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CreateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WithField("error", err.Error()).Debug("Failed to decode request body")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name, content, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.CreateTemplate(r.Context(), name, content)
	if err != nil {
		writeServiceError(w, h.logger, err, "create template")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.UpdateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WithField("error", err.Error()).Debug("Failed to decode request body")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, name, content, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.UpdateTemplate(r.Context(), id, name, content)
	if err != nil {
		writeServiceError(w, h.logger.WithField("template_id", id), err, "update template")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.DeleteTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WithField("error", err.Error()).Debug("Failed to decode request body")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTemplate(r.Context(), req.ID); err != nil {
		writeServiceError(w, h.logger.WithField("template_id", req.ID), err, "delete template")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleRender renders an unsaved document, optionally merging preview data
func (h *TemplateHandler) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.RenderTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WithField("error", err.Error()).Debug("Failed to decode request body")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	content, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.RenderTemplate(r.Context(), content, req.Data)
	if err != nil {
		writeServiceError(w, h.logger, err, "render template")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TemplateHandler) handleSendTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.SendTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WithField("error", err.Error()).Debug("Failed to decode request body")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SendTest(r.Context(), &req); err != nil {
		writeServiceError(w, h.logger.WithField("template_id", req.ID), err, "send test email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
