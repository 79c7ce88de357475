package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/mailcanvas/mailcanvas/pkg/blocks"
)

//go:generate mockgen -destination mocks/mock_template_service.go -package mocks github.com/mailcanvas/mailcanvas/internal/domain TemplateService
//go:generate mockgen -destination mocks/mock_template_repository.go -package mocks github.com/mailcanvas/mailcanvas/internal/domain TemplateRepository

const (
	MaxTemplateNameLength = 255
	// Stored documents larger than this are rejected on write
	MaxTemplateContentBytes = 2 << 20
)

// Template is a stored email template. Content holds either a serialized
// block array or, for templates created from raw HTML, the HTML itself.
type Template struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Content   *string   `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Blocks decodes Content into a block tree. It never fails; unreadable
// content becomes a single text block.
func (t *Template) Blocks() []blocks.Block {
	return blocks.ParseDocument(t.Content)
}

// TemplateSummary is a list entry with a short plain-text preview
type TemplateSummary struct {
	*Template
	BlockCount int    `json:"block_count"`
	Preview    string `json:"preview"`
}

// TemplateDetail is what the editor needs to open a template
type TemplateDetail struct {
	Template *Template      `json:"template"`
	Blocks   []blocks.Block `json:"blocks"`
	HTML     string         `json:"html"`
}

// RenderResult is the output of rendering a document
type RenderResult struct {
	Blocks []blocks.Block `json:"blocks"`
	HTML   string         `json:"html"`
	Text   string         `json:"text"`
	Stats  blocks.Stats   `json:"stats"`
}

func validateName(name string, prefix string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError(prefix + ": name is required")
	}
	if len(name) > MaxTemplateNameLength {
		return "", NewValidationError(fmt.Sprintf("%s: name length must be between 1 and %d", prefix, MaxTemplateNameLength))
	}
	return name, nil
}

func validateID(id string, prefix string) error {
	if id == "" {
		return NewValidationError(prefix + ": id is required")
	}
	if !govalidator.IsUUID(id) {
		return NewValidationError(prefix + ": id must be a valid UUID")
	}
	return nil
}

// documentContent picks the stored content from a request carrying either a
// block array or raw content. Blocks are normalized before serializing.
func documentContent(rawBlocks json.RawMessage, content *string, prefix string) (*string, error) {
	hasBlocks := len(rawBlocks) > 0 && string(rawBlocks) != "null"
	if hasBlocks && content != nil {
		return nil, NewValidationError(prefix + ": provide either blocks or content, not both")
	}

	if hasBlocks {
		list := blocks.ParseDocument(strPtr(string(rawBlocks)))
		serialized, err := blocks.Serialize(list)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prefix, err)
		}
		content = &serialized
	}

	if content != nil && len(*content) > MaxTemplateContentBytes {
		return nil, NewValidationError(fmt.Sprintf("%s: content exceeds %d bytes", prefix, MaxTemplateContentBytes))
	}
	return content, nil
}

func strPtr(s string) *string {
	return &s
}

// Request/Response types
type CreateTemplateRequest struct {
	Name    string          `json:"name"`
	Content *string         `json:"content,omitempty"`
	Blocks  json.RawMessage `json:"blocks,omitempty"`
}

func (r *CreateTemplateRequest) Validate() (name string, content *string, err error) {
	const prefix = "invalid create template request"

	if name, err = validateName(r.Name, prefix); err != nil {
		return "", nil, err
	}
	if content, err = documentContent(r.Blocks, r.Content, prefix); err != nil {
		return "", nil, err
	}
	return name, content, nil
}

type GetTemplateRequest struct {
	ID string `json:"id"`
}

func (r *GetTemplateRequest) FromURLParams(queryParams url.Values) error {
	r.ID = queryParams.Get("id")
	return validateID(r.ID, "invalid get template request")
}

type UpdateTemplateRequest struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Content *string         `json:"content,omitempty"`
	Blocks  json.RawMessage `json:"blocks,omitempty"`
}

func (r *UpdateTemplateRequest) Validate() (id string, name string, content string, err error) {
	const prefix = "invalid update template request"

	if err = validateID(r.ID, prefix); err != nil {
		return "", "", "", err
	}
	if name, err = validateName(r.Name, prefix); err != nil {
		return "", "", "", err
	}
	doc, err := documentContent(r.Blocks, r.Content, prefix)
	if err != nil {
		return "", "", "", err
	}
	if doc == nil {
		return "", "", "", NewValidationError(prefix + ": blocks or content is required")
	}
	return r.ID, name, *doc, nil
}

type DeleteTemplateRequest struct {
	ID string `json:"id"`
}

func (r *DeleteTemplateRequest) Validate() error {
	return validateID(r.ID, "invalid delete template request")
}

// RenderTemplateRequest renders an unsaved document. Data, when present,
// is merged into the HTML as liquid variables.
type RenderTemplateRequest struct {
	Content *string                `json:"content,omitempty"`
	Blocks  json.RawMessage        `json:"blocks,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (r *RenderTemplateRequest) Validate() (*string, error) {
	content, err := documentContent(r.Blocks, r.Content, "invalid render template request")
	if err != nil {
		return nil, err
	}
	return content, nil
}

type SendTestRequest struct {
	ID      string                 `json:"id"`
	To      string                 `json:"to"`
	Subject string                 `json:"subject,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (r *SendTestRequest) Validate() error {
	const prefix = "invalid send test request"

	if err := validateID(r.ID, prefix); err != nil {
		return err
	}
	r.To = strings.TrimSpace(r.To)
	if r.To == "" {
		return NewValidationError(prefix + ": to is required")
	}
	if !govalidator.IsEmail(r.To) {
		return NewValidationError(prefix + ": to must be a valid email address")
	}
	if len(r.Subject) > MaxTemplateNameLength {
		return NewValidationError(fmt.Sprintf("%s: subject length must be at most %d", prefix, MaxTemplateNameLength))
	}
	return nil
}

// TemplateService is used by the HTTP layer and the editor. Every method
// acts on behalf of the user authenticated in ctx.
type TemplateService interface {
	ListTemplates(ctx context.Context) ([]*TemplateSummary, error)

	// GetTemplate returns ErrTemplateNotFound for unknown ids and for
	// templates owned by another user
	GetTemplate(ctx context.Context, id string) (*Template, error)

	// CreateTemplate stores content as given, e.g. raw HTML from an import
	CreateTemplate(ctx context.Context, name string, content *string) (*Template, error)

	UpdateTemplate(ctx context.Context, id, name, content string) (*Template, error)

	DeleteTemplate(ctx context.Context, id string) error

	RenderTemplate(ctx context.Context, content *string, data map[string]interface{}) (*RenderResult, error)

	// SendTest renders the stored template and mails it to a single address
	SendTest(ctx context.Context, req *SendTestRequest) error
}

type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template *Template) error
	GetTemplateByID(ctx context.Context, userID, id string) (*Template, error)
	ListTemplates(ctx context.Context, userID string) ([]*Template, error)

	// UpdateTemplate sets name, content and updated_at
	UpdateTemplate(ctx context.Context, template *Template) error

	DeleteTemplate(ctx context.Context, userID, id string) error
}

// ErrTemplateNotFound is returned when a template is not found
type ErrTemplateNotFound struct {
	Message string
}

func (e *ErrTemplateNotFound) Error() string {
	return e.Message
}
