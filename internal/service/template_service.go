package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/pkg/blocks"
	"github.com/mailcanvas/mailcanvas/pkg/cache"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
	"github.com/mailcanvas/mailcanvas/pkg/mailer"
	"github.com/mailcanvas/mailcanvas/pkg/ratelimiter"
	"github.com/mailcanvas/mailcanvas/pkg/tracing"
)

const (
	// SendTestNamespace is the rate limiter namespace for test sends
	SendTestNamespace = "send_test"

	previewLength             = 140
	defaultPreviewConcurrency = 8
	defaultRenderCacheTTL     = 10 * time.Minute
)

// MergeRenderer substitutes merge tags such as {{ name }} in rendered HTML
type MergeRenderer interface {
	Render(ctx context.Context, content string, data map[string]interface{}) (string, error)
}

type TemplateService struct {
	repo               domain.TemplateRepository
	authService        domain.AuthService
	mailer             mailer.Mailer
	merge              MergeRenderer
	limiter            ratelimiter.Limiter
	renders            cache.Cache[*domain.RenderResult]
	renderTTL          time.Duration
	previewConcurrency int
	logger             logger.Logger
}

type TemplateServiceConfig struct {
	Repository         domain.TemplateRepository
	AuthService        domain.AuthService
	Mailer             mailer.Mailer
	Merge              MergeRenderer
	Limiter            ratelimiter.Limiter
	RenderCache        cache.Cache[*domain.RenderResult]
	RenderCacheTTL     time.Duration
	PreviewConcurrency int
	Logger             logger.Logger
}

func NewTemplateService(cfg TemplateServiceConfig) *TemplateService {
	if cfg.PreviewConcurrency <= 0 {
		cfg.PreviewConcurrency = defaultPreviewConcurrency
	}
	if cfg.RenderCacheTTL <= 0 {
		cfg.RenderCacheTTL = defaultRenderCacheTTL
	}
	return &TemplateService{
		repo:               cfg.Repository,
		authService:        cfg.AuthService,
		mailer:             cfg.Mailer,
		merge:              cfg.Merge,
		limiter:            cfg.Limiter,
		renders:            cfg.RenderCache,
		renderTTL:          cfg.RenderCacheTTL,
		previewConcurrency: cfg.PreviewConcurrency,
		logger:             cfg.Logger,
	}
}

func (s *TemplateService) ListTemplates(ctx context.Context) ([]*domain.TemplateSummary, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "ListTemplates")
	defer tracing.EndSpan(span, nil)

	user, err := s.authService.AuthenticateUserFromContext(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	templates, err := s.repo.ListTemplates(ctx, user.ID)
	if err != nil {
		s.logger.WithField("user_id", user.ID).Error(fmt.Sprintf("Failed to list templates: %v", err))
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	tracing.AddAttribute(ctx, "templates.count", len(templates))

	summaries := make([]*domain.TemplateSummary, len(templates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.previewConcurrency)
	for i, template := range templates {
		i, template := i, template
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := s.render(gctx, template.Content)
			if err != nil {
				return fmt.Errorf("template %s: %w", template.ID, err)
			}
			summaries[i] = &domain.TemplateSummary{
				Template:   template,
				BlockCount: len(result.Blocks),
				Preview:    preview(result.Text),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.WithField("user_id", user.ID).Error(fmt.Sprintf("Failed to build template previews: %v", err))
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to build template previews: %w", err)
	}

	return summaries, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "GetTemplate")
	defer tracing.EndSpan(span, nil)
	tracing.AddAttribute(ctx, "template_id", id)

	user, err := s.authService.AuthenticateUserFromContext(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	template, err := s.repo.GetTemplateByID(ctx, user.ID, id)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to get template: %v", err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

func (s *TemplateService) CreateTemplate(ctx context.Context, name string, content *string) (*domain.Template, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "CreateTemplate")
	defer tracing.EndSpan(span, nil)

	user, err := s.authService.AuthenticateUserFromContext(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	template := &domain.Template{
		ID:      uuid.New().String(),
		UserID:  user.ID,
		Name:    name,
		Content: content,
	}
	tracing.AddAttribute(ctx, "template_id", template.ID)

	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to create template: %v", err))
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return template, nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, id, name, content string) (*domain.Template, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "UpdateTemplate")
	defer tracing.EndSpan(span, nil)
	tracing.AddAttribute(ctx, "template_id", id)

	user, err := s.authService.AuthenticateUserFromContext(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	template, err := s.repo.GetTemplateByID(ctx, user.ID, id)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to check if template exists: %v", err))
		return nil, fmt.Errorf("failed to check if template exists: %w", err)
	}

	template.Name = name
	template.Content = &content

	if err := s.repo.UpdateTemplate(ctx, template); err != nil {
		tracing.MarkSpanError(ctx, err)
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to update template: %v", err))
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return template, nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "DeleteTemplate")
	defer tracing.EndSpan(span, nil)
	tracing.AddAttribute(ctx, "template_id", id)

	user, err := s.authService.AuthenticateUserFromContext(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return fmt.Errorf("failed to authenticate user: %w", err)
	}

	if err := s.repo.DeleteTemplate(ctx, user.ID, id); err != nil {
		tracing.MarkSpanError(ctx, err)
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to delete template: %v", err))
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

// RenderTemplate normalizes content, renders it and, when data is given,
// substitutes merge tags in the HTML and text
func (s *TemplateService) RenderTemplate(ctx context.Context, content *string, data map[string]interface{}) (*domain.RenderResult, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "RenderTemplate")
	defer tracing.EndSpan(span, nil)

	if _, err := s.authService.AuthenticateUserFromContext(ctx); err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	result, err := s.renderWithData(ctx, content, data)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	return result, nil
}

// SendTest renders a stored template and mails it to a single address
func (s *TemplateService) SendTest(ctx context.Context, req *domain.SendTestRequest) error {
	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "SendTest")
	defer tracing.EndSpan(span, nil)
	tracing.AddAttribute(ctx, "template_id", req.ID)

	user, err := s.authService.AuthenticateUserFromContext(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return fmt.Errorf("failed to authenticate user: %w", err)
	}

	if !s.limiter.Allow(SendTestNamespace, user.ID) {
		err := &domain.ErrRateLimited{
			Action:     SendTestNamespace,
			RetryAfter: int(s.limiter.RetryAfter(SendTestNamespace, user.ID).Seconds()),
		}
		s.logger.WithField("user_id", user.ID).Warn("Test send rate limit exceeded")
		tracing.MarkSpanError(ctx, err)
		return err
	}

	template, err := s.repo.GetTemplateByID(ctx, user.ID, req.ID)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return err
		}
		s.logger.WithField("template_id", req.ID).Error(fmt.Sprintf("Failed to get template: %v", err))
		return fmt.Errorf("failed to get template: %w", err)
	}

	result, err := s.renderWithData(ctx, template.Content, req.Data)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return err
	}

	subject := req.Subject
	if subject == "" {
		subject = "[Test] " + template.Name
	}

	msg := mailer.Message{
		To:      req.To,
		Subject: subject,
		HTML:    result.HTML,
		Text:    result.Text,
	}
	if err := s.mailer.SendTest(ctx, msg); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"template_id": req.ID,
			"to":          req.To,
		}).Error(fmt.Sprintf("Failed to send test email: %v", err))
		tracing.MarkSpanError(ctx, err)
		return fmt.Errorf("failed to send test email: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"template_id": req.ID,
		"to":          req.To,
	}).Info("Test email sent")
	return nil
}

func (s *TemplateService) renderWithData(ctx context.Context, content *string, data map[string]interface{}) (*domain.RenderResult, error) {
	cached, err := s.render(ctx, content)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return cached, nil
	}

	merged, err := s.merge.Render(ctx, cached.HTML, escapeMergeData(data))
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("failed to merge template data: %v", err))
	}
	text, err := blocks.PlainText(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to build plain text: %w", err)
	}

	result := *cached
	result.HTML = merged
	result.Text = text
	return &result, nil
}

// escapeMergeData copies data with every string escaped for HTML
// attributes, so merged values land in the markup as text.
func escapeMergeData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = escapeMergeValue(v)
	}
	return out
}

func escapeMergeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return blocks.EscapeAttr(val)
	case map[string]interface{}:
		return escapeMergeData(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = escapeMergeValue(item)
		}
		return out
	default:
		return v
	}
}

// render returns the cached render of content, computing it on a miss.
// The result is shared and must not be modified.
func (s *TemplateService) render(ctx context.Context, content *string) (*domain.RenderResult, error) {
	var raw string
	if content != nil {
		raw = *content
	}
	key := cache.Key("render", raw)

	start := time.Now()
	if result, ok := s.renders.Get(key); ok {
		tracing.RecordRender(ctx, "cache", time.Since(start), len(result.HTML))
		return result, nil
	}

	result, err := s.renders.GetOrSet(key, s.renderTTL, func() (*domain.RenderResult, error) {
		return renderDocument(content)
	})
	if err != nil {
		return nil, err
	}
	tracing.RecordRender(ctx, "fresh", time.Since(start), len(result.HTML))
	return result, nil
}

func renderDocument(content *string) (*domain.RenderResult, error) {
	list := blocks.ParseDocument(content)
	html := blocks.Render(list)

	text, err := blocks.PlainText(html)
	if err != nil {
		return nil, fmt.Errorf("failed to build plain text: %w", err)
	}
	stats, err := blocks.Inspect(html)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect html: %w", err)
	}

	return &domain.RenderResult{
		Blocks: list,
		HTML:   html,
		Text:   text,
		Stats:  stats,
	}, nil
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:previewLength])) + "…"
}
