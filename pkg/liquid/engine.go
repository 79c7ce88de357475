package liquid

import (
	"context"
	"fmt"
	"time"

	"github.com/osteele/liquid"
)

// Limits applied to merge-tag rendering
const (
	DefaultRenderTimeout   = 5 * time.Second
	DefaultMaxTemplateSize = 100 * 1024 // 100KB
)

// SecureEngine renders merge tags such as {{ first_name }} in rendered
// email HTML, bounded in input size and rendering time.
type SecureEngine struct {
	timeout time.Duration
	maxSize int
	engine  *liquid.Engine
}

// NewSecureEngine creates an engine with the default limits
func NewSecureEngine() *SecureEngine {
	return NewSecureEngineWithOptions(DefaultRenderTimeout, DefaultMaxTemplateSize)
}

// NewSecureEngineWithOptions creates an engine with custom limits
func NewSecureEngineWithOptions(timeout time.Duration, maxSize int) *SecureEngine {
	return &SecureEngine{
		timeout: timeout,
		maxSize: maxSize,
		engine:  liquid.NewEngine(),
	}
}

// Render substitutes merge tags in content. Rendering stops when ctx is done
// or the engine timeout expires, whichever comes first.
func (s *SecureEngine) Render(ctx context.Context, content string, data map[string]interface{}) (string, error) {
	if len(content) > s.maxSize {
		return "", fmt.Errorf("template size (%d bytes) exceeds maximum allowed size (%d bytes)", len(content), s.maxSize)
	}
	if len(data) == 0 {
		return content, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resultChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errorChan <- fmt.Errorf("panic during liquid rendering: %v", r)
			}
		}()

		rendered, err := s.engine.ParseAndRenderString(content, data)
		if err != nil {
			errorChan <- fmt.Errorf("liquid rendering failed: %w", err)
			return
		}
		resultChan <- rendered
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errorChan:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("liquid rendering stopped after %v: %w", s.timeout, ctx.Err())
	}
}
