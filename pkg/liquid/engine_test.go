package liquid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureEngine_Render(t *testing.T) {
	engine := NewSecureEngine()
	ctx := context.Background()

	t.Run("substitutes merge tags", func(t *testing.T) {
		out, err := engine.Render(ctx, `<td>Hello {{ first_name }}</td>`, map[string]interface{}{"first_name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, `<td>Hello Ada</td>`, out)
	})

	t.Run("no data leaves content untouched", func(t *testing.T) {
		out, err := engine.Render(ctx, `Hello {{ first_name }}`, nil)
		require.NoError(t, err)
		assert.Equal(t, `Hello {{ first_name }}`, out)
	})

	t.Run("filters and conditionals", func(t *testing.T) {
		out, err := engine.Render(ctx, `{% if vip %}{{ name | upcase }}{% endif %}`, map[string]interface{}{"vip": true, "name": "ada"})
		require.NoError(t, err)
		assert.Equal(t, "ADA", out)
	})

	t.Run("syntax errors are returned", func(t *testing.T) {
		_, err := engine.Render(ctx, `{% if %}`, map[string]interface{}{"a": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "liquid rendering failed")
	})

	t.Run("oversized templates are rejected", func(t *testing.T) {
		small := NewSecureEngineWithOptions(time.Second, 10)
		_, err := small.Render(ctx, strings.Repeat("x", 11), map[string]interface{}{"a": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds maximum allowed size")
	})

	t.Run("cancelled context stops rendering", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		content := `{% for i in (1..100000) %}{% for j in (1..1000) %}x{% endfor %}{% endfor %}`

		_, err := engine.Render(cancelled, content, map[string]interface{}{"a": 1})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
