package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	assert.NotNil(t, logger)
	assert.IsType(t, &zerologLogger{}, logger)
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger)
		level   string
	}{
		{"debug", func(l Logger) { l.Debug("debug message") }, "debug"},
		{"info", func(l Logger) { l.Info("info message") }, "info"},
		{"warn", func(l Logger) { l.Warn("warn message") }, "warn"},
		{"error", func(l Logger) { l.Error("error message") }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(NewLoggerWithWriter(&buf, "debug"))

			assert.Contains(t, buf.String(), tt.level+" message")
			assert.Contains(t, buf.String(), `"level":"`+tt.level+`"`)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"off", zerolog.Disabled},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{" DEBUG ", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.level))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "error")

	logger.Debug("debug should be filtered")
	logger.Info("info should be filtered")
	logger.Error("error should be logged")

	assert.NotContains(t, buf.String(), "debug should be filtered")
	assert.NotContains(t, buf.String(), "info should be filtered")
	assert.Contains(t, buf.String(), "error should be logged")
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "info").
		WithField("template_id", "abc").
		WithField("block_count", 3).
		WithField("pretty", true)

	logger.Info("message with fields")

	out := buf.String()
	assert.Contains(t, out, `"template_id":"abc"`)
	assert.Contains(t, out, `"block_count":3`)
	assert.Contains(t, out, `"pretty":true`)
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "info").WithFields(map[string]interface{}{
		"user_id":  "u1",
		"nil_attr": nil,
		"score":    99.5,
	})

	logger.Info("message with map")

	out := buf.String()
	assert.Contains(t, out, `"user_id":"u1"`)
	assert.Contains(t, out, `"nil_attr":null`)
	assert.Contains(t, out, `"score":99.5`)
}

func TestWithFieldsLeavesParentUntouched(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithWriter(&buf, "info")

	child := parent.WithFields(map[string]interface{}{"scope": "child"})
	parent.Info("from parent")

	assert.NotEqual(t, parent, child)
	assert.NotContains(t, buf.String(), `"scope":"child"`)
}
