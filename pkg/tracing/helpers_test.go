package tracing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"
)

type recordingExporter struct {
	mu    sync.Mutex
	spans []*trace.SpanData
}

func (e *recordingExporter) ExportSpan(s *trace.SpanData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spans = append(e.spans, s)
}

func (e *recordingExporter) byName(name string) *trace.SpanData {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.spans {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func withRecorder(t *testing.T) *recordingExporter {
	t.Helper()
	exp := &recordingExporter{}
	trace.RegisterExporter(exp)
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	t.Cleanup(func() { trace.UnregisterExporter(exp) })
	return exp
}

func TestStartServiceSpan(t *testing.T) {
	exp := withRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "TemplateService", "GetTemplate")
	require.NotNil(t, span)
	assert.Same(t, span, trace.FromContext(ctx))
	span.End()

	assert.NotNil(t, exp.byName("TemplateService.GetTemplate"))
}

func TestEndSpan(t *testing.T) {
	exp := withRecorder(t)

	_, ok := trace.StartSpan(context.Background(), "ok")
	EndSpan(ok, nil)
	_, failed := trace.StartSpan(context.Background(), "failed")
	EndSpan(failed, errors.New("boom"))

	assert.Equal(t, int32(trace.StatusCodeOK), exp.byName("ok").Status.Code)
	assert.Equal(t, int32(trace.StatusCodeUnknown), exp.byName("failed").Status.Code)
	assert.Equal(t, "boom", exp.byName("failed").Status.Message)
}

func TestTraceMethodWithResult(t *testing.T) {
	exp := withRecorder(t)

	n, err := TraceMethodWithResult(context.Background(), "svc", "count", func(ctx context.Context) (int, error) {
		assert.NotNil(t, trace.FromContext(ctx))
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = TraceMethodWithResult(context.Background(), "svc", "fail", func(ctx context.Context) (string, error) {
		return "", errors.New("nope")
	})
	assert.EqualError(t, err, "nope")
	assert.Equal(t, "nope", exp.byName("svc.fail").Status.Message)
}

func TestAddAttribute(t *testing.T) {
	exp := withRecorder(t)

	AddAttribute(context.Background(), "ignored", "no span")

	ctx, span := StartServiceSpan(context.Background(), "svc", "attrs")
	AddAttribute(ctx, "template_id", "abc")
	AddAttribute(ctx, "blocks", 4)
	AddAttribute(ctx, "bytes", int64(512))
	AddAttribute(ctx, "cached", true)
	AddAttribute(ctx, "ratio", 0.5)
	span.End()

	attrs := exp.byName("svc.attrs").Attributes
	assert.Equal(t, "abc", attrs["template_id"])
	assert.Equal(t, int64(4), attrs["blocks"])
	assert.Equal(t, int64(512), attrs["bytes"])
	assert.Equal(t, true, attrs["cached"])
	assert.Equal(t, "0.5", attrs["ratio"])
}

func TestMarkSpanError(t *testing.T) {
	exp := withRecorder(t)

	MarkSpanError(context.Background(), errors.New("no span"))

	ctx, span := StartServiceSpan(context.Background(), "svc", "mark")
	MarkSpanError(ctx, nil)
	MarkSpanError(ctx, errors.New("marked"))
	span.End()

	assert.Equal(t, "marked", exp.byName("svc.mark").Status.Message)
}
