package middleware

import (
	"net/http"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// TracingMiddleware wraps every request in an OpenCensus server span named
// after the RPC method, e.g. "POST /api/templates.render"
func TracingMiddleware(next http.Handler) http.Handler {
	annotated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if span := trace.FromContext(r.Context()); span != nil {
			span.AddAttributes(
				trace.StringAttribute("http.method", r.Method),
				trace.StringAttribute("http.path", r.URL.Path),
			)
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				span.AddAttributes(trace.StringAttribute("http.request_id", requestID))
			}
			w = &statusRecorder{ResponseWriter: w, span: span}
		}
		next.ServeHTTP(w, r)
	})

	return &ochttp.Handler{
		Handler: annotated,
		FormatSpanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Path
		},
		IsPublicEndpoint: true,
	}
}

// statusRecorder marks the span as failed for 4xx and 5xx responses
type statusRecorder struct {
	http.ResponseWriter
	span *trace.Span
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.span.AddAttributes(trace.Int64Attribute("http.status_code", int64(code)))
	if code >= 400 {
		sr.span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnknown,
			Message: http.StatusText(code),
		})
	}
	sr.ResponseWriter.WriteHeader(code)
}

var _ http.ResponseWriter = (*statusRecorder)(nil)
