package tracing

import (
	"fmt"
	"net/http"
	"strings"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/mailcanvas/mailcanvas/config"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// InitTracing configures sampling, the trace exporter and the metrics
// exporters named in cfg. It does nothing when tracing is disabled.
// codecov:ignore:start
func InitTracing(cfg *config.TracingConfig, log logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if err := initTraceExporter(cfg, log); err != nil {
		return err
	}

	if err := initMetricsExporters(cfg, log); err != nil {
		return err
	}

	if err := RegisterHTTPServerViews(); err != nil {
		return fmt.Errorf("failed to register HTTP server views: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"trace_exporter":   cfg.TraceExporter,
		"metrics_exporter": cfg.MetricsExporter,
	}).Info("OpenCensus initialized")
	return nil
}

func initTraceExporter(cfg *config.TracingConfig, log logger.Logger) error {
	var (
		exporter trace.Exporter
		err      error
	)

	switch cfg.TraceExporter {
	case "jaeger":
		exporter, err = newJaegerExporter(cfg)
	case "zipkin":
		exporter, err = newZipkinExporter(cfg)
	case "stackdriver":
		exporter, err = newStackdriverExporter(cfg, log)
	case "datadog":
		exporter, err = newDatadogExporter(cfg, log)
	case "xray":
		exporter, err = newXRayExporter(cfg)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return err
	}

	trace.RegisterExporter(exporter)
	log.WithField("exporter", cfg.TraceExporter).Info("Trace exporter registered")
	return nil
}

// initMetricsExporters accepts a comma separated list, e.g. "prometheus,datadog"
func initMetricsExporters(cfg *config.TracingConfig, log logger.Logger) error {
	if cfg.MetricsExporter == "none" || cfg.MetricsExporter == "" {
		return nil
	}

	for _, name := range strings.Split(cfg.MetricsExporter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var (
			exporter view.Exporter
			err      error
		)
		switch name {
		case "prometheus":
			exporter, err = newPrometheusExporter(cfg, log)
		case "stackdriver":
			exporter, err = newStackdriverExporter(cfg, log)
		case "datadog":
			exporter, err = newDatadogExporter(cfg, log)
		default:
			return fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}

		view.RegisterExporter(exporter)
		log.WithField("exporter", name).Info("Metrics exporter registered")
	}

	return registerCustomViews()
}

func registerCustomViews() error {
	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	if err := view.Register(RenderViews...); err != nil {
		return fmt.Errorf("failed to register render views: %w", err)
	}
	return nil
}

func newJaegerExporter(cfg *config.TracingConfig) (*jaeger.Exporter, error) {
	if cfg.JaegerEndpoint == "" {
		return nil, fmt.Errorf("Jaeger endpoint is required for Jaeger exporter")
	}

	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		ServiceName:       cfg.ServiceName,
		Process: jaeger.Process{
			ServiceName: cfg.ServiceName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}
	return je, nil
}

func newZipkinExporter(cfg *config.TracingConfig) (*zipkin.Exporter, error) {
	if cfg.ZipkinEndpoint == "" {
		return nil, fmt.Errorf("Zipkin endpoint is required for Zipkin exporter")
	}

	reporter := zipkinhttp.NewReporter(cfg.ZipkinEndpoint)
	return zipkin.NewExporter(reporter, nil), nil
}

// newStackdriverExporter serves both traces and metrics
func newStackdriverExporter(cfg *config.TracingConfig, log logger.Logger) (*stackdriver.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, fmt.Errorf("Stackdriver project ID is required for Stackdriver exporter")
	}

	se, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Error("Stackdriver exporter error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Stackdriver exporter: %w", err)
	}
	return se, nil
}

// newDatadogExporter serves both traces and metrics
func newDatadogExporter(cfg *config.TracingConfig, log logger.Logger) (*datadog.Exporter, error) {
	agentAddr := cfg.DatadogAgentAddress
	if agentAddr == "" {
		agentAddr = cfg.AgentEndpoint
	}
	if agentAddr == "" {
		return nil, fmt.Errorf("Datadog agent address is required for Datadog exporter")
	}

	options := datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: agentAddr,
		StatsAddr: agentAddr,
		Tags:      []string{"env:" + cfg.Environment},
		OnError: func(err error) {
			log.WithField("error", err.Error()).Error("Datadog exporter error")
		},
	}
	if cfg.DatadogAPIKey != "" {
		options.GlobalTags = map[string]interface{}{
			"api_key": cfg.DatadogAPIKey,
		}
	}

	exporter, err := datadog.NewExporter(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datadog exporter: %w", err)
	}
	return exporter, nil
}

func newXRayExporter(cfg *config.TracingConfig) (*aws.Exporter, error) {
	if cfg.XRayRegion == "" {
		return nil, fmt.Errorf("AWS region is required for X-Ray exporter")
	}

	exporter, err := aws.NewExporter(
		aws.WithRegion(cfg.XRayRegion),
		aws.WithVersion("latest"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS X-Ray exporter: %w", err)
	}
	return exporter, nil
}

// newPrometheusExporter also starts the /metrics listener when a port is set
func newPrometheusExporter(cfg *config.TracingConfig, log logger.Logger) (*prometheus.Exporter, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Error("Prometheus exporter error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	if cfg.PrometheusPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", pe)

			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.PrometheusPort),
				Handler: mux,
			}

			log.WithField("port", cfg.PrometheusPort).Info("Starting Prometheus metrics server")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithField("error", err.Error()).Error("Prometheus metrics server stopped")
			}
		}()
	}

	return pe, nil
}

// RegisterHTTPServerViews registers views for HTTP server metrics
func RegisterHTTPServerViews() error {
	return view.Register(
		ochttp.ServerRequestCountView,
		ochttp.ServerRequestBytesView,
		ochttp.ServerResponseBytesView,
		ochttp.ServerLatencyView,
		ochttp.ServerRequestCountByMethod,
		ochttp.ServerResponseCountByStatusCode,
	)
}

// codecov:ignore:end
