package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"

	"github.com/mailcanvas/mailcanvas/config"
	"github.com/mailcanvas/mailcanvas/internal/database"
	"github.com/mailcanvas/mailcanvas/internal/domain"
	httpHandler "github.com/mailcanvas/mailcanvas/internal/http"
	"github.com/mailcanvas/mailcanvas/internal/http/middleware"
	"github.com/mailcanvas/mailcanvas/internal/repository"
	"github.com/mailcanvas/mailcanvas/internal/service"
	"github.com/mailcanvas/mailcanvas/pkg/cache"
	"github.com/mailcanvas/mailcanvas/pkg/liquid"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
	"github.com/mailcanvas/mailcanvas/pkg/mailer"
	"github.com/mailcanvas/mailcanvas/pkg/mailsink"
	"github.com/mailcanvas/mailcanvas/pkg/ratelimiter"
	"github.com/mailcanvas/mailcanvas/pkg/tracing"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetMailer() mailer.Mailer
	GetTemplateRepository() domain.TemplateRepository
	GetInbox() *mailsink.Inbox

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitDB() error
	InitMailer() error
	InitTracing() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	GetActiveRequestCount() int64
}

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB
	mailer mailer.Mailer

	// stops the ocsql connection stats recorder
	stopDBStats func()

	// Dev inbox, set only when DEV_INBOX_ENABLED
	inbox *mailsink.Inbox
	sink  *mailsink.Server

	templateRepo domain.TemplateRepository

	authService     *service.AuthService
	templateService *service.TemplateService
	renderCache     *cache.InMemoryCache[*domain.RenderResult]
	limiter         *ratelimiter.RateLimiter

	mux    *http.ServeMux
	server *http.Server

	serverMu      sync.RWMutex
	serverStarted chan struct{}

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	activeRequests int64
	requestWg      sync.WaitGroup
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithMockMailer configures the app to use a mock mailer
func WithMockMailer(m mailer.Mailer) AppOption {
	return func(a *App) {
		a.mailer = m
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:         cfg,
		logger:         logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:            http.NewServeMux(),
		serverStarted:  make(chan struct{}),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing and metrics exporters
func (a *App) InitTracing() error {
	tracingConfig := &a.config.Tracing

	if err := tracing.InitTracing(tracingConfig, a.logger); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if tracingConfig.Enabled {
		a.logger.WithField("trace_exporter", tracingConfig.TraceExporter).
			WithField("metrics_exporter", tracingConfig.MetricsExporter).
			WithField("sampling_rate", tracingConfig.SamplingProbability).
			Info("Tracing initialized successfully")
	}

	return nil
}

// InitDB opens the database and creates the schema
func (a *App) InitDB() error {
	if a.db != nil {
		return nil
	}

	dbConfig := &a.config.Database
	a.logger.WithField("host", dbConfig.Host).
		WithField("port", dbConfig.Port).
		WithField("dbname", dbConfig.DBName).
		WithField("sslmode", dbConfig.SSLMode).
		Info("Connecting to database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, dbConfig, a.config.Tracing.Enabled)
	if err != nil {
		return err
	}

	if err := database.InitializeDatabase(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	if a.config.Tracing.Enabled {
		a.stopDBStats = ocsql.RecordStats(db, 5*time.Second)
	}

	a.db = db
	return nil
}

// InitMailer picks the test-send transport: the dev inbox when enabled, the
// console in development without SMTP, SMTP otherwise
func (a *App) InitMailer() error {
	if a.mailer != nil {
		return nil
	}

	if a.config.DevInbox.Enabled {
		return a.initDevInbox()
	}

	if a.config.IsDevelopment() && a.config.SMTP.Host == "" {
		a.mailer = mailer.NewConsoleMailer(a.logger)
		a.logger.Info("Using console mailer for development")
		return nil
	}

	a.mailer = mailer.NewSMTPMailer(&mailer.Config{
		SMTPHost:     a.config.SMTP.Host,
		SMTPPort:     a.config.SMTP.Port,
		SMTPUsername: a.config.SMTP.Username,
		SMTPPassword: a.config.SMTP.Password,
		SMTPUseTLS:   a.config.SMTP.UseTLS,
		FromEmail:    a.config.SMTP.FromEmail,
		FromName:     a.config.SMTP.FromName,
	})
	a.logger.WithField("smtp_host", a.config.SMTP.Host).Info("Using SMTP mailer")
	return nil
}

// initDevInbox binds the SMTP sink and points the mailer at it
func (a *App) initDevInbox() error {
	cfg := a.config.DevInbox
	credentials := mailsink.Credentials{Username: cfg.Username, Password: cfg.Password}

	inbox := mailsink.NewInbox(cfg.Capacity)
	sink, err := mailsink.NewServer(mailsink.ServerConfig{
		Host:   cfg.Host,
		Port:   cfg.Port,
		Domain: "localhost",
		Logger: a.logger,
	}, mailsink.NewBackend(inbox, credentials, a.logger))
	if err != nil {
		return err
	}
	if err := sink.Listen(); err != nil {
		return fmt.Errorf("failed to start dev inbox: %w", err)
	}

	host, portStr, err := net.SplitHostPort(sink.Addr())
	if err != nil {
		return fmt.Errorf("invalid dev inbox address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid dev inbox port: %w", err)
	}

	a.inbox = inbox
	a.sink = sink
	a.mailer = mailer.NewSMTPMailer(&mailer.Config{
		SMTPHost:     host,
		SMTPPort:     port,
		SMTPUsername: cfg.Username,
		SMTPPassword: cfg.Password,
		SMTPUseTLS:   false,
		FromEmail:    a.config.SMTP.FromEmail,
		FromName:     a.config.SMTP.FromName,
	})
	a.logger.WithField("address", sink.Addr()).Info("Test sends are captured by the dev inbox")
	return nil
}

func (a *App) InitRepositories() error {
	a.templateRepo = repository.NewTemplateRepository(a.db)
	return nil
}

func (a *App) InitServices() error {
	authService, err := service.NewAuthService(service.AuthServiceConfig{
		Secret: a.config.Security.JWTSecret,
		Logger: a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}
	a.authService = authService

	renderConfig := a.config.Render
	a.renderCache = cache.NewInMemoryCache[*domain.RenderResult](time.Minute)

	a.limiter = ratelimiter.NewRateLimiter(time.Minute)
	a.limiter.SetPolicy(service.SendTestNamespace, renderConfig.SendTestLimit, time.Hour)

	a.templateService = service.NewTemplateService(service.TemplateServiceConfig{
		Repository:         a.templateRepo,
		AuthService:        a.authService,
		Mailer:             a.mailer,
		Merge:              liquid.NewSecureEngineWithOptions(renderConfig.LiquidTimeout, liquid.DefaultMaxTemplateSize),
		Limiter:            a.limiter,
		RenderCache:        a.renderCache,
		RenderCacheTTL:     renderConfig.CacheTTL,
		PreviewConcurrency: renderConfig.PreviewConcurrency,
		Logger:             a.logger,
	})
	return nil
}

func (a *App) InitHandlers() error {
	// Fresh mux so a restart does not register routes twice
	a.mux = http.NewServeMux()

	var pinger httpHandler.Pinger
	if a.db != nil {
		pinger = a.db
	}
	httpHandler.NewRootHandler(pinger, a.config.Version, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewTemplateHandler(a.templateService, a.authService, a.logger).RegisterRoutes(a.mux)

	if !a.config.IsProduction() && a.config.Security.DevAuthSecret != "" {
		httpHandler.NewAuthHandler(a.authService, a.config.Security.DevAuthSecret, a.config.Security.TokenTTL, a.logger).
			RegisterRoutes(a.mux)
		a.logger.Warn("Development token endpoint enabled at /api/auth.token")
	}

	if a.inbox != nil {
		httpHandler.NewInboxHandler(a.inbox, a.authService, a.logger).RegisterRoutes(a.mux)
	}

	return nil
}

// Handler returns the mux wrapped in the middleware chain
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.gracefulShutdownMiddleware(handler)
	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}
	handler = middleware.CORSMiddleware(a.config.Server.CORSOrigins)(handler)
	return handler
}

// Start starts the HTTP server and, when enabled, the dev inbox
func (a *App) Start() error {
	addr := net.JoinHostPort(a.config.Server.Host, strconv.Itoa(a.config.Server.Port))
	a.logger.WithField("address", addr).Info("Server starting")

	a.serverMu.Lock()
	if a.serverStarted != nil {
		select {
		case <-a.serverStarted:
		default:
			close(a.serverStarted)
		}
	}
	a.serverStarted = make(chan struct{})
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := a.server
	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	if a.sink != nil {
		go func() {
			if err := a.sink.Serve(); err != nil {
				a.logger.WithField("error", err.Error()).Error("Dev inbox stopped")
			}
		}()
	}

	var err error
	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		err = server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	} else {
		err = server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, waits for in-flight ones up to the
// configured timeout, then releases resources
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")
	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var shutdownErr error
	if server != nil {
		a.logger.WithField("active_requests", a.GetActiveRequestCount()).Info("Shutting down HTTP server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("failed to shut down http server: %w", err)
		}

		done := make(chan struct{})
		go func() {
			a.requestWg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			a.logger.WithField("active_requests", a.GetActiveRequestCount()).Warn("Shutdown timeout reached, forcing shutdown")
		}
	}

	if err := a.cleanupResources(shutdownCtx); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}
	return shutdownErr
}

func (a *App) cleanupResources(ctx context.Context) error {
	if a.sink != nil {
		if err := a.sink.Shutdown(ctx); err != nil {
			a.logger.WithField("error", err.Error()).Warn("Error stopping dev inbox")
		}
	}
	if a.renderCache != nil {
		a.renderCache.Stop()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.stopDBStats != nil {
		a.stopDBStats()
	}

	if a.db != nil {
		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created. It returns false
// if ctx expires first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting mailcanvas")

	steps := []func() error{
		a.InitTracing,
		a.InitDB,
		a.InitMailer,
		a.InitRepositories,
		a.InitServices,
		a.InitHandlers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

func (a *App) GetConfig() *config.Config {
	return a.config
}

func (a *App) GetLogger() logger.Logger {
	return a.logger
}

func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) GetMailer() mailer.Mailer {
	return a.mailer
}

func (a *App) GetTemplateRepository() domain.TemplateRepository {
	return a.templateRepo
}

// GetInbox returns the dev inbox, or nil when it is disabled
func (a *App) GetInbox() *mailsink.Inbox {
	return a.inbox
}

func (a *App) GetActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks active requests and refuses new ones
// once shutdown has started
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		atomic.AddInt64(&a.activeRequests, 1)
		a.requestWg.Add(1)
		defer func() {
			atomic.AddInt64(&a.activeRequests, -1)
			a.requestWg.Done()
		}()

		next.ServeHTTP(w, r)
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
