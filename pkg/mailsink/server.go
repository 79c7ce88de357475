package mailsink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// Server is a development SMTP server that captures test sends instead of
// relaying them
type Server struct {
	server *smtp.Server
	logger logger.Logger
	addr   string

	mu       sync.Mutex
	listener net.Listener
}

// ServerConfig holds the configuration for the SMTP sink
type ServerConfig struct {
	Host   string
	Port   int
	Domain string
	Logger logger.Logger
}

// NewServer creates a sink. It never offers TLS, so it refuses to bind to
// anything but a loopback host when credentials are set.
func NewServer(cfg ServerConfig, backend *Backend) (*Server, error) {
	if backend.credentials.required() && !isLoopback(cfg.Host) {
		return nil, fmt.Errorf("dev inbox: authenticated sink must listen on a loopback address, got %q", cfg.Host)
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	s := smtp.NewServer(backend)
	s.Addr = addr
	s.Domain = cfg.Domain
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.MaxMessageBytes = 10 * 1024 * 1024
	s.MaxRecipients = 50
	s.AllowInsecureAuth = true

	return &Server{
		server: s,
		logger: cfg.Logger,
		addr:   addr,
	}, nil
}

// Listen binds the listening socket. Port 0 picks a free port, see Addr.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.logger.WithField("addr", l.Addr().String()).Info("Dev inbox SMTP server listening")
	return nil
}

// Addr is the bound address once Listen succeeded, the configured one before
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Serve blocks until the server is closed. It listens first if needed.
func (s *Server) Serve() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	if l == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		l = s.listener
		s.mu.Unlock()
	}

	if err := s.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
		return fmt.Errorf("SMTP server error: %w", err)
	}
	return nil
}

// Shutdown closes the server or gives up when ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down dev inbox SMTP server")

	done := make(chan error, 1)
	go func() {
		done <- s.server.Shutdown(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.WithField("error", err.Error()).Error("Error during SMTP server shutdown")
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Warn("SMTP server shutdown timeout exceeded")
		return ctx.Err()
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
