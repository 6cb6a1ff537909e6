// Package server provides the HTTP front-end started at the end of boot.
//
// The server wraps an Echo router with request logging, recovery, request ids,
// a /health endpoint and an optional /metrics endpoint. Listen binds the
// socket before reporting readiness so callers can rely on the port being
// open once onReady runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ErrAlreadyListening is returned by a second Listen call.
var ErrAlreadyListening = errors.New("server is already listening")

// HealthResponse is the JSON response for /health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Server is the HTTP front-end.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	service  string
	gatherer prometheus.Gatherer

	mu       sync.Mutex
	instance *http.Server
	listener net.Listener
	onError  func(error)
	done     chan struct{}
	closed   bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServiceName sets the name reported by /health.
func WithServiceName(name string) Option {
	return func(s *Server) { s.service = name }
}

// WithGatherer exposes g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a server with standard middleware and routes.
func New(opts ...Option) *Server {
	s := &Server{
		logger:  zap.NewNop(),
		service: "ignitor",
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(s.logger))

	s.echo = e
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.service,
	})
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Debug("request", fields...)
			return nil
		},
	})
}

// Echo returns the router for registering routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Handler returns the request handler to mount on a custom http.Server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// SetInstance replaces the http.Server used by Listen. A nil Handler on
// srv is filled with this server's handler.
func (s *Server) SetInstance(srv *http.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if srv != nil && srv.Handler == nil {
		srv.Handler = s.echo
	}
	s.instance = srv
}

// Instance returns the http.Server in use, creating the default one lazily.
func (s *Server) Instance() *http.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceLocked()
}

func (s *Server) instanceLocked() *http.Server {
	if s.instance == nil {
		s.instance = &http.Server{
			Handler:           s.echo,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return s.instance
}

// OnError registers fn to receive errors from the background serve loop.
func (s *Server) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Listen binds host:port, starts serving in the background, then calls
// onReady. An empty port picks a free one.
func (s *Server) Listen(host, port string, onReady func()) error {
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrAlreadyListening
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen %s: %w", net.JoinHostPort(host, port), err)
	}

	srv := s.instanceLocked()
	s.listener = ln
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.reportError(fmt.Errorf("serve: %w", err))
		}
	}()

	if onReady != nil {
		onReady()
	}
	return nil
}

func (s *Server) reportError(err error) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()

	if fn != nil {
		fn(err)
		return
	}
	s.logger.Error("http server error", zap.Error(err))
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listening reports whether Listen succeeded and Close has not run.
func (s *Server) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil && !s.closed
}

// Close gracefully stops the server and waits for the serve loop to exit.
// Closing a server that never listened is a no-op.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.listener == nil || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.instance
	done := s.done
	s.mu.Unlock()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("http server closed")
	return nil
}
