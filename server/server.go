package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/internal/logger"
	"github.com/sartorproj/salesforecast/internal/metrics"
	"github.com/sartorproj/salesforecast/pipeline"
)

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RequestTimeout bounds a single pipeline run; 0 leaves it unbounded.
	RequestTimeout  time.Duration
	MaxObservations int
	// MetricsPath is where metrics are served; empty disables the route.
	MetricsPath string
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return ConfigFrom(config.Default())
}

// ConfigFrom extracts the server section of c.
func ConfigFrom(c *config.Config) Config {
	cfg := Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		RequestTimeout:  c.Server.RequestTimeout,
		MaxObservations: c.Server.MaxObservations,
	}
	if c.Metrics.Enabled {
		cfg.MetricsPath = c.Metrics.Path
	}
	return cfg
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and pipeline logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records request and pipeline metrics on rec and serves g on the
// metrics path.
func WithMetrics(rec *metrics.Recorder, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.rec = rec
		s.gatherer = g
	}
}

// Server wraps an echo instance serving forecasts.
type Server struct {
	echo     *echo.Echo
	config   Config
	options  pipeline.Options
	log      *logger.Logger
	rec      *metrics.Recorder
	gatherer prometheus.Gatherer
	validate *validator.Validate
}

// New creates a server whose requests start from opts.
func New(cfg Config, opts pipeline.Options, options ...Option) *Server {
	s := &Server{
		config:   cfg,
		options:  opts,
		log:      logger.Nop(),
		validate: config.NewValidator(),
	}
	for _, o := range options {
		o(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.HTTPErrorHandler = s.handleError

	e.Use(s.requestLogging())
	e.Use(s.recover())

	api := e.Group("/api/v1")
	api.POST("/forecast", s.forecast)
	e.GET("/healthz", s.health)

	if cfg.MetricsPath != "" && s.gatherer != nil {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.echo = e
	return s
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.echo.Listener = ln

	go func() {
		s.log.Info("http server listening", logger.String("addr", ln.Addr().String()))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", logger.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.echo.Listener == nil {
		return nil
	}
	return s.echo.Listener.Addr()
}

// Stop gracefully shuts down the server within the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP lets the server be used as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
