// Package sink implements a local ingestion endpoint that accepts the
// remote logger's payload and relays it to a configured destination.
package sink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"golang.org/x/time/rate"

	"github.com/orgoj/servicelog/internal/config"
	"github.com/orgoj/servicelog/internal/iputil"
	"github.com/orgoj/servicelog/internal/logger"
	"github.com/orgoj/servicelog/internal/version"
)

const shutdownTimeout = 10 * time.Second

// Dependencies holds the dependencies needed by the server.
type Dependencies struct {
	Config        *config.Config
	LoggerManager *logger.Manager
	AppLogger     *logger.AppLogger
	// Relay overrides the destination named in the sink config.
	Relay logger.Logger
}

// Server is the sink HTTP server.
type Server struct {
	router      *gin.Engine
	cfg         config.SinkConfig
	appLogger   *logger.AppLogger
	relay       logger.Logger
	resolver    *iputil.Resolver
	allowed     []glob.Glob
	maxBodySize int64

	// Rate limiting specific
	limiters   map[string]*rate.Limiter
	limiterMu  sync.Mutex
	rateLimit  rate.Limit
	burstLimit int
}

// NewServer creates a new server instance with its dependencies.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Config == nil {
		panic("sink: Config dependency cannot be nil")
	}
	if deps.LoggerManager == nil && deps.Relay == nil {
		panic("sink: LoggerManager or Relay dependency is required")
	}
	if deps.AppLogger == nil {
		deps.AppLogger = logger.GetAppLogger()
	}
	cfg := deps.Config.Sink
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = config.DefaultAPIKeyHeader
	}
	if cfg.Path == "" {
		cfg.Path = config.DefaultSinkPath
	}
	if len(cfg.AllowedApplications) == 0 {
		cfg.AllowedApplications = []string{"*"}
	}

	relay, err := resolveRelay(deps)
	if err != nil {
		return nil, err
	}

	resolver, err := iputil.NewResolver(cfg.TrustedProxies, cfg.ClientIPHeader)
	if err != nil {
		return nil, fmt.Errorf("invalid sink.trusted_proxies: %w", err)
	}

	allowed := make([]glob.Glob, 0, len(cfg.AllowedApplications))
	for _, pattern := range cfg.AllowedApplications {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid application pattern '%s': %w", pattern, err)
		}
		allowed = append(allowed, g)
	}

	var maxBodySize int64
	if cfg.RequestLimits.MaxBodySize != "" {
		maxBodySize, err = config.ParseSize(cfg.RequestLimits.MaxBodySize)
		if err != nil {
			return nil, fmt.Errorf("invalid sink.request_limits.max_body_size: %w", err)
		}
	}

	if cfg.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	// Client addresses are resolved by iputil, not by gin.
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to configure router: %w", err)
	}

	s := &Server{
		router:      router,
		cfg:         cfg,
		appLogger:   deps.AppLogger,
		relay:       relay,
		resolver:    resolver,
		allowed:     allowed,
		maxBodySize: maxBodySize,
		limiters:    make(map[string]*rate.Limiter),
	}

	if cfg.RequestLimits.RateLimit > 0 {
		// Convert requests per minute to requests per second
		s.rateLimit = rate.Limit(float64(cfg.RequestLimits.RateLimit) / 60.0)
		s.burstLimit = cfg.RequestLimits.RateLimit
		s.appLogger.Info("Rate limiting enabled for %s: Rate=%.2f req/sec, Burst=%d", cfg.Path, s.rateLimit, s.burstLimit)
	} else {
		s.rateLimit = rate.Inf
		s.appLogger.Info("Rate limiting disabled for %s.", cfg.Path)
	}

	s.setupRoutes()
	return s, nil
}

func resolveRelay(deps Dependencies) (logger.Logger, error) {
	if deps.Relay != nil {
		return deps.Relay, nil
	}
	name := deps.Config.Sink.Destination
	if name == "" {
		return logger.NewConsoleLogger("sink")
	}
	lgr := deps.LoggerManager.GetLogger(name)
	if lgr == nil {
		return nil, fmt.Errorf("sink destination '%s' is not enabled", name)
	}
	return lgr, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.HEAD("/health", s.healthHandler)
	s.router.GET("/version", versionHandler)

	logs := s.router.Group(s.cfg.Path)
	if s.rateLimit != rate.Inf {
		logs.Use(s.rateLimitMiddleware())
	}
	logs.Use(s.apiKeyMiddleware())
	logs.POST("", s.ingestHandler)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.appLogger.Info("Starting sink on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.appLogger.Info("Shutting down sink...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	s.appLogger.Health("Health check from %s", s.resolver.ClientIP(c.Request))
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// versionHandler returns the current version information
func versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     version.Version,
		"build_date":  version.BuildDate,
		"commit_hash": version.CommitHash,
	})
}
