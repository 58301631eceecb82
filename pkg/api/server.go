// Package api serves report generation and single-parameter resolution
// over HTTP, alongside the GraphQL endpoint, Prometheus metrics and
// health checks.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-settingstext/pkg/api/middleware"
	"github.com/dd0wney/cluso-settingstext/pkg/config"
	"github.com/dd0wney/cluso-settingstext/pkg/graphql"
	"github.com/dd0wney/cluso-settingstext/pkg/health"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/metrics"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
)

// Version is reported by /health
const Version = "1.0.0"

const (
	metricsInterval     = 10 * time.Second
	defaultMaxBodyBytes = 8 << 20
)

// Server is the HTTP front end over a service.Service
type Server struct {
	svc             *service.Service
	graphqlHandler  *graphql.GraphQLHandler
	metricsRegistry *metrics.Registry
	healthChecker   *health.HealthChecker
	corsConfig      *middleware.CORSConfig
	logger          logging.Logger
	cfg             config.HTTPConfig
	startTime       time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = logging.OrDefault(l) }
}

// WithMetrics sets the metrics registry exposed on /metrics
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.metricsRegistry = r
		}
	}
}

// WithHealthChecker replaces the default checker
func WithHealthChecker(hc *health.HealthChecker) Option {
	return func(s *Server) {
		if hc != nil {
			s.healthChecker = hc
		}
	}
}

// NewServer creates a server around svc
func NewServer(svc *service.Service, cfg config.HTTPConfig, opts ...Option) (*Server, error) {
	s := &Server{
		svc:       svc,
		logger:    logging.NewNopLogger(),
		cfg:       cfg,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxBodyBytes <= 0 {
		s.cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if s.metricsRegistry == nil {
		s.metricsRegistry = metrics.NewRegistry()
	}
	s.metricsRegistry.InitEvaluationLabels(svc.EvaluatorKinds())
	if s.healthChecker == nil {
		s.healthChecker = health.NewHealthChecker(Version)
		s.healthChecker.RegisterCheck("memory", health.MemoryCheck())
	}

	s.corsConfig = middleware.DefaultCORSConfig()
	s.corsConfig.AllowedOrigins = cfg.CORSOrigins

	schema, err := graphql.NewSchema(svc)
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql schema: %w", err)
	}
	s.graphqlHandler = graphql.NewGraphQLHandler(schema)
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("GET /ready", s.healthChecker.ReadinessHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metricsRegistry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/v1/report", s.handleReport)
	mux.HandleFunc("POST /api/v1/resolve", s.handleResolve)
	mux.HandleFunc("POST /api/v1/select-all", s.handleSelectAll)
	mux.HandleFunc("GET /api/v1/modes", s.handleModes)
	mux.Handle("/graphql", s.graphqlHandler)

	var h http.Handler = mux
	h = middleware.BodySizeLimit(s.cfg.MaxBodyBytes)(h)
	h = middleware.Metrics(s.metricsRegistry)(h)
	h = middleware.CORS(s.corsConfig)(h)
	h = middleware.Logging(s.logger, middleware.GetRequestID)(h)
	h = middleware.RequestID()(h)
	h = middleware.PanicRecovery(s.logger)(h)
	return h
}

// HTTPServer builds the http.Server for addr with the configured timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// UpdateMetricsPeriodically samples system gauges until ctx is done
func (s *Server) UpdateMetricsPeriodically(ctx context.Context) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	s.metricsRegistry.UpdateSystemMetrics(s.startTime)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metricsRegistry.UpdateSystemMetrics(s.startTime)
		}
	}
}
