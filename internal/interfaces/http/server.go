package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sawpanic/perfstore/internal/report"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"

	unmatchedRoute = "unmatched"
)

// Reporter builds the reports served by the API
type Reporter interface {
	Day(ctx context.Context, category string, day time.Time) (report.DayReport, error)
	Minute(ctx context.Context, category string, at time.Time) (report.MinuteReport, error)
	Range(ctx context.Context, category string, end time.Time, days int) ([]report.DayReport, error)
}

// Pinger checks store connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateBurst      int
	LiveInterval   time.Duration
	DefaultDays    int // days served by /range when none are requested, clamped to 1..MaxRangeDays
	Version        string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 20 * time.Second,
		RateLimitRPS:   50,
		RateBurst:      100,
		LiveInterval:   5 * time.Second,
		DefaultDays:    1,
		Version:        "dev",
	}
}

// Server is the read-only reporting API
type Server struct {
	router   *mux.Router
	server   *http.Server
	config   ServerConfig
	reporter Reporter
	health   *HealthHandler
	metrics  *MetricsRegistry
	limiter  *rate.Limiter
}

// NewServer wires routes for reporter and pinger. metrics may be shared with
// the store so both report into the same registry.
func NewServer(config ServerConfig, reporter Reporter, pinger Pinger, metrics *MetricsRegistry) *Server {
	if metrics == nil {
		metrics = NewMetricsRegistry()
	}
	config.DefaultDays = min(max(config.DefaultDays, 1), MaxRangeDays)

	s := &Server{
		router:   mux.NewRouter().UseEncodedPath(),
		config:   config,
		reporter: reporter,
		health:   NewHealthHandler(pinger, config.Version),
		metrics:  metrics,
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.RateBurst),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	s.router.Handle("/metrics", s.metrics.MetricsHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/live/{category}", s.Live).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.timeoutMiddleware)
	api.Use(s.jsonContentTypeMiddleware)

	api.Handle("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/report/{category}/range", s.ReportRange).Methods(http.MethodGet)
	api.HandleFunc("/report/{category}", s.ReportDay).Methods(http.MethodGet)

	// mux serves these outside the middleware chain
	s.router.NotFoundHandler = s.unmatched(http.HandlerFunc(s.NotFound))
	s.router.MethodNotAllowedHandler = s.unmatched(http.HandlerFunc(s.MethodNotAllowed))
}

// unmatched wraps handlers for requests no route accepted
func (s *Server) unmatched(h http.Handler) http.Handler {
	return s.requestIDMiddleware(s.requestLoggingMiddleware(h))
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestIDMiddleware adds unique request ID to each request
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs and counts every routed request
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		// raw paths of unmatched requests would explode label cardinality
		route := unmatchedRoute
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.RecordRequest(route, wrapper.statusCode)

		log.Info().
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("Request handled")
	})
}

// rateLimitMiddleware rejects requests beyond the configured token bucket
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			s.writeError(w, r, http.StatusTooManyRequests, "rate_limited", "Request rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// timeoutMiddleware enforces request timeouts
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// jsonContentTypeMiddleware sets JSON content type for API responses
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.Info().Str("addr", s.Address()).Msg("Starting HTTP server (read-only)")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Address returns the listen address
func (s *Server) Address() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the live endpoint upgrade through the wrapper
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}
