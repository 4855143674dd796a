package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// An estimate waits on both providers, so responses may take far longer than
// a health probe.
const estimateWriteTimeout = 2 * time.Minute

// Estimator produces a solar estimate for a request.
type Estimator interface {
	Estimate(ctx context.Context, req domain.EstimateRequest) (domain.Estimate, error)
}

// Server exposes the estimate API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	estimator  Estimator
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /solar/estimate, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, estimator Estimator, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: estimateWriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		estimator: estimator,
		validate:  newValidator(),
		logger:    logger,
	}

	mux.HandleFunc("POST /solar/estimate", s.handleEstimate)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
