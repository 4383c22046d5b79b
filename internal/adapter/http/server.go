package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
)

// PredictionService is the request-resolution surface the routes call into.
type PredictionService interface {
	sharedobs.ReadinessChecker
	ModelLoaded() bool
	PredictGrids(ctx context.Context, grids []domain.FeatureVector) ([]domain.PredictionResult, error)
	PredictLocation(ctx context.Context, req pipeline.LocationRequest) (pipeline.LocationResponse, error)
	PredictFromDataset(ctx context.Context, req pipeline.DatasetRequest) (pipeline.DatasetResponse, error)
}

// Server exposes the prediction routes plus health, readiness, and metrics.
type Server struct {
	httpServer  *http.Server
	svc         PredictionService
	exposeTrace bool
	logger      *slog.Logger
}

// NewServer creates an HTTP server. exposeTrace adds stack traces to 500 responses.
func NewServer(addr string, svc PredictionService, exposeTrace bool, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:         svc,
		exposeTrace: exposeTrace,
		logger:      logger,
	}

	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("POST /prect", s.handlePredict)
	mux.HandleFunc("POST /predict_location", s.handlePredictLocation)
	mux.HandleFunc("POST /predict_dataset", s.handlePredictDataset)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer.Handler = s.recoverPanics(mux)
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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": s.svc.ModelLoaded(),
	})
}
