package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pixxearch/pixxearch/internal/domain/vision"
	logpkg "github.com/pixxearch/pixxearch/internal/logger"
	healthuc "github.com/pixxearch/pixxearch/internal/usecase/health"
	ingestuc "github.com/pixxearch/pixxearch/internal/usecase/ingest"
)

// DefaultMaxAnnotationBytes bounds webhook bodies.
const DefaultMaxAnnotationBytes = 8 << 20

// IndexResponse is the body of POST /index.
type IndexResponse struct {
	Indexed bool `json:"indexed"`
}

// IndexerServer serves the annotation webhook.
type IndexerServer struct {
	ingest   *ingestuc.Service
	health   *healthuc.Service
	logger   *zap.Logger
	maxBytes int64
}

// NewIndexerServer creates the webhook server.
func NewIndexerServer(ingest *ingestuc.Service, health *healthuc.Service, logger *zap.Logger) *IndexerServer {
	return &IndexerServer{ingest: ingest, health: health, logger: logger, maxBytes: DefaultMaxAnnotationBytes}
}

// WithMaxBodyBytes overrides the webhook body limit.
func (s *IndexerServer) WithMaxBodyBytes(n int64) *IndexerServer {
	if n > 0 {
		s.maxBytes = n
	}
	return s
}

// Routes registers the webhook on r.
func (s *IndexerServer) Routes(r chi.Router) {
	r.Post("/index", s.Index)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// Index handles POST /index?id=<picture name>. Every failure answers 400
// with {"indexed": false}; the cause is only logged.
func (s *IndexerServer) Index(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContextOr(r.Context(), s.logger)

	var id string
	if err := runtime.BindQueryParameter("form", true, true, "id", r.URL.Query(), &id); err != nil {
		log.Warn("index request without picture id", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, IndexResponse{Indexed: false})
		return
	}

	var resp vision.BatchAnnotateResponse
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBytes)).Decode(&resp); err != nil {
		log.Warn("invalid annotation payload", zap.String("name", id), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, IndexResponse{Indexed: false})
		return
	}

	if _, err := s.ingest.Index(r.Context(), ingestuc.Payload{ID: id, Annotation: &resp}); err != nil {
		log.Error("indexing failed", zap.String("name", id), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, IndexResponse{Indexed: false})
		return
	}

	writeJSON(w, http.StatusOK, IndexResponse{Indexed: true})
}

// HealthCheck handles GET /health.
func (s *IndexerServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, s.health.Check(r.Context()))
}
