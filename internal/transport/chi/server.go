// Package chi exposes the picture search API and the indexer webhook over
// chi routers.
package chi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pixxearch/pixxearch/internal/blob"
	"github.com/pixxearch/pixxearch/internal/domain"
	logpkg "github.com/pixxearch/pixxearch/internal/logger"
	healthuc "github.com/pixxearch/pixxearch/internal/usecase/health"
	searchuc "github.com/pixxearch/pixxearch/internal/usecase/search"
	uploaduc "github.com/pixxearch/pixxearch/internal/usecase/upload"
)

// uploadField is the multipart field carrying the picture.
const uploadField = "picture"

// multipartOverhead is the room left for multipart headers and boundaries
// on top of the picture size limit.
const multipartOverhead = 64 << 10

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Server serves the search API.
type Server struct {
	search        *searchuc.Service
	uploads       *uploaduc.Service
	urls          blob.URLs
	health        *healthuc.Service
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	uploads *uploaduc.Service,
	urls blob.URLs,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:        search,
		uploads:       uploads,
		urls:          urls,
		health:        health,
		logger:        logger,
		now:           time.Now,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/pictures", s.ListPictures)
	r.Post("/api/pictures", s.UploadPicture)
	r.Get("/api/pictures/{name}", s.GetPicture)
	r.Get("/api/thumbnails/{name}", s.GetThumbnail)
	r.Get("/api/collage", s.GetCollage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ListPictures handles GET /api/pictures.
func (s *Server) ListPictures(w http.ResponseWriter, r *http.Request) {
	params, err := bindListPictures(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	state, badColors := params.state()
	if len(badColors) > 0 {
		s.log(r).Warn("dropping malformed colors", zap.Strings("colors", badColors))
	}

	page, err := s.search.Search(r.Context(), state)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// UploadPicture handles POST /api/pictures. The picture is streamed from
// the multipart body into the pictures bucket.
func (s *Server) UploadPicture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxBytes()+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "expected a multipart/form-data body")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.handleDomainError(w, r, domain.ErrMissingFile)
			return
		}
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		_, err = s.uploads.Upload(r.Context(), part.FileName(), -1, part)
		_ = part.Close()
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
}

// GetPicture handles GET /api/pictures/{name}.
func (s *Server) GetPicture(w http.ResponseWriter, r *http.Request) {
	s.redirectObject(w, r, s.urls.Picture)
}

// GetThumbnail handles GET /api/thumbnails/{name}.
func (s *Server) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	s.redirectObject(w, r, s.urls.Thumbnail)
}

// GetCollage handles GET /api/collage.
func (s *Server) GetCollage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.urls.Collage(s.now()), http.StatusFound)
}

func (s *Server) redirectObject(w http.ResponseWriter, r *http.Request, resolve func(string) string) {
	name := chi.URLParam(r, "name")
	if err := blob.ValidName(name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	http.Redirect(w, r, resolve(name), http.StatusFound)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, s.health.Check(r.Context()))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) log(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	handleDomainError(s.log(r), s.errorHandlers, w, err)
}

func writeHealth(w http.ResponseWriter, report healthuc.Report) {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// MountBlobs serves a local blob root under prefix (for example "/blobs").
func MountBlobs(r chi.Router, prefix, root string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(root)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
