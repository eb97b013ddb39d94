package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pixxearch/pixxearch/internal/domain"
	"github.com/pixxearch/pixxearch/internal/domain/facet"
	"github.com/pixxearch/pixxearch/internal/domain/picture"
	"github.com/pixxearch/pixxearch/internal/logger"
	"github.com/pixxearch/pixxearch/internal/metrics"
)

// Service answers faceted picture searches.
type Service struct {
	gateway Gateway
	norm    *Normalizer
}

// New creates a search service. norm can be nil.
func New(gateway Gateway, norm *Normalizer) *Service {
	if norm == nil {
		norm = NewNormalizer(nil)
	}
	return &Service{gateway: gateway, norm: norm}
}

// Search runs one facet state against the index.
//
// A gateway failure is not an error for the caller: it is logged and an
// empty page at the requested offset is returned. There is no retry.
func (s *Service) Search(ctx context.Context, state facet.State) (picture.Page, error) {
	req, err := BuildRequest(state)
	if err != nil {
		return picture.Page{}, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
	}

	log := logger.FromContext(ctx)
	log.Debug("search request", zap.Stringer("request", req))

	start := time.Now()
	res, err := s.gateway.Search(ctx, req)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchGatewayErrorsTotal.Inc()
		log.Error("search gateway failed, returning empty page",
			zap.Error(err),
			zap.Int("from", req.From()),
		)
		return picture.EmptyPage(req.From()), nil
	}

	metrics.SearchHits.Observe(float64(len(res.Hits)))
	return s.norm.Normalize(res, req.From()), nil
}
