// Package ingest turns annotation payloads into indexed picture records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pixxearch/pixxearch/internal/domain"
	"github.com/pixxearch/pixxearch/internal/domain/picture"
	"github.com/pixxearch/pixxearch/internal/domain/vision"
	"github.com/pixxearch/pixxearch/internal/logger"
	"github.com/pixxearch/pixxearch/internal/metrics"
)

// Payload is one webhook call: the picture name and its annotations.
type Payload struct {
	ID         string                        `validate:"required,max=1024"`
	Annotation *vision.BatchAnnotateResponse `validate:"required"`
}

// Service indexes annotated pictures.
type Service struct {
	writer   Writer
	validate *validator.Validate
	now      func() time.Time
}

// New creates an ingest service.
func New(writer Writer) *Service {
	return &Service{
		writer:   writer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// WithClock overrides the ingestion clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Index validates the payload, flattens the first image response and
// stores it under the picture name.
func (s *Service) Index(ctx context.Context, p Payload) (picture.Record, error) {
	if err := s.check(p); err != nil {
		metrics.IngestTotal.WithLabelValues("rejected").Inc()
		return picture.Record{}, err
	}

	rec := Flatten(p.ID, p.Annotation.First(), s.now())
	if err := s.writer.Save(ctx, rec); err != nil {
		metrics.IngestTotal.WithLabelValues("failed").Inc()
		return picture.Record{}, fmt.Errorf("index %s: %w", p.ID, err)
	}

	metrics.IngestTotal.WithLabelValues("indexed").Inc()
	logger.FromContext(ctx).Info("picture indexed",
		zap.String("name", rec.Name),
		zap.Int("labels", len(rec.Labels)),
		zap.Int("objects", len(rec.Objects)),
		zap.Int("colors", len(rec.Colors)),
		zap.Bool("landmark", rec.Landmark != nil),
	)
	return rec, nil
}

func (s *Service) check(p Payload) error {
	if err := s.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError(strings.ToLower(fe.Field()), fieldReason(fe))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
	}
	first := p.Annotation.First()
	if first == nil {
		return domain.NewValidationError("responses", "is empty")
	}
	if first.Error != nil {
		return domain.NewValidationError("responses", fmt.Sprintf("carry annotation error %d: %s",
			first.Error.Code, first.Error.Message))
	}
	return nil
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
