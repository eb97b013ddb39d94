// Package upload stores user pictures and notifies the annotation pipeline.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pixxearch/pixxearch/internal/blob"
	"github.com/pixxearch/pixxearch/internal/domain"
	"github.com/pixxearch/pixxearch/internal/logger"
	"github.com/pixxearch/pixxearch/internal/metrics"
)

// Defaults.
const (
	DefaultMaxBytes     = 10 << 20
	DefaultStream       = "pixxearch:uploads"
	DefaultStreamMaxLen = 10000
)

// Config tunes the service.
type Config struct {
	Bucket       string
	Stream       string
	StreamMaxLen int64
	MaxBytes     int64
	RatePerSec   float64 // <= 0 disables throttling
	Burst        int
}

// Result describes a stored upload.
type Result struct {
	EventID string
	Name    string
	Bucket  string
	Size    int64
}

// Service handles picture uploads.
type Service struct {
	blobs   BlobWriter
	events  EventPublisher
	limiter *rate.Limiter
	cfg     Config
	newID   func() string
}

// New creates an upload service.
func New(blobs BlobWriter, events EventPublisher, cfg Config) *Service {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.StreamMaxLen <= 0 {
		cfg.StreamMaxLen = DefaultStreamMaxLen
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &Service{
		blobs:   blobs,
		events:  events,
		limiter: limiter,
		cfg:     cfg,
		newID:   uuid.NewString,
	}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 { return s.cfg.MaxBytes }

// Upload stores r under the base name of filename and publishes an
// "uploaded" event. A declared size of -1 means unknown.
func (s *Service) Upload(ctx context.Context, filename string, size int64, r io.Reader) (Result, error) {
	if !s.limiter.Allow() {
		metrics.UploadsTotal.WithLabelValues("throttled").Inc()
		return Result{}, domain.ErrRateLimited
	}
	if r == nil || filename == "" {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return Result{}, domain.ErrMissingFile
	}

	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if err := blob.ValidName(name); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return Result{}, err
	}
	if size > s.cfg.MaxBytes {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return Result{}, fmt.Errorf("%w: %d bytes (max %d)", domain.ErrPayloadTooLarge, size, s.cfg.MaxBytes)
	}

	written, err := s.blobs.Put(ctx, s.cfg.Bucket, name, &capReader{r: r, left: s.cfg.MaxBytes})
	if err != nil {
		if errors.Is(err, domain.ErrPayloadTooLarge) {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.UploadsTotal.WithLabelValues("failed").Inc()
		}
		return Result{}, fmt.Errorf("store %s: %w", name, err)
	}
	metrics.UploadBytes.Add(float64(written))

	res := Result{EventID: s.newID(), Name: name, Bucket: s.cfg.Bucket, Size: written}
	if _, err := s.events.XAdd(ctx, s.cfg.Stream, s.cfg.StreamMaxLen, map[string]string{
		"id":     res.EventID,
		"type":   "uploaded",
		"name":   res.Name,
		"bucket": res.Bucket,
		"size":   strconv.FormatInt(res.Size, 10),
	}); err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("publish upload of %s: %w", name, err)
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	logger.FromContext(ctx).Info("picture uploaded",
		zap.String("name", res.Name),
		zap.String("bucket", res.Bucket),
		zap.Int64("size", res.Size),
		zap.String("event_id", res.EventID),
	)
	return res, nil
}

// capReader fails once more than left bytes have been read.
type capReader struct {
	r    io.Reader
	left int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, domain.ErrPayloadTooLarge
	}
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, domain.ErrPayloadTooLarge
	}
	return n, err
}
