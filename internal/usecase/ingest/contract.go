package ingest

import (
	"context"

	"github.com/pixxearch/pixxearch/internal/domain/picture"
)

// Writer persists flattened picture records.
type Writer interface {
	Save(ctx context.Context, rec picture.Record) error
}
