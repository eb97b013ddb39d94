package upload

import (
	"context"
	"io"
)

// BlobWriter stores picture bytes in a bucket.
type BlobWriter interface {
	Put(ctx context.Context, bucket, name string, r io.Reader) (int64, error)
}

// EventPublisher appends upload notifications to a stream.
type EventPublisher interface {
	XAdd(ctx context.Context, stream string, maxLen int64, fields map[string]string) (string, error)
}
