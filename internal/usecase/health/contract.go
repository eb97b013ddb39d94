package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BlobChecker checks picture storage availability.
type BlobChecker interface {
	HealthCheck(ctx context.Context) error
}
