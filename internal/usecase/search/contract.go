package search

import (
	"context"

	"github.com/pixxearch/pixxearch/internal/domain/picture"
	"github.com/pixxearch/pixxearch/internal/domain/search/request"
)

// Gateway executes a structured request against the picture index.
type Gateway interface {
	Search(ctx context.Context, req request.Request) (picture.SearchResult, error)
}
