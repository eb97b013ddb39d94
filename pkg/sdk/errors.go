package pixxearch

import (
	"errors"
	"fmt"

	"github.com/pixxearch/pixxearch/internal/domain"
	"github.com/pixxearch/pixxearch/internal/domain/facet"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound        = domain.ErrNotFound
	ErrInvalidName     = domain.ErrInvalidName
	ErrInvalidPayload  = domain.ErrInvalidPayload
	ErrPayloadTooLarge = domain.ErrPayloadTooLarge
	ErrRateLimited     = domain.ErrRateLimited
	ErrMissingFile     = domain.ErrMissingFile
	ErrInvalidColor    = facet.ErrInvalidColor
	ErrUnknownKind     = facet.ErrUnknownKind
)

var (
	// ErrUnauthorized is returned when the API rejects the key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSuperseded is returned by Browser calls whose response arrived
	// after a newer call was issued. The browser state was not touched.
	ErrSuperseded = errors.New("pixxearch: superseded by a newer request")
)

// codeErrors maps API error codes to sentinels.
var codeErrors = map[string]error{
	"not_found":         ErrNotFound,
	"invalid_name":      ErrInvalidName,
	"validation_failed": ErrInvalidPayload,
	"payload_too_large": ErrPayloadTooLarge,
	"rate_limited":      ErrRateLimited,
	"missing_file":      ErrMissingFile,
	"unauthorized":      ErrUnauthorized,
}

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("pixxearch: http %d", e.StatusCode)
	}
	return fmt.Sprintf("pixxearch: http %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap exposes the matching sentinel, if any.
func (e *APIError) Unwrap() error { return codeErrors[e.Code] }
