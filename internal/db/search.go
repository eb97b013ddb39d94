package db

import "github.com/pixxearch/pixxearch/internal/domain/search/filter"

// SearchQuery is the input for FT.SEARCH.
type SearchQuery struct {
	IndexName string
	Filters   filter.Expression
	Text      *TextMatch // nil: filters only
	Offset    int
	Limit     int // 0 counts without returning documents
	SortBy    string
	SortDesc  bool
	// WithScores returns relevance scores; only meaningful with Text.
	WithScores   bool
	ReturnFields []string
}

// TextMatch is a full-text clause over several TEXT fields. A document
// matches when any term matches in any field.
type TextMatch struct {
	Fields []string
	Terms  []FuzzyTerm
}

// FuzzyTerm is one query term with its tolerated edit distance (0-3).
type FuzzyTerm struct {
	Term     string
	Distance int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
