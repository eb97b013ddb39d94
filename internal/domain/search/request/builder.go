package request

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pixxearch/pixxearch/internal/domain/search/filter"
)

// Request limits.
const (
	MaxQueryLength = 4096
	MaxFilters     = filter.MaxConditionsPerGroup
	MaxSize        = 500
)

// Builder accumulates optional clauses into a Request. Clauses are added in
// any order; Build validates and freezes the result. A Builder records the
// first error and ignores later calls.
type Builder struct {
	text    *TextClause
	nested  *NestedClause
	filters []filter.Condition
	size    int
	from    int
	err     error
}

// NewBuilder starts a request that matches everything, sorted by relevance
// then recency, with the default page size.
func NewBuilder() *Builder {
	return &Builder{size: DefaultSize}
}

// Text adds a fuzzy multi-field text clause. An empty or blank query adds
// nothing, which is not the same as matching the empty string.
func (b *Builder) Text(query string, fields ...string) *Builder {
	if b.err != nil || strings.TrimSpace(query) == "" {
		return b
	}
	if len(query) > MaxQueryLength {
		b.err = fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
		return b
	}
	if len(fields) == 0 {
		fields = TextFields
	}
	b.text = &TextClause{query: query, fields: slices.Clone(fields), fuzziness: FuzzyAuto}
	return b
}

// Nested adds a clause over a repeated sub-structure. Conditions are
// combined by AND inside a single entry. Only one nested clause is kept.
func (b *Builder) Nested(path string, conds ...filter.Condition) *Builder {
	if b.err != nil {
		return b
	}
	if path == "" || len(conds) == 0 {
		b.err = errors.New("nested clause needs a path and at least one condition")
		return b
	}
	expr, err := filter.NewExpression(slices.Clone(conds), nil, nil)
	if err != nil {
		b.err = fmt.Errorf("nested %s: %w", path, err)
		return b
	}
	b.nested = &NestedClause{path: path, filter: expr}
	return b
}

// Term adds an exact-match filter. Filters narrow the result set and do
// not contribute to the score.
func (b *Builder) Term(field, value string) *Builder {
	if b.err != nil {
		return b
	}
	c, err := filter.NewMatch(field, value)
	if err != nil {
		b.err = err
		return b
	}
	b.filters = append(b.filters, c)
	return b
}

// Page sets the result window.
func (b *Builder) Page(from, size int) *Builder {
	if b.err != nil {
		return b
	}
	b.from = from
	b.size = size
	return b
}

// Build validates the accumulated clauses and returns the request.
func (b *Builder) Build() (Request, error) {
	if b.err != nil {
		return Request{}, b.err
	}
	if b.from < 0 {
		return Request{}, fmt.Errorf("from must be non-negative, got %d", b.from)
	}
	if b.size <= 0 || b.size > MaxSize {
		return Request{}, fmt.Errorf("size must be between 1 and %d, got %d", MaxSize, b.size)
	}
	if len(b.filters) > MaxFilters {
		return Request{}, fmt.Errorf("too many filters (max %d)", MaxFilters)
	}

	return Request{
		text:    b.text,
		nested:  b.nested,
		filters: slices.Clone(b.filters),
		size:    b.size,
		from:    b.from,
		sort: []SortField{
			{Field: FieldScore, Desc: true},
			{Field: FieldCreated, Desc: true},
		},
	}, nil
}
