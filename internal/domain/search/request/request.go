// Package request defines the structured search request handed to the
// picture index and the staged builder that produces it.
package request

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pixxearch/pixxearch/internal/domain/search/filter"
)

// Document fields addressed by requests.
const (
	FieldLandmarkName = "landmark.name"
	FieldLabels       = "labels"
	FieldObjects      = "objects"
	FieldText         = "text"
	FieldCreated      = "created"
	FieldScore        = "_score"

	PathColors  = "colors"
	FieldRed    = PathColors + ".red"
	FieldGreen  = PathColors + ".green"
	FieldBlue   = PathColors + ".blue"
	FuzzyAuto   = "AUTO"
	DefaultSize = 40
)

// TextFields are the fields a free-text query is matched against.
var TextFields = []string{FieldLandmarkName, FieldLabels, FieldObjects, FieldText}

// TextClause is a multi-field fuzzy match. A document matches when any
// field matches.
type TextClause struct {
	query     string
	fields    []string
	fuzziness string
}

// Query returns the raw text query.
func (t *TextClause) Query() string { return t.query }

// Fields returns the matched fields.
func (t *TextClause) Fields() []string { return slices.Clone(t.fields) }

// Fuzziness returns the edit distance policy (always AUTO today).
func (t *TextClause) Fuzziness() string { return t.fuzziness }

// Terms splits the query into whitespace separated terms.
func (t *TextClause) Terms() []string { return strings.Fields(t.query) }

// AutoFuzziness returns the edit distance tolerated for a term under the
// AUTO policy: 0 up to 2 characters, 1 up to 5, then 2.
func AutoFuzziness(term string) int {
	n := len([]rune(term))
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// NestedClause filters on entries of a repeated sub-structure. A document
// matches when at least one entry satisfies every condition at once.
type NestedClause struct {
	path   string
	filter filter.Expression
}

// Path returns the repeated field the clause targets.
func (n *NestedClause) Path() string { return n.path }

// Filter returns the per-entry conditions.
func (n *NestedClause) Filter() filter.Expression { return n.filter }

// MatchesAny reports whether one of the entries satisfies the clause.
// Entry keys are full field paths, such as "colors.red".
func (n *NestedClause) MatchesAny(entries []map[string]float64) bool {
	for _, e := range entries {
		if n.filter.Matches(nil, e) {
			return true
		}
	}
	return false
}

// SortField is one sort key.
type SortField struct {
	Field string
	Desc  bool
}

// Request is an immutable structured search request.
type Request struct {
	text    *TextClause
	nested  *NestedClause
	filters []filter.Condition
	size    int
	from    int
	sort    []SortField
}

// Text returns the text clause, or nil when the request has none.
func (r Request) Text() *TextClause { return r.text }

// Nested returns the nested clause, or nil when the request has none.
func (r Request) Nested() *NestedClause { return r.nested }

// Filters returns the exact-match filters. All of them must hold.
func (r Request) Filters() []filter.Condition { return slices.Clone(r.filters) }

// Size returns the page size.
func (r Request) Size() int { return r.size }

// From returns the offset of the first hit.
func (r Request) From() int { return r.from }

// Sort returns the declared sort order.
func (r Request) Sort() []SortField { return slices.Clone(r.sort) }

// EffectiveSort drops the relevance key when no text clause scores the
// hits, so recency becomes the primary order.
func (r Request) EffectiveSort() []SortField {
	if r.text != nil {
		return r.Sort()
	}
	out := make([]SortField, 0, len(r.sort))
	for _, s := range r.sort {
		if s.Field != FieldScore {
			out = append(out, s)
		}
	}
	return out
}

// MatchesAll reports whether the request matches every document.
func (r Request) MatchesAll() bool {
	return r.text == nil && r.nested == nil && len(r.filters) == 0
}

// String renders the request for debug logs.
func (r Request) String() string {
	var parts []string
	if r.text != nil {
		parts = append(parts, fmt.Sprintf("text(%q over %s, fuzziness %s)",
			r.text.query, strings.Join(r.text.fields, ","), r.text.fuzziness))
	}
	if r.nested != nil {
		conds := make([]string, 0, len(r.nested.filter.Must()))
		for _, c := range r.nested.filter.Must() {
			conds = append(conds, c.String())
		}
		parts = append(parts, fmt.Sprintf("nested %s(%s)", r.nested.path, strings.Join(conds, " AND ")))
	}
	for _, f := range r.filters {
		parts = append(parts, "filter("+f.String()+")")
	}
	if len(parts) == 0 {
		parts = append(parts, "match_all")
	}
	sorts := make([]string, 0, len(r.sort))
	for _, s := range r.sort {
		dir := "asc"
		if s.Desc {
			dir = "desc"
		}
		sorts = append(sorts, s.Field+" "+dir)
	}
	return fmt.Sprintf("%s sort[%s] from %d size %d",
		strings.Join(parts, " AND "), strings.Join(sorts, ", "), r.from, r.size)
}
