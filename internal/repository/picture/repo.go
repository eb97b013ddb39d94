// Package picture stores picture documents in the Redis query engine and
// answers structured search requests against them.
package picture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/pixxearch/pixxearch/internal/db"
	dompic "github.com/pixxearch/pixxearch/internal/domain/picture"
	"github.com/pixxearch/pixxearch/internal/domain/search/filter"
	"github.com/pixxearch/pixxearch/internal/domain/search/request"
	"github.com/pixxearch/pixxearch/internal/logger"
)

// Color lookup limits.
const (
	DefaultColorScanLimit  = 10000
	DefaultMaxColorParents = 1000
)

// store is the consumer interface for pictures (ISP).
type store interface {
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the search gateway and the picture writer.
type Repo struct {
	store          store
	keys           keyspace
	colorScanLimit int
	maxParents     int
}

// New creates a picture repository. An empty prefix uses DefaultPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repo{
		store:          s,
		keys:           keyspace{prefix: prefix},
		colorScanLimit: DefaultColorScanLimit,
		maxParents:     DefaultMaxColorParents,
	}
}

// WithColorLimits bounds the color lookup: scan is the number of color
// entries read, parents the number of distinct pictures kept.
func (r *Repo) WithColorLimits(scan, parents int) *Repo {
	if scan > 0 {
		r.colorScanLimit = scan
	}
	if parents > 0 {
		r.maxParents = parents
	}
	return r
}

// EnsureIndexes creates the picture and color indexes. Existing indexes are kept.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, def := range []*db.IndexDefinition{buildPictureIndex(r.keys), buildColorIndex(r.keys)} {
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}

// Save writes a picture and one child document per dominant color in a
// single round trip, then drops color entries left from a previous write
// of the same picture.
func (r *Repo) Save(ctx context.Context, rec dompic.Record) error {
	docID := dompic.DocumentID(rec.Name)

	existing, err := r.store.Scan(ctx, r.keys.colorPattern(docID))
	if err != nil {
		return fmt.Errorf("scan colors of %s: %w", rec.Name, err)
	}

	data, err := json.Marshal(toDocument(&rec))
	if err != nil {
		return fmt.Errorf("marshal picture %s: %w", rec.Name, err)
	}
	items := make([]db.JSONSetItem, 0, 1+len(rec.Colors))
	items = append(items, db.JSONSetItem{Key: r.keys.pictureKey(docID), Path: "$", Data: data})

	written := make([]string, 0, len(rec.Colors))
	for i, c := range rec.Colors {
		cd, err := json.Marshal(colorDocument{Picture: rec.Name, Rank: i, Red: c.Red, Green: c.Green, Blue: c.Blue})
		if err != nil {
			return fmt.Errorf("marshal color %d of %s: %w", i, rec.Name, err)
		}
		key := r.keys.colorKey(docID, i)
		items = append(items, db.JSONSetItem{Key: key, Path: "$", Data: cd})
		written = append(written, key)
	}

	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("write picture %s: %w", rec.Name, err)
	}

	var stale []string
	for _, k := range existing {
		if !slices.Contains(written, k) {
			stale = append(stale, k)
		}
	}
	if err := r.store.Del(ctx, stale...); err != nil {
		return fmt.Errorf("drop stale colors of %s: %w", rec.Name, err)
	}
	return nil
}

// Search executes a structured request. A color clause costs one extra
// round trip against the color index; when no color entry matches, the
// main index is not queried.
func (r *Repo) Search(ctx context.Context, req request.Request) (dompic.SearchResult, error) {
	expr, err := termFilters(req.Filters())
	if err != nil {
		return dompic.SearchResult{}, err
	}

	if n := req.Nested(); n != nil {
		names, err := r.colorParents(ctx, n)
		if err != nil {
			return dompic.SearchResult{}, err
		}
		if len(names) == 0 {
			return dompic.SearchResult{Hits: []dompic.Hit{}}, nil
		}
		byName := make([]filter.Condition, 0, len(names))
		for _, name := range names {
			c, err := filter.NewMatch(attrName, name)
			if err != nil {
				return dompic.SearchResult{}, err
			}
			byName = append(byName, c)
		}
		if expr, err = expr.And(filter.Any(byName...)); err != nil {
			return dompic.SearchResult{}, err
		}
	}

	q := &db.SearchQuery{
		IndexName:    r.keys.pictureIndex(),
		Filters:      expr,
		Offset:       req.From(),
		Limit:        req.Size(),
		ReturnFields: []string{"$"},
	}
	if t := req.Text(); t != nil {
		if q.Text, err = textMatch(t); err != nil {
			return dompic.SearchResult{}, err
		}
		q.WithScores = true
	} else if s := req.EffectiveSort(); len(s) > 0 {
		attr, ok := sortAttrs[s[0].Field]
		if !ok {
			return dompic.SearchResult{}, fmt.Errorf("unsupported sort field %q", s[0].Field)
		}
		q.SortBy = attr
		q.SortDesc = s[0].Desc
	}

	res, err := r.store.Search(ctx, q)
	if err != nil {
		return dompic.SearchResult{}, fmt.Errorf("search pictures: %w", err)
	}

	hits := make([]dompic.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		rec, err := decodeDocument(e.Fields["$"])
		if err != nil {
			return dompic.SearchResult{}, fmt.Errorf("entry %s: %w", e.Key, err)
		}
		hits = append(hits, dompic.Hit{Record: rec, Score: e.Score})
	}
	if q.Text != nil {
		sortByScoreThenCreated(hits)
	}

	return dompic.SearchResult{Total: res.Total, Hits: hits}, nil
}

// colorParents returns the distinct pictures owning at least one color
// entry that satisfies every condition of the clause.
func (r *Repo) colorParents(ctx context.Context, n *request.NestedClause) ([]string, error) {
	if n.Path() != request.PathColors {
		return nil, fmt.Errorf("unsupported nested path %q", n.Path())
	}
	conds := make([]filter.Condition, 0, len(n.Filter().Must()))
	for _, c := range n.Filter().Must() {
		attr, ok := colorAttrs[c.Key()]
		if !ok || !c.IsRange() {
			return nil, fmt.Errorf("unsupported color condition %s", c)
		}
		rc, err := filter.NewRange(attr, *c.Range())
		if err != nil {
			return nil, err
		}
		conds = append(conds, rc)
	}

	res, err := r.store.Search(ctx, &db.SearchQuery{
		IndexName:    r.keys.colorIndex(),
		Filters:      filter.All(conds...),
		Limit:        r.colorScanLimit,
		ReturnFields: []string{attrPicture},
	})
	if err != nil {
		return nil, fmt.Errorf("search colors: %w", err)
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	capped := false
	for i, e := range res.Entries {
		name := e.Fields[attrPicture]
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) == r.maxParents {
			capped = i < len(res.Entries)-1 || res.Total > len(res.Entries)
			break
		}
	}
	if capped || res.Total > len(res.Entries) {
		logger.FromContext(ctx).Warn("color lookup truncated",
			zap.Int("parents", len(names)),
			zap.Int("max_parents", r.maxParents),
			zap.Int("scanned", len(res.Entries)),
			zap.Int("total", res.Total),
		)
	}
	return names, nil
}

func termFilters(terms []filter.Condition) (filter.Expression, error) {
	conds := make([]filter.Condition, 0, len(terms))
	for _, t := range terms {
		attr, ok := tagAttrs[t.Key()]
		if !ok || !t.IsMatch() {
			return filter.Expression{}, fmt.Errorf("unsupported filter %s", t)
		}
		c, err := filter.NewMatch(attr, t.Match())
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}
	return filter.All(conds...), nil
}

func textMatch(t *request.TextClause) (*db.TextMatch, error) {
	fields := make([]string, 0, len(t.Fields()))
	for _, f := range t.Fields() {
		attr, ok := textAttrs[f]
		if !ok {
			return nil, fmt.Errorf("unsupported text field %q", f)
		}
		fields = append(fields, attr)
	}
	terms := make([]db.FuzzyTerm, 0)
	for _, term := range t.Terms() {
		d := 0
		if t.Fuzziness() == request.FuzzyAuto {
			d = request.AutoFuzziness(term)
		}
		terms = append(terms, db.FuzzyTerm{Term: term, Distance: d})
	}
	return &db.TextMatch{Fields: fields, Terms: terms}, nil
}

func sortByScoreThenCreated(hits []dompic.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Record.Created.After(hits[j].Record.Created)
	})
}
