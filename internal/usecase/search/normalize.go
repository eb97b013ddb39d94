package search

import (
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pixxearch/pixxearch/internal/domain/facet"
	"github.com/pixxearch/pixxearch/internal/domain/picture"
)

// Normalizer turns raw index hits into display-ready pages.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer. now defaults to time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize maps a search result to a page. from echoes the request offset.
func (n *Normalizer) Normalize(res picture.SearchResult, from int) picture.Page {
	now := n.now()
	items := make([]picture.Item, 0, len(res.Hits))
	for _, h := range res.Hits {
		items = append(items, item(h.Record, now))
	}
	return picture.Page{Pictures: items, Total: res.Total, From: from}
}

func item(r picture.Record, now time.Time) picture.Item {
	it := picture.Item{
		Name:    r.Name,
		Labels:  orEmpty(slices.Clone(r.Labels)),
		Objects: orEmpty(dedupe(r.Objects)),
		Colors:  orEmpty(slices.Clone(r.Colors)),
	}
	if len(r.Colors) > 0 {
		it.Color = cssColor(r.Colors[0])
	}
	if !r.Created.IsZero() {
		it.Created = humanize.RelTime(r.Created, now, "ago", "from now")
	}
	return it
}

func cssColor(c picture.Color) string {
	return facet.RGB(clampChannel(c.Red), clampChannel(c.Green), clampChannel(c.Blue)).CSS()
}

func clampChannel(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}

// dedupe keeps the first occurrence of each value.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
