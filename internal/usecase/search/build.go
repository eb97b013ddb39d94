package search

import (
	"fmt"

	"github.com/pixxearch/pixxearch/internal/domain/facet"
	"github.com/pixxearch/pixxearch/internal/domain/search/filter"
	"github.com/pixxearch/pixxearch/internal/domain/search/request"
)

// ColorThreshold is the per-channel tolerance of a color facet.
const ColorThreshold = 20

// MultiColorMatching is off: only the first selected color is queried,
// the others stay in the facet state for display.
const MultiColorMatching = false

// PageSize is the number of pictures per page.
const PageSize = request.DefaultSize

// BuildRequest maps facet state to a search request. It does no I/O.
func BuildRequest(state facet.State) (request.Request, error) {
	b := request.NewBuilder().Text(state.Text())

	if colors := state.Colors(); len(colors) > 0 {
		conds, err := colorConditions(colors[0])
		if err != nil {
			return request.Request{}, err
		}
		b.Nested(request.PathColors, conds...)
	}

	for _, l := range state.Labels() {
		if l != "" {
			b.Term(request.FieldLabels, l)
		}
	}
	for _, o := range state.Objects() {
		if o != "" {
			b.Term(request.FieldObjects, o)
		}
	}

	return b.Page(state.Offset(), PageSize).Build()
}

func colorConditions(c facet.Color) ([]filter.Condition, error) {
	channels := []struct {
		field string
		value uint8
	}{
		{request.FieldRed, c.Red},
		{request.FieldGreen, c.Green},
		{request.FieldBlue, c.Blue},
	}
	conds := make([]filter.Condition, 0, len(channels))
	for _, ch := range channels {
		v := float64(ch.value)
		cond, err := filter.Between(ch.field, v-ColorThreshold, v+ColorThreshold)
		if err != nil {
			return nil, fmt.Errorf("color %s: %w", c.Hex(), err)
		}
		conds = append(conds, cond)
	}
	return conds, nil
}
