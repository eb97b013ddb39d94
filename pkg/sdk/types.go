package pixxearch

import (
	"github.com/pixxearch/pixxearch/internal/domain/facet"
	"github.com/pixxearch/pixxearch/internal/domain/picture"
)

// State is the facet state of a search. It has value semantics.
type State = facet.State

// Swatch is a color facet value.
type Swatch = facet.Color

// Kind names a facet dimension.
type Kind = facet.Kind

// Facet kinds accepted by Browser.AddFacet and Browser.RemoveFacet.
const (
	KindColor  = facet.KindColor
	KindLabel  = facet.KindLabel
	KindObject = facet.KindObject
)

// Page is one window of search results.
type Page = picture.Page

// Item is one picture in a Page.
type Item = picture.Item

// Color is one dominant color of an Item.
type Color = picture.Color

// NewState builds a State from its parts.
func NewState(text string, colors []Swatch, labels, objects []string, offset int) State {
	return facet.New(text, colors, labels, objects, offset)
}

// ParseState decodes a query string such as "q=dog&l=Beach&from=40".
// Malformed colors are dropped.
func ParseState(rawQuery string) State {
	return facet.Parse(rawQuery)
}

// ParseSwatch decodes a "#rrggbb" color.
func ParseSwatch(hex string) (Swatch, error) {
	return facet.ParseHex(hex)
}
