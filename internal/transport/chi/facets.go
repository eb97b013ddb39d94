package chi

import (
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/pixxearch/pixxearch/internal/domain/facet"
)

// listPicturesParams are the query parameters of GET /api/pictures.
// Repeated parameters use form style with explode (?l=a&l=b).
type listPicturesParams struct {
	Q    *string
	C    *[]string
	L    *[]string
	O    *[]string
	From *string
}

func bindListPictures(query url.Values) (listPicturesParams, error) {
	var p listPicturesParams
	binds := []struct {
		name string
		dest any
	}{
		{facet.ParamText, &p.Q},
		{facet.ParamColor, &p.C},
		{facet.ParamLabel, &p.L},
		{facet.ParamObject, &p.O},
		{facet.ParamFrom, &p.From},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return listPicturesParams{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	return p, nil
}

// state converts the bound parameters into a facet state. Malformed colors
// are returned separately so the caller can log them.
func (p listPicturesParams) state() (facet.State, []string) {
	colors := deref(p.C)
	return facet.FromParams(
		deref(p.Q),
		colors,
		deref(p.L),
		deref(p.O),
		deref(p.From),
	), facet.InvalidColors(colors)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
