// Package facet models the active search criteria of a picture search:
// free text, color swatches, labels, objects and the pagination cursor.
package facet

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownKind is returned when a facet operation names an unsupported kind.
// The state is left unchanged.
var ErrUnknownKind = errors.New("unknown facet kind")

// Kind is one dimension of search refinement.
type Kind string

// Facet kinds.
const (
	KindColor  Kind = "color"
	KindLabel  Kind = "label"
	KindObject Kind = "object"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == KindColor || k == KindLabel || k == KindObject
}

// State is the complete description of a search intent.
// It has value semantics: every operation returns a new State and never
// mutates the receiver's slices.
type State struct {
	text    string
	colors  []Color
	labels  []string
	objects []string
	offset  int
}

// New creates a State. Duplicates are kept as given; negative offsets become 0.
func New(text string, colors []Color, labels, objects []string, offset int) State {
	if offset < 0 {
		offset = 0
	}
	return State{
		text:    text,
		colors:  cloneOrNil(colors),
		labels:  cloneOrNil(labels),
		objects: cloneOrNil(objects),
		offset:  offset,
	}
}

// Text returns the free-text query.
func (s State) Text() string { return s.text }

// Colors returns the color swatches in insertion order.
func (s State) Colors() []Color { return slices.Clone(s.colors) }

// Labels returns the label facets in insertion order.
func (s State) Labels() []string { return slices.Clone(s.labels) }

// Objects returns the object facets in insertion order.
func (s State) Objects() []string { return slices.Clone(s.objects) }

// Offset returns the pagination cursor in result units.
func (s State) Offset() int { return s.offset }

// IsEmpty reports whether no facet narrows the search (pure browse).
func (s State) IsEmpty() bool {
	return s.text == "" && len(s.colors) == 0 && len(s.labels) == 0 && len(s.objects) == 0
}

// WithText replaces the free-text query and rewinds pagination.
func (s State) WithText(text string) State {
	next := s.clone()
	next.text = text
	next.offset = 0
	return next
}

// WithOffset moves the pagination cursor. Negative values become 0.
func (s State) WithOffset(offset int) State {
	next := s.clone()
	next.offset = max(offset, 0)
	return next
}

// Add adds a facet value. Adding a value already present is a no-op.
// The offset is always reset because a facet change invalidates pagination.
// Color values are "#rrggbb" strings.
func (s State) Add(kind Kind, value string) (State, error) {
	switch kind {
	case KindColor:
		c, err := ParseHex(value)
		if err != nil {
			return s, err
		}
		return s.AddColor(c), nil
	case KindLabel:
		next := s.clone()
		next.labels = appendUnique(next.labels, value)
		next.offset = 0
		return next, nil
	case KindObject:
		next := s.clone()
		next.objects = appendUnique(next.objects, value)
		next.offset = 0
		return next, nil
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// AddColor adds a swatch unless one with the same hex value exists.
func (s State) AddColor(c Color) State {
	next := s.clone()
	next.offset = 0
	if slices.ContainsFunc(next.colors, func(existing Color) bool { return existing.Hex() == c.Hex() }) {
		return next
	}
	next.colors = append(next.colors, c)
	return next
}

// Remove removes a facet value. Removing an absent value is a no-op.
// The offset is always reset.
func (s State) Remove(kind Kind, value string) (State, error) {
	next := s.clone()
	next.offset = 0

	switch kind {
	case KindColor:
		target, err := ParseHex(value)
		if err != nil {
			return s, err
		}
		next.colors = cloneOrNil(slices.DeleteFunc(next.colors, func(c Color) bool { return c.Hex() == target.Hex() }))
	case KindLabel:
		next.labels = removeValue(next.labels, value)
	case KindObject:
		next.objects = removeValue(next.objects, value)
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return next, nil
}

func (s State) clone() State {
	return State{
		text:    s.text,
		colors:  cloneOrNil(s.colors),
		labels:  cloneOrNil(s.labels),
		objects: cloneOrNil(s.objects),
		offset:  s.offset,
	}
}

func appendUnique(values []string, v string) []string {
	if slices.Contains(values, v) {
		return values
	}
	return append(values, v)
}

// removeValue drops the first occurrence, matching the UI's remove-by-chip behavior.
func removeValue(values []string, v string) []string {
	i := slices.Index(values, v)
	if i < 0 {
		return values
	}
	return cloneOrNil(slices.Delete(values, i, i+1))
}

func cloneOrNil[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return slices.Clone(in)
}
