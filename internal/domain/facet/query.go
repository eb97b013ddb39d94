package facet

import (
	"net/url"
	"strconv"
	"strings"
)

// Query string parameter names.
const (
	ParamText   = "q"
	ParamColor  = "c"
	ParamLabel  = "l"
	ParamObject = "o"
	ParamFrom   = "from"
)

// Encode serializes the state as a URL query string: q (omitted when empty),
// one c per color, one l per label, one o per object, then from.
func (s State) Encode() string {
	var b strings.Builder
	write := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	if s.text != "" {
		write(ParamText, s.text)
	}
	for _, c := range s.colors {
		write(ParamColor, c.Hex())
	}
	for _, l := range s.labels {
		write(ParamLabel, l)
	}
	for _, o := range s.objects {
		write(ParamObject, o)
	}
	write(ParamFrom, strconv.Itoa(s.offset))

	return b.String()
}

// Parse decodes a raw query string. Malformed escapes only lose the
// affected pair; the rest of the state is still decoded.
func Parse(rawQuery string) State {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?")) //nolint:errcheck // partial values are kept on error
	return Decode(values)
}

// Decode builds a state from already-split query values.
func Decode(values url.Values) State {
	return FromParams(
		values.Get(ParamText),
		values[ParamColor],
		values[ParamLabel],
		values[ParamObject],
		values.Get(ParamFrom),
	)
}

// FromParams builds a state from individual parameters. Each malformed color
// is dropped on its own; an unparsable or negative from means offset 0.
// Empty labels or objects are dropped; duplicates from hand-written URLs
// are tolerated.
func FromParams(text string, colors, labels, objects []string, from string) State {
	parsed := make([]Color, 0, len(colors))
	for _, raw := range colors {
		c, err := ParseHex(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, c)
	}

	offset, err := strconv.Atoi(from)
	if err != nil {
		offset = 0
	}

	return New(text, parsed, nonEmpty(labels), nonEmpty(objects), offset)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// InvalidColors returns the color values FromParams would drop.
func InvalidColors(colors []string) []string {
	var bad []string
	for _, raw := range colors {
		if _, err := ParseHex(raw); err != nil {
			bad = append(bad, raw)
		}
	}
	return bad
}
