package facet

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidColor is returned for a swatch that is not of the form #rrggbb.
var ErrInvalidColor = errors.New("invalid color")

// lightThreshold is the channel sum above which a swatch counts as light.
const lightThreshold = 384

// Color is an RGB swatch.
type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// RGB creates a Color from channel values.
func RGB(r, g, b uint8) Color {
	return Color{Red: r, Green: g, Blue: b}
}

// ParseHex decodes a "#rrggbb" swatch.
func ParseHex(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{
		Red:   uint8(v >> 16),
		Green: uint8(v >> 8),
		Blue:  uint8(v),
	}, nil
}

// Hex returns the lowercase "#rrggbb" form. Colors compare by this value.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

// CSS returns the "rgb(r, g, b)" form used for swatch backgrounds.
func (c Color) CSS() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.Red, c.Green, c.Blue)
}

// IsLight reports whether dark text should be drawn over the swatch.
func (c Color) IsLight() bool {
	return int(c.Red)+int(c.Green)+int(c.Blue) > lightThreshold
}
