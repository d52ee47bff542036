package palette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidHex is returned for strings that are not #rgb or #rrggbb.
	ErrInvalidHex = errors.New("palette: invalid hex colour")

	// ErrInvalidCount is returned when fewer than one colour is requested.
	ErrInvalidCount = errors.New("palette: count must be positive")
)

// Contrast text colours
const (
	Black = "#000000"
	White = "#ffffff"
)

// Color is an opaque RGB colour with its lowercase hex form
type Color struct {
	R, G, B uint8
	Hex     string
}

// NewColor builds a Color and fills in its hex string
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Hex: RGBToHex(r, g, b)}
}

// RGBToHex formats r, g, b as #rrggbb
func RGBToHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ParseHex parses #rrggbb or the #rgb shorthand. The leading # is optional.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return NewColor(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Luminance returns the YIQ brightness of c in [0, 255]
func (c Color) Luminance() int {
	return (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
}

// Contrast returns the text colour, black or white, legible on c
func (c Color) Contrast() string {
	if c.Luminance() >= 128 {
		return Black
	}
	return White
}

// RGB returns the CSS rgb() form of c
func (c Color) RGB() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// ContrastColor returns "#000000" or "#ffffff", whichever reads better on
// top of the colour hex.
func ContrastColor(hex string) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	return c.Contrast(), nil
}
