package renderer

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor converts "#rgb", "#rrggbb" or "#rrggbbaa" to a colour.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected #rgb, #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// fade scales the colour's alpha by opacity clamped to [0, 1].
func fade(c color.NRGBA, opacity float64) color.NRGBA {
	switch {
	case opacity <= 0:
		c.A = 0
	case opacity < 1:
		c.A = uint8(float64(c.A)*opacity + 0.5)
	}
	return c
}

// alpha turns opacity into a uniform mask value.
func alpha(opacity float64) color.Alpha {
	return color.Alpha{A: fade(color.NRGBA{A: 0xff}, opacity).A}
}
