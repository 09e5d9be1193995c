package utils

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Region returns the rectangle with top-left corner (x, y) and the given size.
func Region(x, y, width, height int) image.Rectangle {
	return image.Rect(x, y, x+width, y+height)
}

// ParseRegion parses "x,y,width,height". An empty string yields the zero rectangle.
func ParseRegion(s string) (image.Rectangle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return image.Rectangle{}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q: want x,y,width,height", s)
	}

	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[0] < 0 || vals[1] < 0 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q: negative origin", s)
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q: width and height must be positive", s)
	}
	return Region(vals[0], vals[1], vals[2], vals[3]), nil
}

// FormatRegion is the inverse of ParseRegion.
func FormatRegion(r image.Rectangle) string {
	if r.Empty() {
		return ""
	}
	return fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// ParseHexColor parses colors like "#RRGGBB", "RRGGBB" or "#RRGGBBAA".
func ParseHexColor(s string) (color.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return nil, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	//nolint:gosec // G115: each component is masked to 8 bits
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
