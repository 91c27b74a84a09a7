// Package colors checks and adjusts the hex colours used by themes.
package colors

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// MinContrast is the WCAG AA ratio for normal text.
const MinContrast = 4.5

// Parse reads a "#rrggbb" or "#rgb" colour.
func Parse(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return c, nil
}

// Valid reports whether hex parses as a colour.
func Valid(hex string) bool {
	_, err := colorful.Hex(hex)
	return err == nil
}

// Luminance is the WCAG relative luminance, 0 for black and 1 for white.
// Invalid colours count as black.
func Luminance(hex string) float64 {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0
	}
	return luminance(c)
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio returns a value between 1 (no contrast) and 21.
func ContrastRatio(fg, bg string) float64 {
	l1, l2 := Luminance(fg), Luminance(bg)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func IsLight(hex string) bool {
	return Luminance(hex) > 0.5
}

// EnsureContrast moves fg away from bg until the pair reaches minRatio,
// falling back to black or white.
func EnsureContrast(fg, bg string, minRatio float64) string {
	if ContrastRatio(fg, bg) >= minRatio {
		return fg
	}
	fc, err := colorful.Hex(fg)
	if err != nil {
		return fallback(bg)
	}
	target := colorful.Color{}
	if Luminance(fg) > Luminance(bg) {
		target = colorful.Color{R: 1, G: 1, B: 1}
	}
	for step := 1; step <= 10; step++ {
		adjusted := fc.BlendRgb(target, float64(step)/10).Clamped().Hex()
		if ContrastRatio(adjusted, bg) >= minRatio {
			return adjusted
		}
	}
	return fallback(bg)
}

func fallback(bg string) string {
	if IsLight(bg) {
		return "#000000"
	}
	return "#ffffff"
}
