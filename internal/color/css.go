package color

import (
	"fmt"
	"math"
	"strconv"
)

// CSS returns a CSS color for the clamped channels.
// Opaque colors use rgb(), translucent ones rgba().
func (c RGB) CSS() string {
	if c.Alpha >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, formatAlpha(c.Alpha))
}

// Hex returns #rrggbb, or #rrggbbaa when the color is translucent.
func (c RGB) Hex() string {
	if c.Alpha >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, int(math.Round(clamp01(c.Alpha)*255)))
}

// Luminance is the average-channel brightness proxy used to pick a border
// that contrasts with the swatch.
func (c RGB) Luminance() float64 {
	return float64(c.R+c.G+c.B) / 3
}

// formatAlpha prints alpha with at most three decimals and no trailing zeros.
func formatAlpha(a float64) string {
	return strconv.FormatFloat(math.Round(clamp01(a)*1000)/1000, 'f', -1, 64)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
