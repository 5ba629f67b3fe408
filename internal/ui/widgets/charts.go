package widgets

import (
	"math"
	"strings"
)

// Bar renders a fixed-width utilization gauge for v in 0..1. Values
// outside the range are clamped; over-commitment is flagged by the
// caller, not the gauge.
func Bar(v float64, width int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	fill := int(math.Round(v * float64(width)))

	if v > 0 && fill == 0 {
		fill = 1
	}

	if fill < 0 {
		fill = 0
	}
	if fill > width {
		fill = width
	}

	return strings.Repeat("█", fill) + strings.Repeat(" ", width-fill)
}
