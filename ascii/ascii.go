// Package ascii maps raster samples onto a fixed luminance ramp and
// assembles them into a monospace text block.
package ascii

import (
	"math"
	"strings"

	"github.com/esimov/ascii-video/sampler"
)

// Ramp is ordered from the darkest to the brightest character.
const Ramp = " .:-=o*#$@"

// Luminance returns the unweighted mean of the three channels.
func Luminance(r, g, b uint8) float64 {
	return (float64(r) + float64(g) + float64(b)) / 3
}

// Index returns the ramp position for a luminance in [0,255].
func Index(l float64) int {
	n := len(Ramp)
	i := int(math.Floor(l / 255 * float64(n)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// ToChar returns the ramp character for a luminance in [0,255].
func ToChar(l float64) byte {
	return Ramp[Index(l)]
}

// Render converts the raster into text, breaking the line after every
// raster.Width samples. A trailing partial row is written without a newline.
func Render(r *sampler.Raster) string {
	n := r.Len()
	if n == 0 || r.Width <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(n + n/r.Width)
	for i := 0; i < n; i++ {
		sb.WriteByte(ToChar(Luminance(r.At(i))))
		if (i+1)%r.Width == 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
