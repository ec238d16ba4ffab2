//go:build fastmath

package spectrum

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

// 20/ln(10), so that 20*log10(x) = dbPerNeper*ln(x).
const dbPerNeper = 8.685889638065036553

// toDecibels converts a linear magnitude to dB using a fast logarithm.
// Zero maps to -Inf.
func toDecibels(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return dbPerNeper * approx.FastLog(v)
}
