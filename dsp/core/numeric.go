package core

import "math"

// denormalThreshold bounds the range FlushDenormals maps to zero.
const denormalThreshold = 1e-30

// Clamp limits value to the inclusive range [min, max]. Swapped bounds are
// reordered.
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FlushDenormals returns 0 for values inside (-1e-30, 1e-30) and x otherwise.
func FlushDenormals(x float64) float64 {
	if x > -denormalThreshold && x < denormalThreshold {
		return 0
	}
	return x
}

// AmplitudeToDB converts a linear amplitude to decibels (20*log10).
// Zero and negative amplitudes read -Inf.
func AmplitudeToDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}

// ShiftOctaves moves hz by n octaves; negative n moves down.
func ShiftOctaves(hz, n float64) float64 {
	return hz * math.Exp2(n)
}
