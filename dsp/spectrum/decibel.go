//go:build !fastmath

package spectrum

import "github.com/cwbudde/algo-bandscope/dsp/core"

// toDecibels converts a linear magnitude to dB. Zero maps to -Inf.
func toDecibels(v float64) float64 { return core.AmplitudeToDB(v) }
