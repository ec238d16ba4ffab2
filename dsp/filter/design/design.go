package design

import (
	"math"

	"github.com/cwbudde/algo-bandscope/dsp/filter/biquad"
)

// DefaultQ is the Butterworth quality factor 1/sqrt(2).
const DefaultQ = 1 / math.Sqrt2

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	return cookbook(freq, q, sampleRate, func(cw float64) (b0, b1 float64) {
		return (1 - cw) / 2, 1 - cw
	})
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	return cookbook(freq, q, sampleRate, func(cw float64) (b0, b1 float64) {
		return (1 + cw) / 2, -(1 + cw)
	})
}

// cookbook builds a second-order section whose numerator is symmetric
// (b2 == b0), sharing the denominator of the RBJ lowpass and highpass.
func cookbook(freq, q, sampleRate float64, numerator func(cw float64) (b0, b1 float64)) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * normalizedQ(q))
	b0, b1 := numerator(cw)

	a0 := 1 + alpha
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b0 / a0,
		A1: -2 * cw / a0,
		A2: (1 - alpha) / a0,
	}
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return DefaultQ
	}

	return q
}
