package testutil

import (
	"math"
	"math/rand/v2"
)

// DeterministicSine returns length samples of a sine at freqHz starting at
// phase zero.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	step := 2 * math.Pi * freqHz / sampleRate
	return generate(length, func(i int) float64 {
		return amplitude * math.Sin(step*float64(i))
	})
}

// DeterministicNoise returns uniform white noise in [-amplitude, amplitude).
// The same seed always yields the same samples.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewPCG(uint64(seed), 0x62616e6473636f70))
	return generate(length, func(int) float64 {
		return (rng.Float64()*2 - 1) * amplitude
	})
}

// Impulse returns a unit impulse at pos. An out-of-range pos yields silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC returns a constant signal.
func DC(value float64, length int) []float64 {
	return generate(length, func(int) float64 { return value })
}

func generate(length int, sample func(i int) float64) []float64 {
	out := make([]float64, max(length, 0))
	for i := range out {
		out[i] = sample(i)
	}
	return out
}
