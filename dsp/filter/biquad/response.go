package biquad

import "math"

// MagnitudeSquared returns |H(f)|^2 in closed form.
func (c Coefficients) MagnitudeSquared(freqHz, sampleRate float64) float64 {
	cw := 2 * math.Cos(2*math.Pi*freqHz/sampleRate)
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	num := (b0-b2)*(b0-b2) + b1*b1 + (b1*(b0+b2)+b0*b2*cw)*cw
	den := (1-a2)*(1-a2) + a1*a1 + (a1*(a2+1)+cw*a2)*cw
	return num / den
}

// MagnitudeDB returns the section gain at freqHz in dB.
func (c Coefficients) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 10 * math.Log10(c.MagnitudeSquared(freqHz, sampleRate))
}

// Stable reports whether both poles lie inside the unit circle, using the
// stability triangle |A2| < 1, |A1| < 1 + A2.
func (c Coefficients) Stable() bool {
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

// MagnitudeDB returns the gain of the whole cascade at freqHz in dB,
// summed per section so that individually retuned sections are honoured.
func (c *Cascade) MagnitudeDB(freqHz, sampleRate float64) float64 {
	db := 0.0
	for i := range c.sections {
		db += c.sections[i].MagnitudeDB(freqHz, sampleRate)
	}
	return db
}

// Stable reports whether every section is stable.
func (c *Cascade) Stable() bool {
	for i := range c.sections {
		if !c.sections[i].Stable() {
			return false
		}
	}
	return true
}
