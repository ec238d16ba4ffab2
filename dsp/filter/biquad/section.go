package biquad

import "github.com/cwbudde/algo-bandscope/dsp/core"

// Coefficients of one normalised second-order section (a0 = 1) in
// transposed direct form II:
//
//	y  = B0*x + s1
//	s1 = B1*x - A1*y + s2
//	s2 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// IsZero reports whether c is the muted section returned for designs that
// cannot be realised.
func (c Coefficients) IsZero() bool { return c == Coefficients{} }

// Section is one biquad and its two-element delay line.
type Section struct {
	Coefficients

	s1, s2 float64
}

// NewSection returns a section with a cleared delay line.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.s1
	s.s1 = core.FlushDenormals(s.B1*x - s.A1*y + s.s2)
	s.s2 = core.FlushDenormals(s.B2*x - s.A2*y)

	return y
}

// ProcessBlock filters buf in place. It produces the same output as
// calling ProcessSample for each element.
func (s *Section) ProcessBlock(buf []float64) {
	c := s.Coefficients
	s1, s2 := s.s1, s.s2

	for i, x := range buf {
		y := c.B0*x + s1
		s1 = core.FlushDenormals(c.B1*x - c.A1*y + s2)
		s2 = core.FlushDenormals(c.B2*x - c.A2*y)
		buf[i] = y
	}

	s.s1, s.s2 = s1, s2
}

// Retune swaps in new coefficients without touching the delay line.
func (s *Section) Retune(c Coefficients) {
	s.Coefficients = c
}

// Reset clears the delay line.
func (s *Section) Reset() {
	s.s1, s.s2 = 0, 0
}

// State returns the two delay-line values.
func (s *Section) State() [2]float64 { return [2]float64{s.s1, s.s2} }

// Quiet reports whether the delay line holds no energy.
func (s *Section) Quiet() bool {
	return s.s1 == 0 && s.s2 == 0
}
