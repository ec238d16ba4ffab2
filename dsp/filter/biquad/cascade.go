package biquad

// Cascade runs n sections in series that always share one coefficient
// set: a steep filter edge built from repeated identical sections.
type Cascade struct {
	coeffs   Coefficients
	sections []Section
}

// NewCascade returns n sections designed with c. n < 1 is treated as 1.
func NewCascade(c Coefficients, n int) *Cascade {
	n = max(n, 1)

	sections := make([]Section, n)
	for i := range sections {
		sections[i].Coefficients = c
	}

	return &Cascade{coeffs: c, sections: sections}
}

// Len returns the number of sections.
func (c *Cascade) Len() int { return len(c.sections) }

// Coefficients returns the shared coefficient set.
func (c *Cascade) Coefficients() Coefficients { return c.coeffs }

// Section returns the i-th section in signal order.
func (c *Cascade) Section(i int) *Section { return &c.sections[i] }

// Retune redesigns every section at once, keeping all delay lines.
func (c *Cascade) Retune(co Coefficients) {
	c.coeffs = co
	for i := range c.sections {
		c.sections[i].Retune(co)
	}
}

// ProcessSample filters one sample through every section.
func (c *Cascade) ProcessSample(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].ProcessSample(x)
	}
	return x
}

// ProcessBlock filters buf in place, one section at a time.
func (c *Cascade) ProcessBlock(buf []float64) {
	for i := range c.sections {
		c.sections[i].ProcessBlock(buf)
	}
}

// Reset clears every delay line.
func (c *Cascade) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// Quiet reports whether every delay line is cleared.
func (c *Cascade) Quiet() bool {
	for i := range c.sections {
		if !c.sections[i].Quiet() {
			return false
		}
	}
	return true
}
