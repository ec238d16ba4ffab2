package bandpass

import (
	"math"

	"github.com/cwbudde/algo-bandscope/dsp/filter/biquad"
)

// StagesPerSide is the number of sections on each edge of the band.
const StagesPerSide = 16

// Chain is a band-pass cascade: StagesPerSide high-pass stages feeding
// StagesPerSide low-pass stages.
type Chain struct {
	sampleRate float64
	highPassHz float64
	lowPassHz  float64

	hp, lp *biquad.Cascade
	stages []*Stage
	torn   bool
}

// Build constructs a fully connected chain for the given cutoffs.
func Build(highPassHz, lowPassHz, sampleRate float64) *Chain {
	c := &Chain{sampleRate: sampleRate}
	c.highPassHz = clampCutoff(highPassHz, sampleRate)
	c.lowPassHz = clampCutoff(lowPassHz, sampleRate)

	c.hp = biquad.NewCascade(stageCoefficients(HighPass, c.highPassHz, sampleRate), StagesPerSide)
	c.lp = biquad.NewCascade(stageCoefficients(LowPass, c.lowPassHz, sampleRate), StagesPerSide)

	c.stages = make([]*Stage, 0, 2*StagesPerSide)
	for i := range StagesPerSide {
		c.stages = append(c.stages, &Stage{
			kind:       HighPass,
			cutoffHz:   c.highPassHz,
			sampleRate: sampleRate,
			section:    c.hp.Section(i),
		})
	}

	for i := range StagesPerSide {
		c.stages = append(c.stages, &Stage{
			kind:       LowPass,
			cutoffHz:   c.lowPassHz,
			sampleRate: sampleRate,
			section:    c.lp.Section(i),
		})
	}

	return c
}

// Retune moves both edges of a live chain. Every section keeps its delay
// line, so the change is click-free and may be applied once per tick.
// Retuning a torn-down chain only records the new cutoffs.
func (c *Chain) Retune(highPassHz, lowPassHz float64) {
	c.highPassHz = clampCutoff(highPassHz, c.sampleRate)
	c.lowPassHz = clampCutoff(lowPassHz, c.sampleRate)

	for _, s := range c.stages {
		if s.kind == HighPass {
			s.cutoffHz = c.highPassHz
		} else {
			s.cutoffHz = c.lowPassHz
		}
	}

	if c.torn {
		return
	}

	c.hp.Retune(stageCoefficients(HighPass, c.highPassHz, c.sampleRate))
	c.lp.Retune(stageCoefficients(LowPass, c.lowPassHz, c.sampleRate))
}

// Teardown disconnects every stage. Calling it again is a no-op.
func (c *Chain) Teardown() {
	if c.torn {
		return
	}

	for _, s := range c.stages {
		s.disconnect()
	}

	c.torn = true
}

// TornDown reports whether Teardown has been called.
func (c *Chain) TornDown() bool { return c.torn }

// ProcessBlock filters buf in place through the high-pass then the
// low-pass cascade. A torn-down chain writes silence.
func (c *Chain) ProcessBlock(buf []float64) {
	if c.torn {
		clear(buf)
		return
	}

	c.hp.ProcessBlock(buf)
	c.lp.ProcessBlock(buf)
}

// ProcessSample filters one sample.
func (c *Chain) ProcessSample(x float64) float64 {
	if c.torn {
		return 0
	}

	return c.lp.ProcessSample(c.hp.ProcessSample(x))
}

// Reset clears the delay lines of every section.
func (c *Chain) Reset() {
	if c.torn {
		return
	}

	c.hp.Reset()
	c.lp.Reset()
}

// MagnitudeDB returns the cascade gain in dB at freqHz. A torn-down chain
// reports -Inf.
func (c *Chain) MagnitudeDB(freqHz float64) float64 {
	if c.torn {
		return math.Inf(-1)
	}

	return c.hp.MagnitudeDB(freqHz, c.sampleRate) + c.lp.MagnitudeDB(freqHz, c.sampleRate)
}

// Stable reports whether every section is stable.
func (c *Chain) Stable() bool {
	if c.torn {
		return true
	}

	return c.hp.Stable() && c.lp.Stable()
}

// Stages returns the stages in signal order (high-pass first).
func (c *Chain) Stages() []*Stage {
	out := make([]*Stage, len(c.stages))
	copy(out, c.stages)

	return out
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// FirstHighPass returns the stage that receives the chain input.
func (c *Chain) FirstHighPass() *Stage { return c.stages[0] }

// LastHighPass returns the stage feeding the low-pass cascade.
func (c *Chain) LastHighPass() *Stage { return c.stages[StagesPerSide-1] }

// FirstLowPass returns the first low-pass stage.
func (c *Chain) FirstLowPass() *Stage { return c.stages[StagesPerSide] }

// LastLowPass returns the stage that produces the chain output.
func (c *Chain) LastLowPass() *Stage { return c.stages[len(c.stages)-1] }

// HighPassHz returns the effective high-pass cutoff.
func (c *Chain) HighPassHz() float64 { return c.highPassHz }

// LowPassHz returns the effective low-pass cutoff.
func (c *Chain) LowPassHz() float64 { return c.lowPassHz }

// SampleRate returns the rate the chain was designed for.
func (c *Chain) SampleRate() float64 { return c.sampleRate }
