package bandpass

import (
	"fmt"

	"github.com/cwbudde/algo-bandscope/dsp/core"
	"github.com/cwbudde/algo-bandscope/dsp/filter/biquad"
	"github.com/cwbudde/algo-bandscope/dsp/filter/design"
)

// Kind selects the response of a single stage.
type Kind int

const (
	HighPass Kind = iota
	LowPass
)

func (k Kind) String() string {
	switch k {
	case HighPass:
		return "highpass"
	case LowPass:
		return "lowpass"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Q is the fixed quality factor of every stage (maximally flat).
const Q = design.DefaultQ

const (
	minCutoffHz    = 1.0
	maxCutoffRatio = 0.49
)

// Stage is one second-order section of a band-pass chain. Its kind and Q
// never change; the cutoff can be moved with SetCutoff.
type Stage struct {
	kind       Kind
	cutoffHz   float64
	sampleRate float64
	section    *biquad.Section
}

// NewStage returns a standalone stage. Cutoffs outside the designable range
// are clamped to [1 Hz, 0.49*sampleRate], so the returned stage is always
// a valid, stable section.
func NewStage(kind Kind, cutoffHz, sampleRate float64) *Stage {
	s := &Stage{kind: kind, sampleRate: sampleRate}
	s.cutoffHz = clampCutoff(cutoffHz, sampleRate)
	s.section = biquad.NewSection(stageCoefficients(kind, s.cutoffHz, sampleRate))

	return s
}

// Kind returns the response type of the stage.
func (s *Stage) Kind() Kind { return s.kind }

// CutoffHz returns the effective (clamped) cutoff frequency.
func (s *Stage) CutoffHz() float64 { return s.cutoffHz }

// Q returns the stage quality factor.
func (s *Stage) Q() float64 { return Q }

// Connected reports whether the stage is still part of a live chain.
func (s *Stage) Connected() bool { return s.section != nil }

// Coefficients returns the current section coefficients. A disconnected
// stage reports zero coefficients.
func (s *Stage) Coefficients() biquad.Coefficients {
	if s.section == nil {
		return biquad.Coefficients{}
	}

	return s.section.Coefficients
}

// SetCutoff redesigns the section for a new cutoff, keeping its state.
func (s *Stage) SetCutoff(hz float64) {
	s.cutoffHz = clampCutoff(hz, s.sampleRate)
	if s.section != nil {
		s.section.Retune(stageCoefficients(s.kind, s.cutoffHz, s.sampleRate))
	}
}

// ProcessSample filters one sample. A disconnected stage outputs silence.
func (s *Stage) ProcessSample(x float64) float64 {
	if s.section == nil {
		return 0
	}

	return s.section.ProcessSample(x)
}

func (s *Stage) disconnect() {
	if s.section != nil {
		s.section.Reset()
	}
	s.section = nil
}

func stageCoefficients(kind Kind, cutoffHz, sampleRate float64) biquad.Coefficients {
	if kind == LowPass {
		return design.Lowpass(cutoffHz, Q, sampleRate)
	}

	return design.Highpass(cutoffHz, Q, sampleRate)
}

func clampCutoff(hz, sampleRate float64) float64 {
	if !core.IsFinite(hz) {
		hz = minCutoffHz
	}

	return core.Clamp(hz, minCutoffHz, maxCutoffRatio*sampleRate)
}
