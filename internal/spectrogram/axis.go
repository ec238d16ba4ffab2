package spectrogram

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidAxis reports an unusable frequency range.
var ErrInvalidAxis = errors.New("spectrogram: invalid frequency axis")

// logFloorHz keeps the logarithmic mapping away from ln(0).
const logFloorHz = 20.0

// Scale selects how rows are spread over frequency.
type Scale int

const (
	Linear Scale = iota
	Logarithmic
)

func (s Scale) String() string {
	switch s {
	case Linear:
		return "linear"
	case Logarithmic:
		return "logarithmic"
	default:
		return fmt.Sprintf("Scale(%d)", int(s))
	}
}

// ParseScale accepts "linear", "lin", "logarithmic" or "log".
func ParseScale(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "lin":
		return Linear, nil
	case "logarithmic", "log":
		return Logarithmic, nil
	default:
		return 0, fmt.Errorf("%w: unknown scale %q", ErrInvalidAxis, name)
	}
}

func (s Scale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scale) UnmarshalText(b []byte) error {
	v, err := ParseScale(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// FrequencyAxis maps pixel rows to frequencies. Row 0 is the top of the
// image and shows MaxHz.
type FrequencyAxis struct {
	MinHz float64 `json:"minHz"`
	MaxHz float64 `json:"maxHz"`
	Scale Scale   `json:"scale"`
}

// DefaultAxis is a logarithmic 0–20 kHz display.
func DefaultAxis() FrequencyAxis {
	return FrequencyAxis{MinHz: 0, MaxHz: 20000, Scale: Logarithmic}
}

// Validate checks that the range is non-empty and, for a logarithmic
// scale, reaches above the 20 Hz floor.
func (a FrequencyAxis) Validate() error {
	switch {
	case math.IsNaN(a.MinHz) || math.IsNaN(a.MaxHz) || math.IsInf(a.MinHz, 0) || math.IsInf(a.MaxHz, 0):
		return fmt.Errorf("%w: non-finite range", ErrInvalidAxis)
	case a.MinHz < 0:
		return fmt.Errorf("%w: min frequency must be >= 0: %g", ErrInvalidAxis, a.MinHz)
	case a.MaxHz <= a.MinHz:
		return fmt.Errorf("%w: max frequency %g must exceed min %g", ErrInvalidAxis, a.MaxHz, a.MinHz)
	case a.Scale == Logarithmic && a.MaxHz <= logFloorHz:
		return fmt.Errorf("%w: logarithmic axis needs max > %g Hz", ErrInvalidAxis, logFloorHz)
	case a.Scale != Linear && a.Scale != Logarithmic:
		return fmt.Errorf("%w: %v", ErrInvalidAxis, a.Scale)
	}
	return nil
}

// RowToFreq returns the frequency shown at row y of an image height rows
// tall.
func (a FrequencyAxis) RowToFreq(y, height int) float64 {
	frac := float64(y) / float64(height)
	if a.Scale == Logarithmic {
		logMin, logMax := a.logBounds()
		return math.Exp(logMax - frac*(logMax-logMin))
	}
	return a.MaxHz - frac*(a.MaxHz-a.MinHz)
}

// FreqToRow is the inverse of RowToFreq. The result is fractional and may
// fall outside [0, height] for frequencies off the axis.
func (a FrequencyAxis) FreqToRow(freq float64, height int) float64 {
	h := float64(height)
	if a.Scale == Logarithmic {
		logMin, logMax := a.logBounds()
		return h - (math.Log(math.Max(freq, math.SmallestNonzeroFloat64))-logMin)/(logMax-logMin)*h
	}
	return h - (freq-a.MinHz)/(a.MaxHz-a.MinHz)*h
}

// Row returns the pixel row for freq clamped to [0, height-1].
func (a FrequencyAxis) Row(freq float64, height int) int {
	y := int(math.Round(a.FreqToRow(freq, height)))
	return max(0, min(height-1, y))
}

// Contains reports whether freq lies on the visible axis.
func (a FrequencyAxis) Contains(freq float64) bool {
	lo := a.MinHz
	if a.Scale == Logarithmic {
		lo = math.Max(lo, logFloorHz)
	}
	return freq >= lo && freq <= a.MaxHz
}

func (a FrequencyAxis) logBounds() (float64, float64) {
	return math.Log(math.Max(a.MinHz, logFloorHz)), math.Log(a.MaxHz)
}
