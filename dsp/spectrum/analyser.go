package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-bandscope/dsp/window"
)

const (
	minFFTSize = 32
	maxFFTSize = 32768
)

// ErrInvalidConfig is wrapped by every AnalyserConfig validation error.
var ErrInvalidConfig = errors.New("invalid analyser config")

// AnalyserConfig configures an Analyser.
type AnalyserConfig struct {
	FFTSize     int         `json:"fftSize"`
	Smoothing   float64     `json:"smoothing"`
	MinDecibels float64     `json:"minDecibels"`
	MaxDecibels float64     `json:"maxDecibels"`
	Window      window.Type `json:"window"`
}

// DefaultAnalyserConfig returns an 8192-point Blackman analyser with 0.8
// time smoothing over a -90..-10 dB byte range.
func DefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:     8192,
		Smoothing:   0.8,
		MinDecibels: -90,
		MaxDecibels: -10,
		Window:      window.TypeBlackman,
	}
}

// Validate reports a descriptive error for unusable settings.
func (c AnalyserConfig) Validate() error {
	if c.FFTSize < minFFTSize || c.FFTSize > maxFFTSize || bits.OnesCount(uint(c.FFTSize)) != 1 {
		return fmt.Errorf("%w: fft size must be a power of two in [%d, %d]: %d",
			ErrInvalidConfig, minFFTSize, maxFFTSize, c.FFTSize)
	}
	if c.Smoothing < 0 || c.Smoothing > 1 || math.IsNaN(c.Smoothing) {
		return fmt.Errorf("%w: smoothing must be in [0,1]: %f", ErrInvalidConfig, c.Smoothing)
	}
	if !(c.MinDecibels < c.MaxDecibels) {
		return fmt.Errorf("%w: min decibels must be below max decibels: %f >= %f",
			ErrInvalidConfig, c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// AnalyserOption mutates an AnalyserConfig.
type AnalyserOption func(*AnalyserConfig)

// WithFFTSize sets the transform length.
func WithFFTSize(n int) AnalyserOption {
	return func(c *AnalyserConfig) { c.FFTSize = n }
}

// WithSmoothing sets the time-averaging constant in [0,1].
func WithSmoothing(v float64) AnalyserOption {
	return func(c *AnalyserConfig) { c.Smoothing = v }
}

// WithDecibelRange sets the dB range mapped onto bytes 0..255.
func WithDecibelRange(minDB, maxDB float64) AnalyserOption {
	return func(c *AnalyserConfig) {
		c.MinDecibels = minDB
		c.MaxDecibels = maxDB
	}
}

// WithWindow selects the analysis window.
func WithWindow(t window.Type) AnalyserOption {
	return func(c *AnalyserConfig) { c.Window = t }
}

// Analyser is a real-time magnitude analyser. Write may be called from the
// render goroutine while snapshots are read from another goroutine.
type Analyser struct {
	mu sync.Mutex

	cfg  AnalyserConfig
	plan *algofft.Plan[complex128]
	win  []float64

	ring  []float64
	write int

	frame    []float64
	in       []complex128
	out      []complex128
	mag      []float64
	smoothed []float64
}

// NewAnalyser returns an analyser configured by opts on top of
// DefaultAnalyserConfig.
func NewAnalyser(opts ...AnalyserOption) (*Analyser, error) {
	cfg := DefaultAnalyserConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("analyser: fft plan: %w", err)
	}

	n := cfg.FFTSize

	return &Analyser{
		cfg:      cfg,
		plan:     plan,
		win:      window.Generate(cfg.Window, n, window.WithPeriodic()),
		ring:     make([]float64, n),
		frame:    make([]float64, n),
		in:       make([]complex128, n),
		out:      make([]complex128, n),
		mag:      make([]float64, n/2),
		smoothed: make([]float64, n/2),
	}, nil
}

// Config returns the active configuration.
func (a *Analyser) Config() AnalyserConfig { return a.cfg }

// FrequencyBinCount returns FFTSize/2, the length of every snapshot.
func (a *Analyser) FrequencyBinCount() int { return a.cfg.FFTSize / 2 }

// Write appends samples to the analysis window. Only the most recent
// FFTSize samples are retained.
func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.ring)
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}

	for _, s := range samples {
		a.ring[a.write] = s
		a.write++
		if a.write == n {
			a.write = 0
		}
	}
}

// Reset clears the sample history and the smoothing state.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.ring)
	clear(a.smoothed)
	a.write = 0
}

// FloatFrequencyData runs one analysis and writes the smoothed magnitude of
// each bin in dB into dst, growing it when needed. Silent bins report -Inf.
func (a *Analyser) FloatFrequencyData(dst []float64) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()

	dst = grow(dst, len(a.smoothed))
	for k, v := range a.smoothed {
		dst[k] = toDecibels(v)
	}

	return dst
}

// ByteFrequencyData runs one analysis and writes each bin scaled linearly
// from [MinDecibels, MaxDecibels] onto [0, 255].
func (a *Analyser) ByteFrequencyData(dst []uint8) []uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()

	if cap(dst) < len(a.smoothed) {
		dst = make([]uint8, len(a.smoothed))
	}
	dst = dst[:len(a.smoothed)]

	minDB := a.cfg.MinDecibels
	scale := 255 / (a.cfg.MaxDecibels - minDB)

	for k, v := range a.smoothed {
		db := toDecibels(v)
		dst[k] = uint8(math.Floor(clampByte(scale * (db - minDB))))
	}

	return dst
}

// Level measures the samples currently held in the analysis window.
func (a *Analyser) Level() Level {
	a.mu.Lock()
	defer a.mu.Unlock()

	return MeasureLevel(a.ring)
}

func (a *Analyser) analyse() {
	// Oldest sample first.
	head := copy(a.frame, a.ring[a.write:])
	copy(a.frame[head:], a.ring[:a.write])

	if err := window.ApplyCoefficientsInPlace(a.frame, a.win); err != nil {
		return
	}
	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return
	}

	MagnitudeInto(a.mag, a.out)

	tau := a.cfg.Smoothing
	norm := 1 / float64(len(a.frame))
	for k, m := range a.mag {
		v := tau*a.smoothed[k] + (1-tau)*m*norm
		if !isFinite(v) {
			v = 0
		}
		a.smoothed[k] = v
	}
}

func grow(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}

func clampByte(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return v
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
