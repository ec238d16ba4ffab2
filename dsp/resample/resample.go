package resample

import (
	"errors"
	"fmt"
)

// ErrInvalidRate reports a non-positive sample rate.
var ErrInvalidRate = errors.New("resample: invalid sample rate")

// Quality selects the anti-aliasing filter.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBalanced:
		return "balanced"
	case QualityBest:
		return "best"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

type profile struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

func (q Quality) profile() profile {
	switch q {
	case QualityFast:
		return profile{tapsPerPhase: 16, cutoffScale: 0.88, kaiserBeta: 5.0}
	case QualityBest:
		return profile{tapsPerPhase: 64, cutoffScale: 0.96, kaiserBeta: 9.0}
	default:
		return profile{tapsPerPhase: 32, cutoffScale: 0.92, kaiserBeta: 7.5}
	}
}

// Option configures a Converter.
type Option func(*profile)

// WithQuality selects one of the predefined filter profiles.
func WithQuality(q Quality) Option {
	return func(p *profile) { *p = q.profile() }
}

// WithTapsPerPhase overrides the filter length per polyphase branch.
func WithTapsPerPhase(n int) Option {
	return func(p *profile) {
		if n > 0 {
			p.tapsPerPhase = n
		}
	}
}

// Converter is a streaming rational-ratio resampler. It is not safe for
// concurrent use.
type Converter struct {
	up, down int
	phases   [][]float64
	center   int // filter centre in upsampled samples

	hist     []float64
	histLen  int
	consumed int // input samples seen so far
	next     int // input index of the next output
	phase    int
}

// New returns a converter from inRate to outRate.
func New(inRate, outRate int, opts ...Option) (*Converter, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, inRate, outRate)
	}

	p := QualityBalanced.profile()
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}

	g := gcd(inRate, outRate)
	up, down := outRate/g, inRate/g

	phases, nTaps := designPolyphase(up, down, p)
	longest := 0
	for _, ph := range phases {
		longest = max(longest, len(ph))
	}

	return &Converter{
		up:      up,
		down:    down,
		phases:  phases,
		center:  (nTaps - 1) / 2,
		histLen: max(0, longest-1),
	}, nil
}

// Ratio returns the reduced up/down factors.
func (c *Converter) Ratio() (up, down int) { return c.up, c.down }

// Reset clears the streaming state.
func (c *Converter) Reset() {
	c.hist = c.hist[:0]
	c.consumed, c.next, c.phase = 0, 0, 0
}

// Process converts the next block of a stream. Output is delayed by half
// the filter length.
func (c *Converter) Process(in []float64) []float64 {
	if len(in) == 0 {
		return nil
	}

	work := make([]float64, len(c.hist)+len(in))
	copy(work, c.hist)
	copy(work[len(c.hist):], in)
	base := c.consumed - len(c.hist)

	end := c.consumed + len(in)
	var out []float64
	for c.next < end {
		i := c.next - base
		var y float64
		for k, h := range c.phases[c.phase] {
			j := i - k
			if j < 0 {
				break
			}
			y += h * work[j]
		}
		out = append(out, y)
		c.advance(c.down)
	}

	c.consumed = end
	keep := min(len(work), c.histLen)
	c.hist = append(c.hist[:0], work[len(work)-keep:]...)

	return out
}

// advance moves the output position by n upsampled samples.
func (c *Converter) advance(n int) {
	c.phase += n
	c.next += c.phase / c.up
	c.phase %= c.up
}

// Convert resamples a complete signal. The filter delay is removed so that
// output sample m lines up with input time m/outRate, and the result has
// ceil(len(in)*outRate/inRate) samples.
func Convert(in []float64, inRate, outRate int, opts ...Option) ([]float64, error) {
	c, err := New(inRate, outRate, opts...)
	if err != nil {
		return nil, err
	}
	if c.up == c.down {
		return append([]float64(nil), in...), nil
	}
	if len(in) == 0 {
		return nil, nil
	}

	want := (len(in)*c.up + c.down - 1) / c.down
	c.advance(c.center)

	padded := make([]float64, len(in)+c.center/c.up+2)
	copy(padded, in)

	out := c.Process(padded)
	if len(out) >= want {
		return out[:want], nil
	}
	return append(out, make([]float64, want-len(out))...), nil
}
