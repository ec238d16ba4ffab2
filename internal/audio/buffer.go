package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-bandscope/dsp/resample"
)

// Buffer is decoded, de-interleaved audio. It is treated as read-only once
// installed.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// NewBuffer validates and wraps channel data. All channels must have the
// same length.
func NewBuffer(sampleRate int, channels ...[]float64) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidBuffer, sampleRate)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidBuffer)
	}
	for i, ch := range channels[1:] {
		if len(ch) != len(channels[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d",
				ErrInvalidBuffer, i+1, len(ch), len(channels[0]))
		}
	}

	return &Buffer{SampleRate: sampleRate, Channels: channels}, nil
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int { return len(b.Channels) }

// Frames returns the length in sample frames.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	return framesToDuration(int64(b.Frames()), float64(b.SampleRate))
}

// Mono returns the average of all channels. A mono buffer returns its
// only channel without copying.
func (b *Buffer) Mono() []float64 {
	switch len(b.Channels) {
	case 0:
		return nil
	case 1:
		return b.Channels[0]
	}

	out := make([]float64, b.Frames())
	for _, ch := range b.Channels {
		for i, v := range ch {
			out[i] += v
		}
	}

	scale := 1 / float64(len(b.Channels))
	for i := range out {
		out[i] *= scale
	}

	return out
}

// Trim returns a copy holding the frames between start and end. Both
// offsets are floored to whole frames.
func (b *Buffer) Trim(start, end time.Duration) (*Buffer, error) {
	sr := float64(b.SampleRate)
	first := int(math.Floor(start.Seconds() * sr))
	last := int(math.Floor(end.Seconds() * sr))

	if first < 0 || last > b.Frames() || last <= first {
		return nil, fmt.Errorf("%w: trim range [%v, %v] outside [0, %v]",
			ErrInvalidBuffer, start, end, b.Duration())
	}

	channels := make([][]float64, len(b.Channels))
	for i, ch := range b.Channels {
		channels[i] = append([]float64(nil), ch[first:last]...)
	}

	return &Buffer{SampleRate: b.SampleRate, Channels: channels}, nil
}

// Resample converts every channel to sampleRate. A buffer already at that
// rate is returned as is.
func (b *Buffer) Resample(sampleRate int, opts ...resample.Option) (*Buffer, error) {
	if sampleRate == b.SampleRate {
		return b, nil
	}

	channels := make([][]float64, len(b.Channels))
	for i, ch := range b.Channels {
		out, err := resample.Convert(ch, b.SampleRate, sampleRate, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBuffer, err)
		}
		channels[i] = out
	}

	return &Buffer{SampleRate: sampleRate, Channels: channels}, nil
}
