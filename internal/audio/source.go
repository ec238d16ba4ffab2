package audio

import (
	"sync/atomic"
	"time"
)

// BufferSource plays a Buffer as a mono stream, optionally looping. Read
// runs on the render path; Ended and Position may be polled from any
// goroutine.
type BufferSource struct {
	data       []float64
	sampleRate float64

	loop    atomic.Bool
	started atomic.Bool
	stopped atomic.Bool
	ended   atomic.Bool
	pos     atomic.Int64
}

// NewBufferSource returns an unstarted source over buf.
func NewBufferSource(buf *Buffer, loop bool) *BufferSource {
	s := &BufferSource{
		data:       buf.Mono(),
		sampleRate: float64(buf.SampleRate),
	}
	s.loop.Store(loop)

	return s
}

// Start begins output on the next render.
func (s *BufferSource) Start() { s.started.Store(true) }

// Stop silences the source for good. Stopping twice is a no-op.
func (s *BufferSource) Stop() { s.stopped.Store(true) }

// SetLoop changes the loop flag of a live source.
func (s *BufferSource) SetLoop(loop bool) { s.loop.Store(loop) }

// Loop reports the loop flag.
func (s *BufferSource) Loop() bool { return s.loop.Load() }

// Ended reports whether a non-looping source ran past its last frame.
func (s *BufferSource) Ended() bool { return s.ended.Load() }

// Position returns the playback offset within the buffer.
func (s *BufferSource) Position() time.Duration {
	return framesToDuration(s.pos.Load(), s.sampleRate)
}

// Read fills dst with the next frames and returns how many came from the
// buffer. The rest of dst is zeroed.
func (s *BufferSource) Read(dst []float64) int {
	if !s.started.Load() || s.stopped.Load() || s.ended.Load() || len(s.data) == 0 {
		clear(dst)
		return 0
	}

	pos := int(s.pos.Load())
	n := 0

	for n < len(dst) {
		if pos >= len(s.data) {
			if !s.loop.Load() {
				s.ended.Store(true)
				break
			}
			pos = 0
		}

		c := copy(dst[n:], s.data[pos:])
		n += c
		pos += c
	}

	if pos >= len(s.data) && !s.loop.Load() {
		s.ended.Store(true)
	}

	clear(dst[n:])
	s.pos.Store(int64(pos))

	return n
}
