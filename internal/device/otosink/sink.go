// Package otosink plays a rendered mono stream on the default output device
// through oto.
package otosink

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Renderer produces the next block of output samples.
type Renderer interface {
	Render(out []float64)
}

// Option configures a Sink.
type Option func(*config)

type config struct {
	latency time.Duration
	logger  *slog.Logger
}

// WithLatency sets the device buffer duration.
func WithLatency(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.latency = d
		}
	}
}

// WithLogger sets the sink logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Sink owns the oto context and player. oto pulls from the sink on its own
// goroutine.
type Sink struct {
	ctx    *oto.Context
	player *oto.Player
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// Open creates the output device at sampleRate and wires src to it. The
// player is created paused; call Start.
func Open(src Renderer, sampleRate int, opts ...Option) (*Sink, error) {
	cfg := config{latency: 50 * time.Millisecond, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.latency,
	})
	if err != nil {
		return nil, fmt.Errorf("otosink: open output: %w", err)
	}
	<-ready

	s := &Sink{ctx: ctx, logger: cfg.logger}
	s.player = ctx.NewPlayer(newReader(src))
	cfg.logger.Debug("output device ready", "sampleRate", sampleRate, "latency", cfg.latency)

	return s, nil
}

// Start begins pulling audio.
func (s *Sink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started && s.player != nil {
		s.player.Play()
		s.started = true
	}
}

// Close stops playback and releases the player.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	s.started = false
	if err != nil {
		return fmt.Errorf("otosink: close: %w", err)
	}

	return nil
}

// reader adapts a Renderer to the float32 little-endian byte stream oto
// consumes.
type reader struct {
	src     Renderer
	scratch []float64
}

func newReader(src Renderer) *reader {
	return &reader{src: src}
}

func (r *reader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}
	if cap(r.scratch) < n {
		r.scratch = make([]float64, n)
	}
	block := r.scratch[:n]
	r.src.Render(block)

	for i, v := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(float32(v)))
	}

	return n * 4, nil
}
