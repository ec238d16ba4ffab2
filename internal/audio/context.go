package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-bandscope/dsp/core"
)

// State is the run state of a Context.
type State int

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Renderer produces one block of mono output. It is always called with the
// context lock held.
type Renderer interface {
	Render(out []float64)
}

// Option configures a Context.
type Option func(*options)

type options struct {
	processor []core.ProcessorOption
	logger    *slog.Logger
	suspended bool
}

// WithProcessorOptions sets sample rate and block size.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(o *options) { o.processor = append(o.processor, opts...) }
}

// WithLogger sets the logger used for state changes.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStartSuspended creates the context in the suspended state, the way
// output devices that require a user gesture behave.
func WithStartSuspended() Option {
	return func(o *options) { o.suspended = true }
}

// Context is the audio clock and render entry point.
type Context struct {
	mu       sync.Mutex
	cfg      core.ProcessorConfig
	state    State
	frames   int64
	renderer Renderer
	block    []float64
	logger   *slog.Logger
}

// NewContext returns a running context (or a suspended one with
// WithStartSuspended).
func NewContext(opts ...Option) (*Context, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cfg := core.ApplyProcessorOptions(o.processor...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}

	c := &Context{
		cfg:    cfg,
		state:  StateRunning,
		block:  make([]float64, cfg.BlockSize),
		logger: o.logger,
	}
	if o.suspended {
		c.state = StateSuspended
	}

	return c, nil
}

// SampleRate returns the context sample rate in Hz.
func (c *Context) SampleRate() float64 { return c.cfg.SampleRate }

// BlockSize returns the render quantum in frames.
func (c *Context) BlockSize() int { return c.cfg.BlockSize }

// State returns the current run state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// CurrentTime returns the amount of audio rendered while running.
func (c *Context) CurrentTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return framesToDuration(c.frames, c.cfg.SampleRate)
}

// Resume starts the clock. Resuming a running context is a no-op.
func (c *Context) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrContextClosed
	case StateSuspended:
		c.state = StateRunning
		c.logger.Debug("audio context resumed")
	}

	return nil
}

// Suspend halts the clock without touching the graph.
func (c *Context) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrContextClosed
	case StateRunning:
		c.state = StateSuspended
		c.logger.Debug("audio context suspended")
	}

	return nil
}

// Close releases the context. Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateClosed {
		c.state = StateClosed
		c.renderer = nil
		c.logger.Debug("audio context closed")
	}

	return nil
}

// SetRenderer installs the graph output. A nil renderer renders silence.
func (c *Context) SetRenderer(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.renderer = r
}

// Do runs fn with the render lock held. fn must not call back into c.
func (c *Context) Do(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn()
}

// Render fills out with the next frames of the graph. While suspended or
// closed it writes silence and the clock does not advance.
func (c *Context) Render(out []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || c.renderer == nil {
		clear(out)
		return
	}

	for len(out) > 0 {
		n := min(len(out), len(c.block))
		block := c.block[:n]
		clear(block)
		c.renderer.Render(block)
		copy(out, block)

		out = out[n:]
		c.frames += int64(n)
	}
}

func framesToDuration(frames int64, sampleRate float64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) * float64(time.Second) / sampleRate)
}
