// Package session owns the pieces of one monitoring session and advances
// them from a single control goroutine: playback, routing, analysis and the
// spectrogram image.
package session

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-bandscope/dsp/core"
	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
	"github.com/cwbudde/algo-bandscope/dsp/spectrum"
	"github.com/cwbudde/algo-bandscope/internal/audio"
	"github.com/cwbudde/algo-bandscope/internal/graph"
	"github.com/cwbudde/algo-bandscope/internal/playback"
	"github.com/cwbudde/algo-bandscope/internal/recording"
	"github.com/cwbudde/algo-bandscope/internal/settings"
	"github.com/cwbudde/algo-bandscope/internal/spectrogram"
)

// TickInterval is the nominal spacing of Tick calls.
const TickInterval = time.Second / 60

// Option configures a Session.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	now           func() time.Time
	blockSize     int
	width, height int
	device        recording.Device
	onStop        func(last *image.RGBA)
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBlockSize sets the render quantum.
func WithBlockSize(n int) Option {
	return func(c *config) { c.blockSize = n }
}

// WithImageSize sets the spectrogram size in pixels.
func WithImageSize(width, height int) Option {
	return func(c *config) { c.width, c.height = width, height }
}

// WithCaptureDevice enables recording from device.
func WithCaptureDevice(d recording.Device) Option {
	return func(c *config) { c.device = d }
}

// WithStopHook calls fn with the last composed frame whenever a playback
// session stops, before the image is cleared. fn must not keep the image.
func WithStopHook(fn func(last *image.RGBA)) Option {
	return func(c *config) { c.onStop = fn }
}

// Frame is what one tick produced.
type Frame struct {
	Image    *image.RGBA
	Live     bool
	State    playback.State
	Position time.Duration
}

// Session wires the audio context, router, playback machine, analyser and
// renderer together. Only the audio device goroutine calls into the
// context concurrently; everything else runs on the caller's goroutine.
type Session struct {
	logger *slog.Logger
	now    func() time.Time

	ctx      *audio.Context
	tap      *analysisTap
	output   *levelTap
	router   *graph.Router
	player   *playback.Machine
	recorder *recording.Machine
	renderer *spectrogram.Renderer

	onStop      func(*image.RGBA)
	settings    settings.Settings
	snapshot    []uint8
	placeholder *image.RGBA
}

// New builds a session rendering at sampleRate with the given settings.
func New(sampleRate int, s settings.Settings, opts ...Option) (*Session, error) {
	cfg := config{
		logger:    slog.Default(),
		now:       time.Now,
		blockSize: core.DefaultProcessorConfig().BlockSize,
		width:     spectrogram.DefaultWidth,
		height:    spectrogram.DefaultHeight,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("session: sample rate must be > 0: %d", sampleRate)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s = s.Normalize()

	ctx, err := audio.NewContext(
		audio.WithProcessorOptions(core.WithSampleRate(float64(sampleRate)), core.WithBlockSize(cfg.blockSize)),
		audio.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, err
	}

	analyser, err := spectrum.NewAnalyser(s.AnalyserOptions()...)
	if err != nil {
		return nil, err
	}

	renderer, err := spectrogram.New(s.Axis,
		spectrogram.WithSize(cfg.width, cfg.height),
		spectrogram.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}

	sess := &Session{
		logger:   cfg.logger,
		now:      cfg.now,
		ctx:      ctx,
		tap:      &analysisTap{},
		output:   newLevelTap(),
		renderer: renderer,
		onStop:   cfg.onStop,
		settings: s,
	}
	sess.tap.a.Store(analyser)

	sess.router = graph.NewRouter(ctx, sess.tap,
		graph.WithLogger(cfg.logger),
		graph.WithOutputTap(sess.output))

	sess.player = playback.New(ctx, sess.router,
		playback.WithLogger(cfg.logger),
		playback.WithClock(cfg.now),
		playback.WithLoop(s.Loop),
		playback.WithFilter(s.Filter),
		playback.WithStateHook(sess.onPlaybackState))

	if cfg.device != nil {
		sess.recorder = recording.New(cfg.device,
			recording.WithLogger(cfg.logger),
			recording.WithClock(cfg.now))
	}

	return sess, nil
}

// Context returns the audio context the output device pulls from.
func (s *Session) Context() *audio.Context { return s.ctx }

// Playback returns the playback machine.
func (s *Session) Playback() *playback.Machine { return s.player }

// Recorder returns the recording machine, or nil without a capture device.
func (s *Session) Recorder() *recording.Machine { return s.recorder }

// Renderer returns the spectrogram renderer.
func (s *Session) Renderer() *spectrogram.Renderer { return s.renderer }

// Analyser returns the analyser currently fed by the analysis tap.
func (s *Session) Analyser() *spectrum.Analyser { return s.tap.a.Load() }

// Settings returns the applied settings.
func (s *Session) Settings() settings.Settings { return s.settings }

// Load installs buf for playback, resampling it to the context rate.
func (s *Session) Load(buf *audio.Buffer) error {
	if buf == nil {
		return fmt.Errorf("session: load: %w", audio.ErrInvalidBuffer)
	}

	rate := int(s.ctx.SampleRate())
	if buf.SampleRate != rate {
		s.logger.Debug("resampling input", "from", buf.SampleRate, "to", rate)
		converted, err := buf.Resample(rate)
		if err != nil {
			return fmt.Errorf("session: load: %w", err)
		}
		buf = converted
	}

	s.player.Load(buf)

	return nil
}

// LoadRecording installs a finished take for playback.
func (s *Session) LoadRecording(rec *recording.Recording) error {
	if rec == nil {
		return fmt.Errorf("session: load recording: %w", audio.ErrInvalidBuffer)
	}
	return s.Load(rec.Buffer)
}

// Play starts or resumes playback.
func (s *Session) Play(ctx context.Context) error { return s.player.Play(ctx) }

// Pause suspends playback.
func (s *Session) Pause() { s.player.Pause() }

// Resume continues a paused session.
func (s *Session) Resume(ctx context.Context) error { return s.player.Resume(ctx) }

// Stop ends playback.
func (s *Session) Stop() { s.player.Stop() }

// SetFilter applies new filter settings.
func (s *Session) SetFilter(f bandpass.Settings) {
	s.player.SetFilter(f)
	s.settings.Filter = s.player.Filter()
}

// ApplyPreset moves the cutoffs to a named preset.
func (s *Session) ApplyPreset(name string) error {
	p, ok := bandpass.LookupPreset(name)
	if !ok {
		return fmt.Errorf("session: unknown preset %q", name)
	}
	s.SetFilter(p.Apply(s.settings.Filter))

	return nil
}

// Apply switches to new settings. Filter changes go through the playback
// machine, an axis change resets the image and an analyser change
// replaces the analyser.
func (s *Session) Apply(next settings.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	next = next.Normalize()

	if next.Analyser != s.settings.Analyser {
		a, err := spectrum.NewAnalyser(next.AnalyserOptions()...)
		if err != nil {
			return err
		}
		s.tap.a.Store(a)
		s.snapshot = nil
	}

	if _, err := s.renderer.SetAxis(next.Axis); err != nil {
		return err
	}

	s.player.SetLoop(next.Loop)
	s.player.SetFilter(next.Filter)
	next.Filter = s.player.Filter()

	s.settings = next

	return nil
}

// Tick advances the playback machine and, while playing, renders one
// spectrogram column from the analysis tap.
func (s *Session) Tick(now time.Time) Frame {
	s.player.Tick(now)

	f := Frame{State: s.player.State(), Position: s.player.Position()}

	switch f.State {
	case playback.Playing:
		s.snapshot = s.Analyser().ByteFrequencyData(s.snapshot)
		nyquist := s.ctx.SampleRate() / 2
		f.Image = s.renderer.Push(s.snapshot, nyquist, spectrogram.Overlay{Filter: s.player.Filter()})
		f.Live = true
	case playback.Paused:
		f.Image = s.renderer.Frame()
	default:
		if s.placeholder == nil {
			s.placeholder = s.renderer.Placeholder()
		}
		f.Image = s.placeholder
	}

	return f
}

// Levels returns the level of the analysed input and of the last output
// block.
func (s *Session) Levels() (in, out spectrum.Level) {
	return s.Analyser().Level(), s.output.Level()
}

// Close stops playback and recording and closes the audio context.
func (s *Session) Close() error {
	s.player.Stop()
	if s.recorder != nil {
		s.recorder.Cancel()
	}
	return s.ctx.Close()
}

func (s *Session) onPlaybackState(from, to playback.State) {
	if to == playback.Stopped && (from == playback.Playing || from == playback.Paused) && s.onStop != nil {
		s.onStop(s.renderer.Frame())
	}
	if to == playback.Stopped || to == playback.Idle {
		s.renderer.Reset()
		s.Analyser().Reset()
		s.output.reset()
	}
	s.logger.Debug("session playback", "from", from, "to", to)
}
