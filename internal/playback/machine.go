// Package playback gates when the signal graph may run. The Machine owns
// the playback source, asks the router for a topology on Play and decides
// whether a filter change is a live retune or a deferred graph rebuild.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
	"github.com/cwbudde/algo-bandscope/internal/audio"
	"github.com/cwbudde/algo-bandscope/internal/graph"
)

// RestartDelay is how long a filter enable/disable toggle waits before the
// graph is rebuilt. Toggles inside the window coalesce into one rebuild.
const RestartDelay = 50 * time.Millisecond

// ErrNoBuffer is returned by Play when nothing has been loaded.
var ErrNoBuffer = errors.New("playback: no buffer loaded")

// Router is the part of graph.Router the machine drives.
type Router interface {
	Connect(src graph.Source, filterEnabled bool, chain *bandpass.Chain)
	Disconnect()
	Retune(highPassHz, lowPassHz float64) bool
	Graph() graph.Graph
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now for restart scheduling.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLoop sets the initial loop flag.
func WithLoop(loop bool) Option {
	return func(m *Machine) { m.loop = loop }
}

// WithFilter sets the initial filter settings.
func WithFilter(s bandpass.Settings) Option {
	return func(m *Machine) { m.filter = s.Normalize() }
}

// WithStateHook registers a callback for every state transition.
func WithStateHook(fn func(from, to State)) Option {
	return func(m *Machine) { m.onState = fn }
}

// Machine is the playback state machine. It is driven from a single
// control goroutine and is not safe for concurrent use.
type Machine struct {
	ctx    *audio.Context
	router Router
	logger *slog.Logger
	now    func() time.Time

	state  State
	buf    *audio.Buffer
	source *audio.BufferSource
	loop   bool
	filter bandpass.Settings

	liveFiltered   bool
	restartPending bool
	restartAt      time.Time

	onState func(from, to State)
}

// New returns an idle machine rendering through router into ctx.
func New(ctx *audio.Context, router Router, opts ...Option) *Machine {
	m := &Machine{
		ctx:    ctx,
		router: router,
		logger: slog.Default(),
		now:    time.Now,
		loop:   true,
		filter: bandpass.DefaultSettings(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Filter returns the active filter settings.
func (m *Machine) Filter() bandpass.Settings { return m.filter }

// Loop reports the loop flag used for new sources.
func (m *Machine) Loop() bool { return m.loop }

// Buffer returns the loaded buffer, or nil.
func (m *Machine) Buffer() *audio.Buffer { return m.buf }

// RestartPending reports whether a graph rebuild is scheduled.
func (m *Machine) RestartPending() bool { return m.restartPending }

// Position returns the offset of the live source.
func (m *Machine) Position() time.Duration {
	if m.source == nil {
		return 0
	}
	return m.source.Position()
}

// Load installs a decoded buffer, stopping any running session first.
func (m *Machine) Load(buf *audio.Buffer) {
	m.teardown()
	m.buf = buf
	m.setState(Idle)
}

// Play starts a new session from Idle or Stopped. From Paused it resumes
// the existing session. Play while already playing is ignored.
func (m *Machine) Play(ctx context.Context) error {
	switch m.state {
	case Playing:
		return nil
	case Paused:
		return m.Resume(ctx)
	}

	if m.buf == nil {
		m.logger.Warn("play without a buffer")
		return ErrNoBuffer
	}
	if m.ctx == nil {
		m.logger.Warn("play skipped", "err", audio.ErrNotReady)
		return nil
	}

	switch m.ctx.State() {
	case audio.StateClosed:
		return fmt.Errorf("play: %w", audio.ErrContextClosed)
	case audio.StateSuspended:
		if err := m.ctx.Resume(ctx); err != nil {
			return fmt.Errorf("play: resume audio: %w", err)
		}
	}

	m.start()

	return nil
}

// Pause suspends the audio clock; the graph stays connected.
func (m *Machine) Pause() {
	if m.state != Playing {
		return
	}

	if err := m.ctx.Suspend(); err != nil {
		m.logger.Warn("pause", "err", err)
		return
	}

	m.setState(Paused)
}

// Resume restarts the audio clock of a paused session.
func (m *Machine) Resume(ctx context.Context) error {
	if m.state != Paused {
		return nil
	}

	if err := m.ctx.Resume(ctx); err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	m.setState(Playing)

	return nil
}

// Stop tears down the source and the graph. Stopping an idle or stopped
// machine is a no-op.
func (m *Machine) Stop() {
	m.teardown()

	if m.state == Playing || m.state == Paused {
		m.setState(Stopped)
	}
}

// SetLoop changes the loop flag of the live source and of future ones.
func (m *Machine) SetLoop(loop bool) {
	m.loop = loop
	if m.source != nil {
		m.source.SetLoop(loop)
	}
}

// SetFilter applies new filter settings. Cutoff changes retune the live
// chain in place; a change of Enabled is handed to ToggleFiltering.
func (m *Machine) SetFilter(s bandpass.Settings) {
	s = s.Normalize()
	prev := m.filter
	m.filter = s

	if !s.SameBand(prev) {
		m.router.Retune(s.HighPassHz, s.LowPassHz)
	}

	if s.Enabled != prev.Enabled {
		m.ToggleFiltering()
	}
}

// ToggleFiltering schedules a graph rebuild RestartDelay from now.
// Re-arming moves the deadline instead of queueing a second rebuild.
func (m *Machine) ToggleFiltering() {
	if m.state != Playing && m.state != Paused {
		return
	}

	m.restartPending = true
	m.restartAt = m.now().Add(RestartDelay)
	m.logger.Debug("graph rebuild scheduled", "enabled", m.filter.Enabled, "at", m.restartAt)
}

// Tick advances time-driven transitions: a finished non-looping source
// stops the session, and a due rebuild is performed once.
func (m *Machine) Tick(now time.Time) {
	if m.state == Playing && m.source != nil && m.source.Ended() {
		m.logger.Debug("source ended")
		m.Stop()
		return
	}

	if !m.restartPending || m.state != Playing || now.Before(m.restartAt) {
		return
	}

	m.restartPending = false
	if m.filter.Enabled == m.liveFiltered {
		m.logger.Debug("graph rebuild skipped, topology unchanged")
		return
	}

	m.teardown()
	m.start()
	m.logger.Debug("graph rebuilt", "filtered", m.liveFiltered)
}

func (m *Machine) start() {
	src := audio.NewBufferSource(m.buf, m.loop)

	var chain *bandpass.Chain
	if m.filter.Enabled {
		chain = bandpass.Build(m.filter.HighPassHz, m.filter.LowPassHz, m.ctx.SampleRate())
	}

	m.router.Connect(src, m.filter.Enabled, chain)
	src.Start()

	m.source = src
	m.liveFiltered = m.filter.Enabled
	m.setState(Playing)
}

func (m *Machine) teardown() {
	if m.source != nil {
		m.source.Stop()
		m.source = nil
	}

	m.router.Disconnect()
	m.restartPending = false
	m.liveFiltered = false
}

func (m *Machine) setState(s State) {
	if s == m.state {
		return
	}

	from := m.state
	m.state = s
	m.logger.Debug("playback state", "from", from, "to", s)

	if m.onState != nil {
		m.onState(from, s)
	}
}
