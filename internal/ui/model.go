package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-bandscope/dsp/core"
	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
	"github.com/cwbudde/algo-bandscope/internal/playback"
	"github.com/cwbudde/algo-bandscope/internal/recording"
	"github.com/cwbudde/algo-bandscope/internal/session"
	"github.com/cwbudde/algo-bandscope/internal/settings"
	"github.com/cwbudde/algo-bandscope/internal/spectrogram"
)

// One key press moves a cutoff by a third of an octave.
const cutoffStepOctaves = 1.0 / 3

// Below this a lowered high-pass snaps to 0 Hz (off).
const minStepHz = 20.0

type tickMsg struct {
	at  time.Time
	gen int
}

// Option configures a Model.
type Option func(*Model)

// WithContext sets the context used for play and capture requests.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithSettingsUpdates feeds settings reloaded from disk into the model.
func WithSettingsUpdates(ch <-chan settings.Settings) Option {
	return func(m *Model) { m.updates = ch }
}

// WithTitle sets the subtitle shown next to the program name.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithClock replaces time.Now for frames refreshed outside the tick loop.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// Model is the terminal front end of a session.
type Model struct {
	sess    *session.Session
	ctx     context.Context
	updates <-chan settings.Settings
	now     func() time.Time
	title   string

	Width  int
	Height int

	frame   session.Frame
	ticking bool
	tickGen int
	status  string
	err     error
}

// NewModel returns a model driving sess.
func NewModel(sess *session.Session, opts ...Option) Model {
	m := Model{
		sess: sess,
		ctx:  context.Background(),
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}

	m.frame = sess.Tick(m.now())
	if m.frame.State == playback.Playing {
		m.ticking = true
	}

	return m
}

// Init starts the tick loop when playback is already running and begins
// listening for settings changes.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.ticking {
		cmds = append(cmds, tick(m.tickGen))
	}
	if m.updates != nil {
		cmds = append(cmds, waitForSettings(m.updates))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		if msg.gen != m.tickGen || !m.ticking {
			return m, nil
		}
		m.frame = m.sess.Tick(msg.at)
		if m.frame.State != playback.Playing {
			m.ticking = false
			return m, nil
		}
		return m, tick(m.tickGen)

	case SettingsMsg:
		if err := m.sess.Apply(msg.Settings); err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = "settings reloaded"
		}
		return m, tea.Batch(m.sync(), waitForSettings(m.updates))

	case RecordingStartedMsg:
		if msg.Err != nil {
			m.err = msg.Err
		} else {
			m.status = "recording"
		}
		return m, nil

	case RecordingDoneMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		if msg.Recording == nil {
			return m, nil
		}
		if err := m.sess.LoadRecording(msg.Recording); err != nil {
			m.err = err
			return m, nil
		}
		m.status = fmt.Sprintf("loaded %s (%s)", msg.Recording.Name, formatPosition(msg.Recording.Duration))
		return m, m.sync()

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ", "space":
		m.err = m.togglePlay()

	case "s":
		m.sess.Stop()

	case "f":
		f := m.sess.Settings().Filter
		f.Enabled = !f.Enabled
		m.sess.SetFilter(f)

	case "left", "right", "down", "up":
		m.sess.SetFilter(stepCutoff(m.sess.Settings().Filter, key))

	case "1", "2", "3", "4":
		presets := bandpass.Presets()
		i := int(key[0] - '1')
		if i < len(presets) {
			m.err = m.sess.ApplyPreset(presets[i].Name)
			m.status = "preset " + presets[i].Name
		}

	case "l":
		next := m.sess.Settings()
		next.Loop = !next.Loop
		m.err = m.sess.Apply(next)

	case "a":
		next := m.sess.Settings()
		if next.Axis.Scale == spectrogram.Logarithmic {
			next.Axis.Scale = spectrogram.Linear
		} else {
			next.Axis.Scale = spectrogram.Logarithmic
		}
		m.err = m.sess.Apply(next)

	case "r":
		return m, m.toggleRecording()

	case "p":
		rec := m.sess.Recorder()
		if rec == nil {
			return m, nil
		}
		switch rec.State() {
		case recording.Capturing:
			rec.Pause()
		case recording.Paused:
			rec.Resume()
		}
		return m, nil

	default:
		return m, nil
	}

	return m, m.sync()
}

func (m *Model) togglePlay() error {
	switch m.sess.Playback().State() {
	case playback.Playing:
		m.sess.Pause()
		return nil
	case playback.Paused:
		return m.sess.Resume(m.ctx)
	default:
		return m.sess.Play(m.ctx)
	}
}

func (m *Model) toggleRecording() tea.Cmd {
	rec := m.sess.Recorder()
	if rec == nil {
		m.err = recording.ErrDeviceUnavailable
		return nil
	}

	ctx := m.ctx
	if rec.State() == recording.Idle {
		m.status = "requesting input device"
		return func() tea.Msg {
			return RecordingStartedMsg{Err: rec.Start(ctx)}
		}
	}

	return func() tea.Msg {
		r, err := rec.Stop()
		return RecordingDoneMsg{Recording: r, Err: err}
	}
}

// sync restarts the tick loop after a transition into Playing and
// refreshes the frozen or placeholder frame otherwise.
func (m *Model) sync() tea.Cmd {
	if m.sess.Playback().State() == playback.Playing {
		if m.ticking {
			return nil
		}
		m.ticking = true
		m.tickGen++
		return tick(m.tickGen)
	}

	m.ticking = false
	m.frame = m.sess.Tick(m.now())

	return nil
}

func stepCutoff(f bandpass.Settings, key string) bandpass.Settings {
	switch key {
	case "right":
		return f.WithHighPass(raise(f.HighPassHz))
	case "left":
		return f.WithHighPass(lower(f.HighPassHz))
	case "up":
		return f.WithLowPass(raise(f.LowPassHz))
	case "down":
		return f.WithLowPass(lower(f.LowPassHz))
	}
	return f
}

func raise(hz float64) float64 {
	if hz < minStepHz {
		return minStepHz
	}
	return core.ShiftOctaves(hz, cutoffStepOctaves)
}

func lower(hz float64) float64 {
	v := core.ShiftOctaves(hz, -cutoffStepOctaves)
	if v < minStepHz {
		return 0
	}
	return v
}

func tick(gen int) tea.Cmd {
	return tea.Tick(session.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg{at: t, gen: gen}
	})
}

func waitForSettings(ch <-chan settings.Settings) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SettingsMsg{Settings: s}
	}
}
