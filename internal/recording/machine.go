// Package recording implements capture with pause/resume on top of an
// abstract input device and produces WAV-encoded takes.
package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const defaultChunkSize = 1024

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

// WithClock replaces time.Now for timestamps and duration accounting.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithChunkSize sets how many samples the pump reads per call.
func WithChunkSize(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// Machine is the recording state machine. Control methods may be called
// from any goroutine; captured samples arrive on an internal pump.
type Machine struct {
	device    Device
	logger    *slog.Logger
	now       func() time.Time
	chunkSize int

	mu         sync.Mutex
	state      State
	gen        uint64
	requesting bool
	stream     Stream
	pumpDone   chan struct{}

	sampleRate int
	samples    []float64
	startedAt  time.Time
	pausedAt   time.Time
	pausedFor  time.Duration

	onFinished func(*Recording)
}

// New returns an idle machine capturing from device.
func New(device Device, opts ...Option) *Machine {
	m := &Machine{
		device:    device,
		logger:    slog.Default(),
		now:       time.Now,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// OnFinished registers the sink that receives every take emitted by Stop.
func (m *Machine) OnFinished(fn func(*Recording)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinished = fn
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Frames returns the number of samples captured so far.
func (m *Machine) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

// Elapsed returns the recorded time so far, excluding pauses.
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return 0
	}
	return m.elapsedLocked(m.now())
}

// Start requests a capture stream and begins recording. Start outside Idle,
// or while a request is outstanding, is ignored. A stream granted after
// Stop or Cancel withdrew the request is closed and discarded.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Idle || m.requesting {
		m.mu.Unlock()
		return nil
	}
	if m.device == nil {
		m.mu.Unlock()
		return fmt.Errorf("start recording: %w: no input device", ErrDeviceUnavailable)
	}
	m.gen++
	gen := m.gen
	m.requesting = true
	m.mu.Unlock()

	stream, err := m.device.RequestCapture(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		m.logger.Debug("capture granted after request was withdrawn")
		if stream != nil {
			_ = stream.Close()
		}
		return nil
	}
	m.requesting = false

	if err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			return fmt.Errorf("start recording: %w", err)
		}
		return fmt.Errorf("start recording: %w: %w", ErrDeviceUnavailable, err)
	}
	if stream == nil {
		return fmt.Errorf("start recording: %w: device returned no stream", ErrDeviceUnavailable)
	}

	m.stream = stream
	m.sampleRate = stream.SampleRate()
	m.samples = nil
	m.startedAt = m.now()
	m.pausedFor = 0
	m.pumpDone = make(chan struct{})
	m.setStateLocked(Capturing)

	go m.pump(gen, stream, m.pumpDone)

	return nil
}

// Pause drops incoming samples until Resume.
func (m *Machine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Capturing {
		return
	}
	m.pausedAt = m.now()
	m.setStateLocked(Paused)
}

// Resume continues a paused take.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Paused {
		return
	}
	m.pausedFor += m.now().Sub(m.pausedAt)
	m.setStateLocked(Capturing)
}

// Stop ends the take, hands it to the OnFinished sink and returns it. When
// nothing is being recorded Stop withdraws any pending request and returns
// nil.
func (m *Machine) Stop() (*Recording, error) {
	m.mu.Lock()
	if m.state == Idle {
		m.withdrawLocked()
		m.mu.Unlock()
		return nil, nil
	}

	now := m.now()
	elapsed := m.elapsedLocked(now)
	created := m.startedAt
	sampleRate := m.sampleRate
	samples := m.samples
	sink := m.onFinished
	stream, done := m.detachLocked()
	m.mu.Unlock()

	closeStream(m.logger, stream, done)

	rec, err := newRecording(created, elapsed, sampleRate, samples)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("recording finished", "id", rec.ID, "duration", rec.Duration, "frames", len(samples))

	if sink != nil {
		sink(rec)
	}

	return rec, nil
}

// Cancel discards the current take without emitting it.
func (m *Machine) Cancel() {
	m.mu.Lock()
	if m.state == Idle {
		m.withdrawLocked()
		m.mu.Unlock()
		return
	}
	stream, done := m.detachLocked()
	m.mu.Unlock()

	closeStream(m.logger, stream, done)
}

func (m *Machine) pump(gen uint64, stream Stream, done chan struct{}) {
	defer close(done)

	chunk := make([]float64, m.chunkSize)
	for {
		n, err := stream.Read(chunk)

		m.mu.Lock()
		if gen != m.gen {
			m.mu.Unlock()
			return
		}
		if m.state == Capturing && n > 0 {
			m.samples = append(m.samples, chunk[:n]...)
		}
		m.mu.Unlock()

		if err != nil {
			if !errors.Is(err, io.EOF) {
				m.logger.Warn("capture read", "err", err)
			}
			return
		}
	}
}

func (m *Machine) withdrawLocked() {
	if m.requesting {
		m.gen++
		m.requesting = false
		m.logger.Debug("capture request withdrawn")
	}
}

// detachLocked invalidates the pump, drops the captured samples and
// resets to Idle. The caller closes
// the returned stream outside the lock.
func (m *Machine) detachLocked() (Stream, chan struct{}) {
	m.gen++
	stream, done := m.stream, m.pumpDone
	m.stream, m.pumpDone = nil, nil
	m.samples = nil
	m.setStateLocked(Idle)

	return stream, done
}

func (m *Machine) elapsedLocked(now time.Time) time.Duration {
	paused := m.pausedFor
	if m.state == Paused {
		paused += now.Sub(m.pausedAt)
	}
	return now.Sub(m.startedAt) - paused
}

func (m *Machine) setStateLocked(s State) {
	if s == m.state {
		return
	}
	m.logger.Debug("recording state", "from", m.state, "to", s)
	m.state = s
}

func closeStream(logger *slog.Logger, stream Stream, done chan struct{}) {
	if stream == nil {
		return
	}
	if err := stream.Close(); err != nil {
		logger.Warn("close capture stream", "err", err)
	}
	if done != nil {
		<-done
	}
}
