// Package pacapture opens mono input streams through PortAudio.
package pacapture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-bandscope/internal/recording"
)

const defaultFramesPerBuffer = 1024

// Option configures a Device.
type Option func(*Device)

// WithDeviceName selects an input by 1-based index or name prefix. The
// default input is used when empty.
func WithDeviceName(name string) Option {
	return func(d *Device) { d.name = name }
}

// WithSampleRate overrides the device's default rate.
func WithSampleRate(sr int) Option {
	return func(d *Device) { d.sampleRate = sr }
}

// WithFramesPerBuffer sets the capture block size.
func WithFramesPerBuffer(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.framesPerBuffer = n
		}
	}
}

// WithLogger sets the device logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

// Device implements recording.Device on PortAudio. PortAudio is
// initialized on the first request and terminated by Close.
type Device struct {
	name            string
	sampleRate      int
	framesPerBuffer int
	logger          *slog.Logger

	mu          sync.Mutex
	initialized bool
}

var _ recording.Device = (*Device)(nil)

// New returns a capture device. No PortAudio call happens until
// RequestCapture.
func New(opts ...Option) *Device {
	d := &Device{framesPerBuffer: defaultFramesPerBuffer, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// InputDevices lists the names of devices with input channels.
func (d *Device) InputDevices() ([]string, error) {
	if err := d.init(); err != nil {
		return nil, err
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("pacapture: %w", err)
	}

	var names []string
	for _, info := range devices {
		if info.MaxInputChannels > 0 {
			names = append(names, info.Name)
		}
	}
	return names, nil
}

// RequestCapture opens and starts a mono input stream.
func (d *Device) RequestCapture(ctx context.Context) (recording.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.init(); err != nil {
		return nil, fmt.Errorf("%w: %w", recording.ErrDeviceUnavailable, err)
	}

	info, err := d.lookup()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recording.ErrDeviceUnavailable, err)
	}

	p := portaudio.HighLatencyParameters(info, nil)
	p.Input.Channels = 1
	p.Output.Channels = 0
	if d.sampleRate > 0 {
		p.SampleRate = float64(d.sampleRate)
	}
	p.FramesPerBuffer = d.framesPerBuffer

	s := &Stream{
		buf:        make([]float32, d.framesPerBuffer),
		sampleRate: int(p.SampleRate),
	}
	stream, err := portaudio.OpenStream(p, s.buf)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", recording.ErrDeviceUnavailable, info.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: start %q: %w", recording.ErrDeviceUnavailable, info.Name, err)
	}
	s.stream = stream

	d.logger.Debug("capture started", "device", info.Name, "sampleRate", s.sampleRate)

	return s, nil
}

// Close terminates PortAudio if it was initialized.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil
	}
	d.initialized = false
	return portaudio.Terminate()
}

func (d *Device) init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("pacapture: initialize: %w", err)
	}
	d.initialized = true
	return nil
}

func (d *Device) lookup() (*portaudio.DeviceInfo, error) {
	if d.name == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input: %w", err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	return pick(devices, d.name)
}

func pick(devices []*portaudio.DeviceInfo, name string) (*portaudio.DeviceInfo, error) {
	if i, err := strconv.Atoi(name); err == nil && i > 0 && i <= len(devices) {
		if devices[i-1].MaxInputChannels > 0 {
			return devices[i-1], nil
		}
	}
	for _, info := range devices {
		if info.MaxInputChannels > 0 && strings.HasPrefix(info.Name, name) {
			return info, nil
		}
	}
	return nil, fmt.Errorf("input device not found: %s", name)
}

// paStream is the part of *portaudio.Stream a capture stream drives.
type paStream interface {
	Read() error
	Abort() error
	Close() error
}

// Stream is an open PortAudio input stream.
type Stream struct {
	stream     paStream
	buf        []float32
	sampleRate int

	// readMu is held for the whole blocking read; Close takes it before
	// freeing the native stream.
	readMu    sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// SampleRate returns the negotiated rate.
func (s *Stream) SampleRate() int { return s.sampleRate }

// Read blocks for one device buffer and copies as much as fits into dst.
// An input overflow drops samples but is not an error.
func (s *Stream) Read(dst []float64) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.closed.Load() {
		return 0, io.EOF
	}
	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		if s.closed.Load() {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("pacapture: read: %w", err)
	}
	if s.closed.Load() {
		return 0, io.EOF
	}

	n := min(len(dst), len(s.buf))
	for i := 0; i < n; i++ {
		dst[i] = float64(s.buf[i])
	}
	return n, nil
}

// Close aborts the stream, waits for a pending Read to return and then
// releases it. Later reads return io.EOF.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if err := s.stream.Abort(); err != nil {
			s.closeErr = fmt.Errorf("pacapture: abort: %w", err)
		}

		s.readMu.Lock()
		defer s.readMu.Unlock()
		if err := s.stream.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("pacapture: close: %w", err)
		}
	})
	return s.closeErr
}
