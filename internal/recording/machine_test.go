package recording

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-bandscope/internal/audiofile"
	"github.com/cwbudde/algo-bandscope/internal/testutil"
)

// fakeStream delivers whatever the test sends on chunks. A nil chunk is a
// barrier: once the send completes the previous chunk has been consumed.
type fakeStream struct {
	sampleRate int
	chunks     chan []float64
	quit       chan struct{}
	once       sync.Once

	mu     sync.Mutex
	closed bool
}

func newFakeStream(sampleRate int) *fakeStream {
	return &fakeStream{
		sampleRate: sampleRate,
		chunks:     make(chan []float64),
		quit:       make(chan struct{}),
	}
}

func (s *fakeStream) SampleRate() int { return s.sampleRate }

func (s *fakeStream) Read(dst []float64) (int, error) {
	select {
	case c := <-s.chunks:
		return copy(dst, c), nil
	case <-s.quit:
		return 0, io.EOF
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) feed(chunk []float64) {
	s.chunks <- chunk
	s.chunks <- nil
}

type fakeDevice struct {
	stream *fakeStream
	err    error
	// gate, when set, holds RequestCapture until closed.
	gate      chan struct{}
	requested chan struct{}
}

func (d *fakeDevice) RequestCapture(ctx context.Context) (Stream, error) {
	if d.requested != nil {
		close(d.requested)
	}
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.stream == nil {
		return nil, nil
	}
	return d.stream, nil
}

func newMachine(t *testing.T, dev Device) (*Machine, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock()
	return New(dev, WithClock(clock.Now), WithChunkSize(256)), clock
}

func TestStartStopProducesRecording(t *testing.T) {
	stream := newFakeStream(8000)
	m, clock := newMachine(t, &fakeDevice{stream: stream})

	var sunk *Recording
	m.OnFinished(func(r *Recording) { sunk = r })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.State() != Capturing {
		t.Fatalf("state = %v, want recording", m.State())
	}

	chunk := testutil.DeterministicSine(440, 8000, 0.5, 200)
	stream.feed(chunk)
	stream.feed(chunk)
	clock.Advance(1500 * time.Millisecond)

	rec, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec == nil {
		t.Fatal("Stop returned no recording")
	}
	if sunk != rec {
		t.Fatal("OnFinished did not receive the emitted recording")
	}
	if m.State() != Idle {
		t.Fatalf("state after stop = %v, want idle", m.State())
	}
	if !stream.isClosed() {
		t.Fatal("stream not closed on stop")
	}

	if rec.ID != "recording-1704110400000" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Name != "Recording 12:00:00 PM" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", rec.Duration)
	}
	if rec.SampleRate != 8000 || rec.Buffer.Frames() != 400 {
		t.Errorf("buffer = %d Hz x %d frames, want 8000 x 400", rec.SampleRate, rec.Buffer.Frames())
	}

	decoded, err := audiofile.Decode(bytes.NewReader(rec.Blob), rec.ID+".wav")
	if err != nil {
		t.Fatalf("blob does not decode: %v", err)
	}
	if decoded.Frames() != 400 {
		t.Fatalf("decoded frames = %d, want 400", decoded.Frames())
	}
}

func TestPauseDropsChunksAndExcludesTime(t *testing.T) {
	stream := newFakeStream(8000)
	m, clock := newMachine(t, &fakeDevice{stream: stream})

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	stream.feed(testutil.DC(0.1, 100))
	clock.Advance(2 * time.Second)

	m.Pause()
	if m.State() != Paused {
		t.Fatalf("state = %v, want paused", m.State())
	}
	stream.feed(testutil.DC(0.9, 300))
	clock.Advance(5 * time.Second)

	if got := m.Elapsed(); got != 2*time.Second {
		t.Fatalf("elapsed while paused = %v, want 2s", got)
	}

	m.Resume()
	stream.feed(testutil.DC(0.2, 50))
	clock.Advance(time.Second)

	if got := m.Frames(); got != 150 {
		t.Fatalf("frames = %d, want 150", got)
	}

	rec, err := m.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Duration != 3*time.Second {
		t.Fatalf("duration = %v, want 3s", rec.Duration)
	}
}

func TestStopWhilePausedCountsOpenPause(t *testing.T) {
	stream := newFakeStream(8000)
	m, clock := newMachine(t, &fakeDevice{stream: stream})

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	m.Pause()
	clock.Advance(4 * time.Second)

	rec, err := m.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Duration != time.Second {
		t.Fatalf("duration = %v, want 1s", rec.Duration)
	}
}

func TestStartDenied(t *testing.T) {
	tests := []struct {
		name string
		dev  Device
	}{
		{name: "permission denied", dev: &fakeDevice{err: errors.New("permission denied")}},
		{name: "already wrapped", dev: &fakeDevice{err: ErrDeviceUnavailable}},
		{name: "no stream", dev: &fakeDevice{}},
		{name: "no device", dev: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := newMachine(t, tc.dev)
			err := m.Start(context.Background())
			if !errors.Is(err, ErrDeviceUnavailable) {
				t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
			}
			if m.State() != Idle {
				t.Fatalf("state = %v, want idle", m.State())
			}
		})
	}
}

func TestStaleGrantIsClosedAndIgnored(t *testing.T) {
	stream := newFakeStream(8000)
	dev := &fakeDevice{
		stream:    stream,
		gate:      make(chan struct{}),
		requested: make(chan struct{}),
	}
	m, _ := newMachine(t, dev)

	result := make(chan error, 1)
	go func() { result <- m.Start(context.Background()) }()

	<-dev.requested
	rec, err := m.Stop()
	if rec != nil || err != nil {
		t.Fatalf("Stop during request = %v, %v; want nil, nil", rec, err)
	}
	close(dev.gate)

	if err := <-result; err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.State() != Idle {
		t.Fatalf("state = %v, want idle", m.State())
	}
	if !stream.isClosed() {
		t.Fatal("stale stream was not closed")
	}

	// A fresh request after the withdrawn one works normally.
	dev.gate, dev.requested = nil, nil
	dev.stream = newFakeStream(8000)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.State() != Capturing {
		t.Fatalf("state = %v, want recording", m.State())
	}
	m.Cancel()
}

func TestCancelDiscardsTake(t *testing.T) {
	stream := newFakeStream(8000)
	m, _ := newMachine(t, &fakeDevice{stream: stream})

	var emitted int
	m.OnFinished(func(*Recording) { emitted++ })

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	stream.feed(testutil.DC(0.3, 64))
	m.Cancel()

	if m.State() != Idle || m.Frames() != 0 {
		t.Fatalf("after cancel: state %v frames %d", m.State(), m.Frames())
	}
	if emitted != 0 {
		t.Fatal("cancel emitted a recording")
	}
	if !stream.isClosed() {
		t.Fatal("stream not closed on cancel")
	}
}

func TestInvalidTransitionsIgnored(t *testing.T) {
	stream := newFakeStream(8000)
	m, _ := newMachine(t, &fakeDevice{stream: stream})

	m.Pause()
	m.Resume()
	m.Cancel()
	if rec, err := m.Stop(); rec != nil || err != nil {
		t.Fatalf("Stop from idle = %v, %v", rec, err)
	}
	if m.State() != Idle {
		t.Fatalf("state = %v, want idle", m.State())
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	m.Resume()
	if m.State() != Capturing {
		t.Fatalf("state = %v, want recording", m.State())
	}
	m.Cancel()
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Capturing: "recording", Paused: "paused", State(9): "unknown"} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
