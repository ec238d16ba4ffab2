package audio

import (
	"testing"
	"time"
)

func rampBuffer(t *testing.T, n int) *Buffer {
	t.Helper()

	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i + 1)
	}
	b, err := NewBuffer(1000, data)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBufferSource_SilentUntilStarted(t *testing.T) {
	s := NewBufferSource(rampBuffer(t, 4), false)

	dst := []float64{7, 7}
	if n := s.Read(dst); n != 0 || dst[0] != 0 || dst[1] != 0 {
		t.Fatalf("unstarted source produced %d frames: %v", n, dst)
	}
}

func TestBufferSource_EndsWithoutLoop(t *testing.T) {
	s := NewBufferSource(rampBuffer(t, 5), false)
	s.Start()

	dst := make([]float64, 3)
	if n := s.Read(dst); n != 3 || s.Ended() {
		t.Fatalf("first read: n=%d ended=%v", n, s.Ended())
	}

	n := s.Read(dst)
	if n != 2 {
		t.Fatalf("second read n=%d, want 2", n)
	}
	if dst[0] != 4 || dst[1] != 5 || dst[2] != 0 {
		t.Fatalf("second read = %v, want [4 5 0]", dst)
	}
	if !s.Ended() {
		t.Fatal("source not ended at buffer end")
	}
	if s.Position() != 5*time.Millisecond {
		t.Fatalf("Position = %v, want 5ms", s.Position())
	}
}

func TestBufferSource_Loops(t *testing.T) {
	s := NewBufferSource(rampBuffer(t, 3), true)
	s.Start()

	dst := make([]float64, 7)
	if n := s.Read(dst); n != 7 {
		t.Fatalf("n = %d, want 7", n)
	}

	want := []float64{1, 2, 3, 1, 2, 3, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
	if s.Ended() {
		t.Fatal("looping source ended")
	}

	s.SetLoop(false)
	s.Read(dst)
	if !s.Ended() {
		t.Fatal("source did not end after loop was cleared")
	}
}

func TestBufferSource_Stop(t *testing.T) {
	s := NewBufferSource(rampBuffer(t, 8), true)
	s.Start()
	s.Stop()
	s.Stop()

	dst := []float64{1, 1}
	if n := s.Read(dst); n != 0 || dst[0] != 0 {
		t.Fatalf("stopped source produced output: n=%d %v", n, dst)
	}
}
