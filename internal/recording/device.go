package recording

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable reports a denied capture request or a missing
// input device.
var ErrDeviceUnavailable = errors.New("recording: capture device unavailable")

// Stream is an open capture stream delivering mono samples.
type Stream interface {
	SampleRate() int
	// Read blocks until samples are available. It returns io.EOF once the
	// stream has been closed.
	Read(dst []float64) (int, error)
	// Close unblocks a pending Read and releases the stream only after
	// that Read has returned.
	Close() error
}

// Device hands out capture streams. RequestCapture may block while the
// user or the platform grants access.
type Device interface {
	RequestCapture(ctx context.Context) (Stream, error)
}
