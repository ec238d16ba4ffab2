package audio

import "errors"

var (
	// ErrNotReady reports an operation on a context that was never created.
	ErrNotReady = errors.New("audio: context not initialized")
	// ErrContextClosed reports an operation on a closed context. The
	// context cannot be reopened; create a new one.
	ErrContextClosed = errors.New("audio: context closed")
	// ErrInvalidBuffer reports an unusable sample buffer.
	ErrInvalidBuffer = errors.New("audio: invalid buffer")
)
