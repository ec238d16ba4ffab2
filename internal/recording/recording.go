package recording

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-bandscope/internal/audio"
	"github.com/cwbudde/algo-bandscope/internal/audiofile"
)

// Recording is a finished take.
type Recording struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	Duration   time.Duration
	SampleRate int
	Buffer     *audio.Buffer
	// Blob is the take encoded as 16-bit PCM WAV.
	Blob []byte
}

func newRecording(created time.Time, d time.Duration, sampleRate int, samples []float64) (*Recording, error) {
	buf, err := audio.NewBuffer(sampleRate, samples)
	if err != nil {
		return nil, fmt.Errorf("recording: %w", err)
	}

	blob, err := audiofile.EncodeWAV(buf)
	if err != nil {
		return nil, fmt.Errorf("recording: %w", err)
	}

	return &Recording{
		ID:         fmt.Sprintf("recording-%d", created.UnixMilli()),
		Name:       "Recording " + created.Format("3:04:05 PM"),
		CreatedAt:  created,
		Duration:   d,
		SampleRate: sampleRate,
		Buffer:     buf,
		Blob:       blob,
	}, nil
}
