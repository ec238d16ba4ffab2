package audiofile

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-bandscope/internal/audio"
)

const pcmFormat = 1

// EncodeWAV renders buf as interleaved 16-bit PCM WAV.
func EncodeWAV(buf *audio.Buffer) ([]byte, error) {
	var out memFile
	if err := WriteWAV(&out, buf); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// WriteWAV is EncodeWAV onto an arbitrary seekable writer such as an
// *os.File.
func WriteWAV(w io.WriteSeeker, buf *audio.Buffer) error {
	if buf == nil || buf.NumChannels() == 0 {
		return fmt.Errorf("audiofile: encode: %w", audio.ErrInvalidBuffer)
	}

	nch := buf.NumChannels()
	frames := buf.Frames()

	ib := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: nch,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, frames*nch),
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		for c, ch := range buf.Channels {
			ib.Data[i*nch+c] = toInt16(ch[i])
		}
	}

	enc := wav.NewEncoder(w, buf.SampleRate, 16, nch, pcmFormat)
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("audiofile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audiofile: finalize: %w", err)
	}

	return nil
}

// toInt16 uses the asymmetric 16-bit range so that -1 and 1 both map to
// the extreme codes.
func toInt16(s float64) int {
	switch {
	case math.IsNaN(s):
		return 0
	case s >= 1:
		return 0x7FFF
	case s <= -1:
		return -0x8000
	case s < 0:
		return int(s * 0x8000)
	default:
		return int(s * 0x7FFF)
	}
}

// memFile is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes on Close.
type memFile struct {
	data []byte
	pos  int64
}

var errNegativeOffset = errors.New("audiofile: negative seek offset")

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		if end > int64(cap(m.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(m.data))))
			copy(grown, m.data)
			m.data = grown
		} else {
			m.data = m.data[:end]
		}
	}
	copy(m.data[m.pos:end], p)
	m.pos = end

	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("audiofile: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	m.pos = abs

	return abs, nil
}

func (m *memFile) Bytes() []byte { return m.data }
