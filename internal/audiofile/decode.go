package audiofile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/cwbudde/algo-bandscope/internal/audio"
)

// ErrDecode reports malformed or unsupported input. No partial buffer is
// returned alongside it.
var ErrDecode = errors.New("audiofile: decode failed")

// Format identifies a container.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Decode reads a complete file into a de-interleaved buffer with samples in
// [-1, 1]. The container is chosen from the file extension in name and
// falls back to sniffing the first bytes.
func Decode(r io.ReadSeeker, name string) (*audio.Buffer, error) {
	format := formatFromName(name)
	if format == FormatUnknown {
		sniffed, err := sniff(r)
		if err != nil {
			return nil, err
		}
		format = sniffed
	}

	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatMP3:
		return decodeMP3(r)
	default:
		return nil, fmt.Errorf("%w: unrecognised format for %q", ErrDecode, name)
	}
}

func formatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	default:
		return FormatUnknown
	}
}

func sniff(r io.ReadSeeker) (Format, error) {
	head := make([]byte, 4)
	n, err := io.ReadFull(r, head)
	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return FormatUnknown, fmt.Errorf("%w: rewind: %w", ErrDecode, serr)
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return FormatUnknown, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, []byte("RIFF")):
		return FormatWAV, nil
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3, nil
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return FormatMP3, nil
	default:
		return FormatUnknown, nil
	}
}

func decodeWAV(r io.ReadSeeker) (*audio.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrDecode)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	bitDepth := int(dec.SampleBitDepth())
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bitDepth)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing channel count", ErrDecode)
	}

	var scale float64
	if bitDepth == 8 {
		scale = 128
	} else {
		scale = float64(int64(1) << (bitDepth - 1))
	}

	nch := pcm.Format.NumChannels
	frames := len(pcm.Data) / nch
	if frames == 0 {
		return nil, fmt.Errorf("%w: no sample data", ErrDecode)
	}

	channels := make([][]float64, nch)
	for c := range channels {
		channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < nch; c++ {
			v := pcm.Data[i*nch+c]
			if bitDepth == 8 {
				// 8-bit WAV is unsigned.
				v -= 128
			}
			channels[c][i] = float64(v) / scale
		}
	}

	buf, err := audio.NewBuffer(pcm.Format.SampleRate, channels...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return buf, nil
}

func decodeMP3(r io.Reader) (*audio.Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// go-mp3 always produces interleaved stereo signed 16-bit little endian.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	const bytesPerFrame = 4
	frames := len(raw) / bytesPerFrame
	if frames == 0 {
		return nil, fmt.Errorf("%w: no sample data", ErrDecode)
	}

	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := 0; i < frames; i++ {
		off := i * bytesPerFrame
		left[i] = float64(int16(uint16(raw[off])|uint16(raw[off+1])<<8)) / 32768
		right[i] = float64(int16(uint16(raw[off+2])|uint16(raw[off+3])<<8)) / 32768
	}

	buf, err := audio.NewBuffer(dec.SampleRate(), left, right)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return buf, nil
}
