// Package settings persists user settings as JSON and reloads them when
// the file changes on disk.
package settings

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
	"github.com/cwbudde/algo-bandscope/dsp/spectrum"
	"github.com/cwbudde/algo-bandscope/internal/spectrogram"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("settings: invalid")

// Settings is everything the session reads from configuration.
type Settings struct {
	Filter   bandpass.Settings         `json:"filter"`
	Axis     spectrogram.FrequencyAxis `json:"axis"`
	Loop     bool                      `json:"loop"`
	Analyser spectrum.AnalyserConfig   `json:"analyser"`
}

// Default returns the factory settings: filter off over 0–20 kHz, a
// logarithmic display and looping playback.
func Default() Settings {
	return Settings{
		Filter:   bandpass.DefaultSettings(),
		Axis:     spectrogram.DefaultAxis(),
		Loop:     true,
		Analyser: spectrum.DefaultAnalyserConfig(),
	}
}

// Validate checks the parts that cannot be repaired by clamping.
func (s Settings) Validate() error {
	if err := s.Axis.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.Analyser.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Normalize clamps the filter cutoffs into a valid passband.
func (s Settings) Normalize() Settings {
	s.Filter = s.Filter.Normalize()
	return s
}

// AnalyserOptions converts the analyser section into constructor options.
func (s Settings) AnalyserOptions() []spectrum.AnalyserOption {
	return []spectrum.AnalyserOption{
		spectrum.WithFFTSize(s.Analyser.FFTSize),
		spectrum.WithSmoothing(s.Analyser.Smoothing),
		spectrum.WithDecibelRange(s.Analyser.MinDecibels, s.Analyser.MaxDecibels),
		spectrum.WithWindow(s.Analyser.Window),
	}
}
