package bandpass

import "math"

// MinPassbandHz is the narrowest passband Settings will allow.
const MinPassbandHz = 100.0

// MaxCutoffHz bounds user-facing cutoffs.
const MaxCutoffHz = 20000.0

// Settings is the user-facing filter configuration.
type Settings struct {
	HighPassHz float64 `json:"highPassHz"`
	LowPassHz  float64 `json:"lowPassHz"`
	Enabled    bool    `json:"enabled"`
}

// DefaultSettings returns a full-range, disabled filter.
func DefaultSettings() Settings {
	return Settings{HighPassHz: 0, LowPassHz: MaxCutoffHz}
}

// WithHighPass returns s with a new high-pass cutoff. The value is clamped
// to LowPassHz-MinPassbandHz so the passband never collapses.
func (s Settings) WithHighPass(hz float64) Settings {
	if math.IsNaN(hz) {
		return s
	}

	s.HighPassHz = math.Max(0, math.Min(hz, s.LowPassHz-MinPassbandHz))

	return s
}

// WithLowPass returns s with a new low-pass cutoff, clamped to
// HighPassHz+MinPassbandHz.
func (s Settings) WithLowPass(hz float64) Settings {
	if math.IsNaN(hz) {
		return s
	}

	s.LowPassHz = math.Min(MaxCutoffHz, math.Max(hz, s.HighPassHz+MinPassbandHz))

	return s
}

// Normalize repairs settings that arrive from outside (files, flags)
// without going through the setters. The high-pass side wins: an
// inverted pair keeps HighPassHz and lifts LowPassHz.
func (s Settings) Normalize() Settings {
	if math.IsNaN(s.HighPassHz) || s.HighPassHz < 0 {
		s.HighPassHz = 0
	}
	if math.IsNaN(s.LowPassHz) || s.LowPassHz > MaxCutoffHz {
		s.LowPassHz = MaxCutoffHz
	}

	if s.HighPassHz > MaxCutoffHz-MinPassbandHz {
		s.HighPassHz = MaxCutoffHz - MinPassbandHz
	}
	if s.LowPassHz < s.HighPassHz+MinPassbandHz {
		s.LowPassHz = s.HighPassHz + MinPassbandHz
	}

	return s
}

// Valid reports whether the passband invariant holds.
func (s Settings) Valid() bool {
	return s.HighPassHz+MinPassbandHz <= s.LowPassHz
}

// SameBand reports whether s and o describe the same cutoff pair.
func (s Settings) SameBand(o Settings) bool {
	return s.HighPassHz == o.HighPassHz && s.LowPassHz == o.LowPassHz
}

// Preset is a named cutoff pair.
type Preset struct {
	Name       string
	HighPassHz float64
	LowPassHz  float64
}

var presets = []Preset{
	{Name: "vocal", HighPassHz: 200, LowPassHz: 3000},
	{Name: "bass", HighPassHz: 60, LowPassHz: 250},
	{Name: "trumpet", HighPassHz: 200, LowPassHz: 1500},
	{Name: "full", HighPassHz: 0, LowPassHz: 20000},
}

// Presets returns the built-in presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)

	return out
}

// LookupPreset finds a preset by name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}

	return Preset{}, false
}

// Apply returns s with the preset cutoffs; Enabled is left unchanged.
func (p Preset) Apply(s Settings) Settings {
	s.HighPassHz = p.HighPassHz
	s.LowPassHz = p.LowPassHz

	return s.Normalize()
}
