package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
	"github.com/cwbudde/algo-bandscope/internal/device/otosink"
	"github.com/cwbudde/algo-bandscope/internal/playback"
	"github.com/cwbudde/algo-bandscope/internal/session"
	"github.com/cwbudde/algo-bandscope/internal/settings"
	"github.com/cwbudde/algo-bandscope/internal/ui"
)

// SettingsFlags override values from the settings file.
type SettingsFlags struct {
	Preset   string  `help:"Filter preset: vocal, bass, trumpet or full"`
	HighPass float64 `name:"hp" default:"-1" help:"High-pass cutoff in Hz"`
	LowPass  float64 `name:"lp" default:"-1" help:"Low-pass cutoff in Hz"`
	Filter   string  `help:"Force the filter on or off"`
	Loop     string  `help:"Force looping on or off"`
	Scale    string  `help:"Frequency axis scale: linear or log"`
	Window   string  `help:"Analyser window (see the windows command)"`
}

func (f SettingsFlags) apply(s settings.Settings) (settings.Settings, error) {
	if f.Preset != "" {
		p, ok := bandpass.LookupPreset(f.Preset)
		if !ok {
			return s, fmt.Errorf("unknown preset %q", f.Preset)
		}
		s.Filter = p.Apply(s.Filter)
	}

	if f.LowPass >= 0 {
		s.Filter.LowPassHz = f.LowPass
	}
	if f.HighPass >= 0 {
		s.Filter.HighPassHz = f.HighPass
	}

	if f.Filter != "" {
		on, err := parseSwitch(f.Filter)
		if err != nil {
			return s, fmt.Errorf("--filter: %w", err)
		}
		s.Filter.Enabled = on
	}
	if f.Loop != "" {
		on, err := parseSwitch(f.Loop)
		if err != nil {
			return s, fmt.Errorf("--loop: %w", err)
		}
		s.Loop = on
	}
	if f.Scale != "" {
		if err := s.Axis.Scale.UnmarshalText([]byte(f.Scale)); err != nil {
			return s, err
		}
	}
	if f.Window != "" {
		if err := s.Analyser.Window.UnmarshalText([]byte(f.Window)); err != nil {
			return s, err
		}
	}

	return s.Normalize(), nil
}

func parseSwitch(v string) (bool, error) {
	switch v {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// loadSettings reads the settings file and applies the flag overrides.
func (e *env) loadSettings(flags SettingsFlags) (*settings.File, settings.Settings, error) {
	file := settings.NewFile(e.Settings, settings.WithLogger(e.logger))
	s, err := file.Load()
	if err != nil {
		return nil, s, err
	}
	s, err = flags.apply(s)
	if err != nil {
		return nil, s, err
	}
	return file, s, nil
}

// openOutput connects the session's audio context to the default output
// device.
func (e *env) openOutput(sess *session.Session, latency time.Duration) (*otosink.Sink, error) {
	sink, err := otosink.Open(sess.Context(), int(sess.Context().SampleRate()),
		otosink.WithLatency(latency),
		otosink.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	sink.Start()
	return sink, nil
}

// runUI runs the terminal front end until the user quits or ctx is
// cancelled. Settings file changes are applied live.
func (e *env) runUI(ctx context.Context, sess *session.Session, file *settings.File, title string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, watchErr := file.Watch(ctx)
	if watchErr != nil {
		e.logger.Warn("settings hot reload disabled", "path", file.Path(), "err", watchErr)
		updates = nil
	}

	model := ui.NewModel(sess,
		ui.WithContext(ctx),
		ui.WithSettingsUpdates(updates),
		ui.WithTitle(title))
	program := tea.NewProgram(model, tea.WithAltScreen())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("ui: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		program.Quit()
		return nil
	})
	if watchErr != nil {
		g.Go(func() error {
			program.Send(ui.ErrorMsg{Err: fmt.Errorf("settings hot reload: %w", watchErr)})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if err := file.Save(sess.Settings()); err != nil {
		e.logger.Warn("settings not saved", "path", file.Path(), "err", err)
	}

	return nil
}

// runHeadless ticks the session until playback stops or ctx is done.
func runHeadless(ctx context.Context, sess *session.Session) error {
	ticker := time.NewTicker(session.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if f := sess.Tick(now); f.State == playback.Stopped {
				return nil
			}
		}
	}
}
