package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-bandscope/internal/audio"
	"github.com/cwbudde/algo-bandscope/internal/audiofile"
	"github.com/cwbudde/algo-bandscope/internal/session"
	"github.com/cwbudde/algo-bandscope/internal/spectrogram"
)

// PlayCmd plays one file.
type PlayCmd struct {
	SettingsFlags `embed:""`

	File     string        `arg:"" type:"existingfile" help:"WAV or MP3 file"`
	Start    time.Duration `help:"Skip this much of the file"`
	End      time.Duration `help:"Stop at this offset (default: end of file)"`
	Rate     int           `help:"Output sample rate in Hz (default: the file's rate)"`
	Latency  time.Duration `default:"50ms" help:"Output buffer length"`
	Snapshot string        `type:"path" help:"Write the spectrogram shown when playback stops to this PNG"`
	Width    int           `default:"800" help:"Snapshot width in pixels"`
	Height   int           `default:"400" help:"Snapshot height in pixels"`
	NoUI     bool          `name:"no-ui" help:"Play without the terminal UI"`
}

// Run executes the play command.
func (c *PlayCmd) Run(e *env) error {
	file, s, err := e.loadSettings(c.SettingsFlags)
	if err != nil {
		return err
	}

	buf, err := c.decode()
	if err != nil {
		return err
	}

	rate := c.Rate
	if rate <= 0 {
		rate = buf.SampleRate
	}

	opts := []session.Option{session.WithLogger(e.logger)}
	if c.Snapshot != "" {
		opts = append(opts,
			session.WithImageSize(c.Width, c.Height),
			session.WithStopHook(func(last *image.RGBA) { e.writeSnapshot(c.Snapshot, last) }))
	}

	sess, err := session.New(rate, s, opts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Load(buf); err != nil {
		return err
	}

	sink, err := e.openOutput(sess, c.Latency)
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := sess.Play(e.ctx); err != nil {
		return err
	}

	e.logger.Info("playing", "file", c.File, "duration", buf.Duration(), "rate", rate,
		"filter", s.Filter.Enabled, "hp", s.Filter.HighPassHz, "lp", s.Filter.LowPassHz)

	if c.NoUI {
		return runHeadless(e.ctx, sess)
	}
	return e.runUI(e.ctx, sess, file, filepath.Base(c.File))
}

func (c *PlayCmd) decode() (*audio.Buffer, error) {
	f, err := os.Open(c.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := audiofile.Decode(f, c.File)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.File, err)
	}

	if c.Start > 0 || c.End > 0 {
		end := c.End
		if end <= 0 {
			end = buf.Duration()
		}
		if buf, err = buf.Trim(c.Start, end); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

// writeSnapshot stores the frame shown when playback stopped.
func (e *env) writeSnapshot(path string, img *image.RGBA) {
	f, err := os.Create(path)
	if err != nil {
		e.logger.Error("snapshot failed", "path", path, "err", err)
		return
	}
	if err := spectrogram.EncodePNG(f, img); err != nil {
		_ = f.Close()
		e.logger.Error("snapshot failed", "path", path, "err", err)
		return
	}
	if err := f.Close(); err != nil {
		e.logger.Error("snapshot failed", "path", path, "err", err)
		return
	}
	e.logger.Info("snapshot written", "path", path)
}
