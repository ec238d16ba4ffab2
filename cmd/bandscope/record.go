package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-bandscope/internal/device/pacapture"
	"github.com/cwbudde/algo-bandscope/internal/recording"
	"github.com/cwbudde/algo-bandscope/internal/session"
)

// RecordCmd captures takes from an input device.
type RecordCmd struct {
	SettingsFlags `embed:""`

	Device      string        `help:"Input device: 1-based index or name prefix (default: system input)"`
	Out         string        `type:"path" default:"." help:"Directory finished takes are written to"`
	Duration    time.Duration `help:"Record one take of this length without the UI, then exit"`
	Rate        int           `default:"48000" help:"Capture and playback sample rate in Hz"`
	Latency     time.Duration `default:"50ms" help:"Output buffer length"`
	ListDevices bool          `help:"List input devices and exit"`
}

// Run executes the record command.
func (c *RecordCmd) Run(e *env) error {
	dev := pacapture.New(
		pacapture.WithDeviceName(c.Device),
		pacapture.WithSampleRate(c.Rate),
		pacapture.WithLogger(e.logger))
	defer dev.Close()

	if c.ListDevices {
		names, err := dev.InputDevices()
		if err != nil {
			return err
		}
		for i, name := range names {
			fmt.Printf("%2d  %s\n", i+1, name)
		}
		return nil
	}

	if err := os.MkdirAll(c.Out, 0o755); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	file, s, err := e.loadSettings(c.SettingsFlags)
	if err != nil {
		return err
	}

	sess, err := session.New(c.Rate, s,
		session.WithLogger(e.logger),
		session.WithCaptureDevice(dev))
	if err != nil {
		return err
	}
	defer sess.Close()

	rec := sess.Recorder()
	rec.OnFinished(func(r *recording.Recording) {
		path := filepath.Join(c.Out, r.ID+".wav")
		if err := os.WriteFile(path, r.Blob, 0o644); err != nil {
			e.logger.Error("saving recording failed", "path", path, "err", err)
			return
		}
		e.logger.Info("recording saved", "name", r.Name, "path", path, "duration", r.Duration)
	})

	if c.Duration > 0 {
		return c.timed(e, rec)
	}

	sink, err := e.openOutput(sess, c.Latency)
	if err != nil {
		return err
	}
	defer sink.Close()

	return e.runUI(e.ctx, sess, file, "record")
}

// timed records one take of c.Duration, or until interrupted.
func (c *RecordCmd) timed(e *env, rec *recording.Machine) error {
	if err := rec.Start(e.ctx); err != nil {
		return err
	}
	if rec.State() != recording.Capturing {
		return fmt.Errorf("capture did not start: %w", recording.ErrDeviceUnavailable)
	}

	timer := time.NewTimer(c.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-e.ctx.Done():
		e.logger.Info("interrupted, saving partial take")
	}

	_, err := rec.Stop()
	return err
}
