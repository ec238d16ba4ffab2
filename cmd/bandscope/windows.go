package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-bandscope/dsp/window"
)

// WindowsCmd prints the spectral properties of the analyser windows at
// the configured FFT size.
type WindowsCmd struct {
	Size int `help:"FFT size (default: from the settings file)"`
	Rate int `default:"48000" help:"Sample rate used for the Hz columns"`
}

// Run executes the windows command.
func (c *WindowsCmd) Run(e *env) error {
	_, s, err := e.loadSettings(SettingsFlags{HighPass: -1, LowPass: -1})
	if err != nil {
		return err
	}

	size := c.Size
	if size <= 0 {
		size = s.Analyser.FFTSize
	}
	if size < 2 || c.Rate <= 0 {
		return fmt.Errorf("size and rate must be positive: %d, %d", size, c.Rate)
	}

	return printWindows(os.Stdout, size, float64(c.Rate), s.Analyser.Window)
}

func printWindows(w io.Writer, size int, rate float64, active window.Type) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\tSize\tCoherent Gain\tENBW [bins]\tENBW [Hz]\tSidelobe [dB]\t\n")
	fmt.Fprintf(tw, "------\t----\t-------------\t-----------\t---------\t-------------\t\n")

	binHz := rate / float64(size)
	for _, t := range window.Types() {
		coeffs := window.Generate(t, size, window.WithPeriodic())
		enbw, err := window.EquivalentNoiseBandwidth(coeffs)
		if err != nil {
			return fmt.Errorf("%v: %w", t, err)
		}

		gain := 0.0
		for _, v := range coeffs {
			gain += v
		}
		gain /= float64(size)

		name, _ := t.MarshalText()
		mark := ""
		if t == active {
			mark = "*"
		}

		fmt.Fprintf(tw, "%s\t%d\t%.6f\t%.4f\t%.2f\t%.1f\t%s\n",
			name, size, gain, enbw, enbw*binHz, window.Info(t).HighestSidelobe, mark)
	}

	return tw.Flush()
}
