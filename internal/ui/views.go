package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-bandscope/dsp/spectrum"
	"github.com/cwbudde/algo-bandscope/internal/recording"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// Lines used by everything except the spectrogram.
	chromeLines = 8
	minRows     = 4
	minCols     = 10
)

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("bandscope"))
	if m.title != "" {
		b.WriteString("  ")
		b.WriteString(subtitleStyle.Render(m.title))
	}
	b.WriteString("\n\n")

	cols, rows := m.canvasSize()
	b.WriteString(renderImage(m.frame.Image, cols, rows))
	b.WriteString("\n")

	b.WriteString(m.transportView())
	b.WriteString("\n")
	b.WriteString(m.filterView())
	b.WriteString("\n")
	b.WriteString(m.levelView())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: ") + m.err.Error())
	case m.status != "":
		b.WriteString(subtitleStyle.Render(m.status))
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) canvasSize() (cols, rows int) {
	w, h := m.Width, m.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return max(w, minCols), max(h-chromeLines, minRows)
}

func (m Model) transportView() string {
	player := m.sess.Playback()

	parts := []string{
		field("State", player.State().String()),
		field("Position", formatPosition(m.frame.Position)),
		field("Loop", onOff(player.Loop())),
	}
	if player.RestartPending() {
		parts = append(parts, subtitleStyle.Render("rebuild pending"))
	}
	if rec := m.sess.Recorder(); rec != nil {
		v := rec.State().String()
		if rec.State() != recording.Idle {
			v += " " + formatPosition(rec.Elapsed())
		}
		parts = append(parts, field("Rec", v))
	}

	return strings.Join(parts, "  ")
}

func (m Model) filterView() string {
	s := m.sess.Settings()

	return strings.Join([]string{
		field("Filter", onOff(s.Filter.Enabled)),
		field("HP", formatHz(s.Filter.HighPassHz)),
		field("LP", formatHz(s.Filter.LowPassHz)),
		field("Axis", s.Axis.Scale.String()),
	}, "  ")
}

func (m Model) levelView() string {
	in, out := m.sess.Levels()
	return field("In", formatLevel(in)) + "  " + field("Out", formatLevel(out))
}

func (m Model) helpText() string {
	help := "space play/pause · s stop · f filter · ←/→ high-pass · ↓/↑ low-pass · 1-4 presets · a axis · l loop"
	if m.sess.Recorder() != nil {
		help += " · r record · p pause rec"
	}
	return help + " · q quit"
}

func field(key, value string) string {
	return keyStyle.Render(key+":") + " " + valueStyle.Render(value)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatHz(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.0f Hz", hz)
}

func formatPosition(d time.Duration) string {
	d = d.Round(100 * time.Millisecond)
	m := int(d / time.Minute)
	s := (d % time.Minute).Seconds()
	return fmt.Sprintf("%d:%04.1f", m, s)
}

func formatLevel(l spectrum.Level) string {
	return fmt.Sprintf("%s peak / %s rms", formatDB(l.PeakDBFS), formatDB(l.RMSDBFS))
}

func formatDB(v float64) string {
	if math.IsInf(v, -1) || math.IsNaN(v) {
		return "-inf"
	}
	return fmt.Sprintf("%.1f dBFS", v)
}

// renderImage samples img onto a cols x rows grid of half blocks: the
// foreground paints the upper pixel of each cell and the background the
// lower one. Runs of identical cells share one styled segment.
func renderImage(img *image.RGBA, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	if img == nil {
		return strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", cols)+"\n", rows), "\n")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var b strings.Builder
	for r := range rows {
		if r > 0 {
			b.WriteByte('\n')
		}

		yTop := bounds.Min.Y + (4*r+1)*h/(4*rows)
		yBottom := bounds.Min.Y + (4*r+3)*h/(4*rows)

		var run int
		var runTop, runBottom color.RGBA
		for c := range cols {
			x := bounds.Min.X + (2*c+1)*w/(2*cols)
			top := img.RGBAAt(x, yTop)
			bottom := img.RGBAAt(x, yBottom)

			if run > 0 && (top != runTop || bottom != runBottom) {
				b.WriteString(halfBlocks(runTop, runBottom, run))
				run = 0
			}
			runTop, runBottom = top, bottom
			run++
		}
		b.WriteString(halfBlocks(runTop, runBottom, run))
	}

	return b.String()
}

func halfBlocks(top, bottom color.RGBA, n int) string {
	return lipgloss.NewStyle().
		Foreground(hexColor(top)).
		Background(hexColor(bottom)).
		Render(strings.Repeat("▀", n))
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}
