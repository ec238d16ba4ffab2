package spectrogram

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400

	// PlaceholderText is shown while nothing is playing.
	PlaceholderText = "Start playback to see spectrogram"
)

// Overlay carries the per-tick state drawn over the spectrum.
type Overlay struct {
	Filter bandpass.Settings
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width, r.height = width, height
	}
}

// Renderer owns the scrolling spectrum image. It is driven from one
// goroutine.
type Renderer struct {
	width, height int
	axis          FrequencyAxis
	logger        *slog.Logger

	spectrum *image.RGBA
	frame    *image.RGBA
	columns  int
	overlay  Overlay
}

// New returns a blank renderer for axis.
func New(axis FrequencyAxis, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		width:  DefaultWidth,
		height: DefaultHeight,
		axis:   axis,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.width < 2 || r.height < 2 {
		return nil, fmt.Errorf("spectrogram: image must be at least 2x2, got %dx%d", r.width, r.height)
	}
	if err := axis.Validate(); err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, r.width, r.height)
	r.spectrum = image.NewRGBA(bounds)
	r.frame = image.NewRGBA(bounds)
	r.compose()

	return r, nil
}

// Axis returns the current frequency axis.
func (r *Renderer) Axis() FrequencyAxis { return r.axis }

// Bounds returns the image rectangle.
func (r *Renderer) Bounds() image.Rectangle { return r.spectrum.Bounds() }

// Columns returns how many snapshots have been pushed since the last reset.
func (r *Renderer) Columns() int { return r.columns }

// Spectrum returns the scrolling buffer without overlays.
func (r *Renderer) Spectrum() *image.RGBA { return r.spectrum }

// Frame returns the last composed frame.
func (r *Renderer) Frame() *image.RGBA { return r.frame }

// SetAxis switches to a new frequency mapping. Existing columns were drawn
// for the old mapping, so a change clears the buffer. It reports whether
// the axis changed.
func (r *Renderer) SetAxis(axis FrequencyAxis) (bool, error) {
	if err := axis.Validate(); err != nil {
		return false, err
	}
	if axis == r.axis {
		return false, nil
	}

	r.axis = axis
	r.Reset()
	r.logger.Debug("spectrogram axis changed", "min", axis.MinHz, "max", axis.MaxHz, "scale", axis.Scale)

	return true, nil
}

// Reset clears the scrolling buffer.
func (r *Renderer) Reset() {
	clear(r.spectrum.Pix)
	r.columns = 0
	r.compose()
}

// Push scrolls the image one column left, paints snapshot into the new
// rightmost column and returns the composed frame. nyquist is half the
// sample rate the snapshot was analysed at.
func (r *Renderer) Push(snapshot []uint8, nyquist float64, ov Overlay) *image.RGBA {
	r.scroll()
	r.paintColumn(snapshot, nyquist)
	r.columns++
	r.overlay = ov
	r.compose()

	return r.frame
}

// Placeholder renders the static frame shown while playback is stopped.
func (r *Renderer) Placeholder() *image.RGBA {
	img := image.NewRGBA(r.spectrum.Bounds())
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBG), image.Point{}, draw.Src)

	w := textWidth(PlaceholderText)
	x := (r.width - w) / 2
	y := r.height/2 + labelFace.Metrics().Ascent.Ceil()/2
	drawText(img, PlaceholderText, x, y, placeholderFG)

	return img
}

// EncodePNG writes the current frame as PNG.
func (r *Renderer) EncodePNG(w io.Writer) error { return EncodePNG(w, r.frame) }

// EncodePNG writes img, typically a frame kept from a renderer, as PNG.
func EncodePNG(w io.Writer, img *image.RGBA) error {
	if img == nil {
		return errors.New("spectrogram: encode png: no frame")
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("spectrogram: encode png: %w", err)
	}
	return nil
}

func (r *Renderer) scroll() {
	pix := r.spectrum.Pix
	stride := r.spectrum.Stride
	rowBytes := r.width * 4

	for y := 0; y < r.height; y++ {
		row := pix[y*stride : y*stride+rowBytes]
		copy(row, row[4:])
	}
}

func (r *Renderer) paintColumn(snapshot []uint8, nyquist float64) {
	x := r.width - 1
	bins := len(snapshot)

	for y := 0; y < r.height; y++ {
		c := hotTable[0]
		if bins > 0 && nyquist > 0 {
			freq := r.axis.RowToFreq(y, r.height)
			bin := int(math.Round(freq / nyquist * float64(bins)))
			bin = max(0, min(bins-1, bin))
			c = hotTable[snapshot[bin]]
		}
		r.spectrum.SetRGBA(x, y, c)
	}
}

// compose copies the spectrum into the frame and draws the grid and the
// passband overlay.
func (r *Renderer) compose() {
	b := r.frame.Bounds()
	draw.Draw(r.frame, b, image.NewUniform(frameBG), image.Point{}, draw.Src)
	draw.Draw(r.frame, b, r.spectrum, image.Point{}, draw.Over)

	r.drawGrid()
	if r.overlay.Filter.Enabled {
		r.drawPassband(r.overlay.Filter)
	}
}

var gridHz = []float64{20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 20000}

func (r *Renderer) drawGrid() {
	line := image.NewUniform(gridLine)
	for _, hz := range gridHz {
		if !r.axis.Contains(hz) {
			continue
		}
		y := r.axis.Row(hz, r.height)
		draw.Draw(r.frame, image.Rect(0, y, r.width, y+1), line, image.Point{}, draw.Over)
		drawText(r.frame, gridLabel(hz), 5, y+3, gridText)
	}
}

func (r *Renderer) drawPassband(f bandpass.Settings) {
	shade := image.NewUniform(stopbandShade)
	for y := 0; y < r.height; y++ {
		freq := r.axis.RowToFreq(y, r.height)
		if freq < f.HighPassHz || freq > f.LowPassHz {
			draw.Draw(r.frame, image.Rect(0, y, r.width, y+1), shade, image.Point{}, draw.Over)
		}
	}

	for _, hz := range []float64{f.HighPassHz, f.LowPassHz} {
		if !r.axis.Contains(hz) {
			continue
		}
		y := r.axis.Row(hz, r.height)
		draw.Draw(r.frame, image.Rect(0, y, r.width, y+1), image.NewUniform(cutoffLine), image.Point{}, draw.Src)

		label := fmt.Sprintf("%.0f Hz", hz)
		ty := y - 3
		if ty < labelFace.Metrics().Ascent.Ceil() {
			ty = y + labelFace.Metrics().Ascent.Ceil() + 2
		}
		drawText(r.frame, label, r.width-textWidth(label)-5, ty, cutoffLine)
	}
}

func gridLabel(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%gk", hz/1000)
	}
	return fmt.Sprintf("%g", hz)
}

var (
	frameBG       = color.RGBA{A: 255}
	placeholderBG = color.RGBA{R: 0x2d, G: 0x37, B: 0x48, A: 0xff}
	placeholderFG = color.RGBA{R: 0xa0, G: 0xae, B: 0xc0, A: 0xff}
	gridLine      = color.RGBA{R: 0x4c, G: 0x4c, B: 0x4c, A: 0x4c} // white at 30%, premultiplied
	gridText      = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xcc}
	stopbandShade = color.RGBA{A: 0x99}
	cutoffLine    = color.RGBA{R: 0x48, G: 0xbb, B: 0x78, A: 0xff}
)
