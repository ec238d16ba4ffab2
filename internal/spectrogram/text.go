package spectrogram

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var labelFace = basicfont.Face7x13

func textWidth(s string) int {
	d := &font.Drawer{Face: labelFace}
	return d.MeasureString(s).Ceil()
}

// drawText draws s with its baseline at y.
func drawText(dst *image.RGBA, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: labelFace,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}
