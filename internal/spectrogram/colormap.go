package spectrogram

import "image/color"

// HotColor maps v in [0, 1] onto the black, red, yellow, white ramp.
// Values outside the range are clamped.
func HotColor(v float64) color.RGBA {
	v = max(0, min(1, v))

	switch {
	case v < 0.25:
		return color.RGBA{R: uint8(v * 4 * 255), A: 255}
	case v < 0.5:
		return color.RGBA{R: 255, A: 255}
	case v < 0.75:
		return color.RGBA{R: 255, G: uint8((v - 0.5) * 4 * 255), A: 255}
	default:
		return color.RGBA{R: 255, G: 255, B: uint8((v - 0.75) * 4 * 255), A: 255}
	}
}

// hotTable caches HotColor for every byte magnitude.
var hotTable = func() [256]color.RGBA {
	var t [256]color.RGBA
	for i := range t {
		t[i] = HotColor(float64(i) / 255)
	}
	return t
}()
