package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-bandscope/dsp/core"
)

// Level is a block level reading in dBFS. Silence reads -Inf.
type Level struct {
	PeakDBFS float64
	RMSDBFS  float64
}

// MeasureLevel returns the peak and RMS level of block.
func MeasureLevel(block []float64) Level {
	if len(block) == 0 {
		return Level{PeakDBFS: math.Inf(-1), RMSDBFS: math.Inf(-1)}
	}

	peak := floats.Norm(block, math.Inf(1))
	rms := floats.Norm(block, 2) / math.Sqrt(float64(len(block)))

	return Level{
		PeakDBFS: core.AmplitudeToDB(peak),
		RMSDBFS:  core.AmplitudeToDB(rms),
	}
}

// Clipping reports whether the peak reaches full scale.
func (l Level) Clipping() bool { return l.PeakDBFS >= 0 }
