package spectrum

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-bandscope/internal/testutil"
)

func TestMeasureLevel(t *testing.T) {
	tests := []struct {
		name     string
		block    []float64
		peak     float64
		rms      float64
		clipping bool
	}{
		{name: "full scale dc", block: testutil.DC(1, 64), peak: 0, rms: 0, clipping: true},
		{name: "half scale negative dc", block: testutil.DC(-0.5, 64), peak: -6.0206, rms: -6.0206},
		{name: "sine", block: testutil.DeterministicSine(1000, 48000, 0.5, 4800), peak: -6.0206, rms: -9.0309},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := MeasureLevel(tt.block)
			if math.Abs(l.PeakDBFS-tt.peak) > 1e-3 {
				t.Fatalf("peak = %v, want %v", l.PeakDBFS, tt.peak)
			}
			if math.Abs(l.RMSDBFS-tt.rms) > 1e-3 {
				t.Fatalf("rms = %v, want %v", l.RMSDBFS, tt.rms)
			}
			if l.Clipping() != tt.clipping {
				t.Fatalf("clipping = %v, want %v", l.Clipping(), tt.clipping)
			}
		})
	}
}

func TestMeasureLevel_Silence(t *testing.T) {
	for _, block := range [][]float64{nil, make([]float64, 16)} {
		l := MeasureLevel(block)
		if !math.IsInf(l.PeakDBFS, -1) || !math.IsInf(l.RMSDBFS, -1) {
			t.Fatalf("silence level = %+v, want -Inf", l)
		}
	}
}
