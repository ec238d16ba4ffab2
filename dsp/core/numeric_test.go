package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1) {
		t.Fatal("1 should be finite")
	}
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Fatal("NaN/Inf reported as finite")
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatal("expected tiny value to flush to zero")
	}
	if FlushDenormals(1e-3) != 1e-3 {
		t.Fatal("expected normal value to pass through")
	}
}

func TestAmplitudeToDB(t *testing.T) {
	tests := []struct {
		amplitude float64
		want      float64
	}{
		{amplitude: 1, want: 0},
		{amplitude: 0.5, want: -6.020599913279624},
		{amplitude: 10, want: 20},
		{amplitude: 0, want: math.Inf(-1)},
		{amplitude: -1, want: math.Inf(-1)},
	}

	for _, tt := range tests {
		got := AmplitudeToDB(tt.amplitude)
		if math.IsInf(tt.want, -1) {
			if !math.IsInf(got, -1) {
				t.Errorf("AmplitudeToDB(%v) = %v, want -Inf", tt.amplitude, got)
			}
			continue
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("AmplitudeToDB(%v) = %v, want %v", tt.amplitude, got, tt.want)
		}
	}
}

func TestShiftOctaves(t *testing.T) {
	tests := []struct {
		hz, n, want float64
	}{
		{hz: 1000, n: 1, want: 2000},
		{hz: 1000, n: -1, want: 500},
		{hz: 1000, n: 0, want: 1000},
		{hz: 100, n: 1.0 / 3, want: 100 * math.Cbrt(2)},
	}

	for _, tt := range tests {
		if got := ShiftOctaves(tt.hz, tt.n); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ShiftOctaves(%v, %v) = %v, want %v", tt.hz, tt.n, got, tt.want)
		}
	}
}
