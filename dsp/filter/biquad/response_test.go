package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

// directResponse evaluates H(e^jw) from the transfer function.
func directResponse(c Coefficients, freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return num / den
}

func TestMagnitudeSquaredMatchesTransferFunction(t *testing.T) {
	for _, f := range []float64{10, 100, 1000, 5000, 12000, 20000} {
		h := cmplx.Abs(directResponse(smoother, f, 48000))
		want := h * h

		if got := smoother.MagnitudeSquared(f, 48000); math.Abs(got-want) > 1e-12 {
			t.Errorf("f=%v: got %v, want %v", f, got, want)
		}
	}
}

func TestPassthroughIsFlat(t *testing.T) {
	c := Coefficients{B0: 1}
	for _, f := range []float64{0, 100, 10000, 23999} {
		if db := c.MagnitudeDB(f, 48000); math.Abs(db) > 1e-12 {
			t.Errorf("f=%v: %v dB, want 0", f, db)
		}
	}
}

func TestCascadeMagnitudeScalesWithLength(t *testing.T) {
	one := smoother.MagnitudeDB(6000, 48000)

	c := NewCascade(smoother, 16)
	if got, want := c.MagnitudeDB(6000, 48000), 16*one; math.Abs(got-want) > 1e-9 {
		t.Fatalf("cascade gain = %v dB, want %v", got, want)
	}
}

func TestCascadeMagnitudeFollowsRetunedSection(t *testing.T) {
	c := NewCascade(smoother, 2)
	c.Section(1).Retune(Coefficients{B0: 1})

	want := smoother.MagnitudeDB(6000, 48000)
	if got := c.MagnitudeDB(6000, 48000); math.Abs(got-want) > 1e-9 {
		t.Fatalf("cascade gain = %v dB, want %v", got, want)
	}
}

func TestStable(t *testing.T) {
	tests := []struct {
		name string
		c    Coefficients
		want bool
	}{
		{name: "smoother", c: smoother, want: true},
		{name: "fir", c: Coefficients{B0: 0.5, B1: 0.5}, want: true},
		{name: "complex poles inside", c: Coefficients{B0: 1, A1: 1.5, A2: 0.6}, want: true},
		{name: "pole radius one", c: Coefficients{B0: 1, A2: 1}, want: false},
		{name: "real pole outside", c: Coefficients{B0: 1, A1: -2, A2: 0.99}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Stable(); got != tt.want {
				t.Fatalf("Stable() = %v, want %v", got, tt.want)
			}
			if got := NewCascade(tt.c, 4).Stable(); got != tt.want {
				t.Fatalf("cascade Stable() = %v, want %v", got, tt.want)
			}
		})
	}
}
