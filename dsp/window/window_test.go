package window

import (
	"errors"
	"math"
	"testing"
)

func TestGenerateAllTypes(t *testing.T) {
	types := []Type{
		TypeRectangular,
		TypeHann,
		TypeHamming,
		TypeBlackman,
		TypeBlackmanHarris4Term,
	}

	for _, typ := range types {
		t.Run(Info(typ).Name, func(t *testing.T) {
			w := Generate(typ, 64)
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}
		})
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	sym := Generate(TypeBlackman, 16)
	per := Generate(TypeBlackman, 16, WithPeriodic())

	if almostEqual(sym[len(sym)-1], per[len(per)-1], 1e-12) {
		t.Fatal("periodic and symmetric windows should differ at the last sample")
	}
	if !almostEqual(per[8], 1, 1e-12) {
		t.Fatalf("periodic Blackman peak = %v, want 1", per[8])
	}
}

func TestApplyInPlaceByType(t *testing.T) {
	buf := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	Apply(TypeHann, buf)

	checkGolden(t, buf, Generate(TypeHann, 8), 1e-15)
}

func TestMetadataAndENBW(t *testing.T) {
	tests := []struct {
		typ  Type
		name string
		enbw float64
	}{
		{typ: TypeHann, name: "Hann", enbw: 1.5},
		{typ: TypeBlackman, name: "Blackman", enbw: 1.73},
		{typ: TypeBlackmanHarris4Term, name: "Blackman-Harris", enbw: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Info(tt.typ)
			if m.Name != tt.name {
				t.Fatalf("name=%q, want %q", m.Name, tt.name)
			}

			enbw, err := EquivalentNoiseBandwidth(Generate(tt.typ, 4096, WithPeriodic()))
			if err != nil {
				t.Fatalf("EquivalentNoiseBandwidth error: %v", err)
			}

			if !almostEqual(enbw, tt.enbw, 0.01) {
				t.Fatalf("ENBW=%v, want ~%v", enbw, tt.enbw)
			}
		})
	}
}

func TestGoldenVectors(t *testing.T) {
	hannExpected := []float64{
		0.0, 0.1882550990706332, 0.6112604669781572, 0.9504844339512095,
		0.9504844339512095, 0.6112604669781573, 0.1882550990706333, 0.0,
	}
	hammingExpected := []float64{
		0.08, 0.25319469114498255, 0.6423596296199047, 0.9544456792351128,
		0.9544456792351128, 0.6423596296199048, 0.25319469114498266, 0.08,
	}
	blackmanExpected := []float64{
		0, 0.09045342435412804, 0.45918295754596355, 0.9203636180999081,
		0.9203636180999083, 0.45918295754596383, 0.09045342435412812, 0,
	}
	bh4Expected := []float64{
		0.00006, 0.03339172347815117, 0.332833504298565,
		0.8893697722232837, 0.8893697722232838, 0.3328335042985652,
		0.0333917234781512, 0.00006,
	}

	checkGolden(t, Generate(TypeHann, 8), hannExpected, 1e-10)
	checkGolden(t, Generate(TypeHamming, 8), hammingExpected, 1e-10)
	checkGolden(t, Generate(TypeBlackman, 8), blackmanExpected, 1e-10)
	checkGolden(t, Generate(TypeBlackmanHarris4Term, 8), bh4Expected, 1e-10)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{in: "blackman", want: TypeBlackman},
		{in: " Hann ", want: TypeHann},
		{in: "HAMMING", want: TypeHamming},
		{in: "blackman-harris", want: TypeBlackmanHarris4Term},
		{in: "none", want: TypeRectangular},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := Parse("kaiser"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("Parse(kaiser) err = %v, want ErrUnknownType", err)
	}
}

func TestTypeText(t *testing.T) {
	for _, typ := range Types() {
		text, err := typ.MarshalText()
		if err != nil {
			t.Fatalf("%v: %v", typ, err)
		}

		var got Type
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if got != typ {
			t.Fatalf("round trip of %v gave %v", typ, got)
		}
	}

	if _, err := Type(99).MarshalText(); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("MarshalText(99) err = %v, want ErrUnknownType", err)
	}
}

func TestValidationAndEdgeCases(t *testing.T) {
	if got := Generate(TypeHann, 0); got != nil {
		t.Fatalf("expected nil for zero length, got %v", got)
	}

	if got := Generate(TypeHann, 1); len(got) != 1 || got[0] != 0 {
		t.Fatalf("single-sample window = %v", got)
	}

	if _, err := EquivalentNoiseBandwidth(nil); err == nil {
		t.Fatal("expected empty coeffs error")
	}

	if _, err := EquivalentNoiseBandwidth([]float64{0, 0, 0}); err == nil {
		t.Fatal("expected zero coherent gain error")
	}

	if err := ApplyCoefficientsInPlace([]float64{1, 2}, []float64{1}); err == nil {
		t.Fatal("expected mismatch error")
	}

	if Type(99).String() != "Type(99)" {
		t.Fatalf("unexpected name %q", Type(99).String())
	}
}

func checkGolden(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len mismatch got=%d want=%d", len(got), len(want))
	}

	for i := range got {
		if !almostEqual(got[i], want[i], tol) {
			t.Fatalf("index %d: got=%.16f want=%.16f", i, got[i], want[i])
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
