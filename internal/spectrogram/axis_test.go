package spectrogram

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestLinearAxisRows(t *testing.T) {
	axis := FrequencyAxis{MinHz: 0, MaxHz: 20000, Scale: Linear}
	const h = 400

	if got := axis.RowToFreq(0, h); got != 20000 {
		t.Fatalf("row 0 = %g Hz, want 20000", got)
	}
	if got := axis.RowToFreq(h-1, h); got > 20000.0/h+1e-9 {
		t.Fatalf("bottom row = %g Hz, want ~0", got)
	}
	if got := axis.RowToFreq(h/2, h); got != 10000 {
		t.Fatalf("middle row = %g Hz, want 10000", got)
	}
	if got := axis.Row(10000, h); got != h/2 {
		t.Fatalf("Row(10000) = %d, want %d", got, h/2)
	}
}

func TestLogAxisRows(t *testing.T) {
	axis := FrequencyAxis{MinHz: 20, MaxHz: 20000, Scale: Logarithmic}
	const h = 300

	if got := axis.Row(20000, h); got != 0 {
		t.Fatalf("Row(20000) = %d, want 0", got)
	}
	if got := axis.Row(20, h); got != h-1 {
		t.Fatalf("Row(20) = %d, want %d", got, h-1)
	}

	// 200 Hz sits one decade above the floor of a three-decade axis.
	fromBottom := (math.Log(200) - math.Log(20)) / (math.Log(20000) - math.Log(20))
	if math.Abs(fromBottom-1.0/3) > 1e-12 {
		t.Fatalf("fraction = %g", fromBottom)
	}
	y := axis.FreqToRow(200, h)
	if want := (1 - fromBottom) * h; math.Abs(y-want) > 1e-9 {
		t.Fatalf("FreqToRow(200) = %g, want %g", y, want)
	}
	if got := axis.RowToFreq(int(math.Round(y)), h); math.Abs(got-200) > 1 {
		t.Fatalf("round trip 200 Hz = %g", got)
	}
}

func TestLogAxisFloor(t *testing.T) {
	axis := FrequencyAxis{MinHz: 0, MaxHz: 20000, Scale: Logarithmic}
	if got := axis.RowToFreq(400, 400); math.Abs(got-20) > 1e-9 {
		t.Fatalf("bottom edge = %g Hz, want the 20 Hz floor", got)
	}
	if axis.Contains(10) {
		t.Fatal("10 Hz should be below the logarithmic floor")
	}
	if !axis.Contains(20) || !axis.Contains(20000) || axis.Contains(20001) {
		t.Fatal("Contains bounds wrong")
	}
}

func TestAxisValidate(t *testing.T) {
	tests := []struct {
		name string
		axis FrequencyAxis
		ok   bool
	}{
		{name: "default", axis: DefaultAxis(), ok: true},
		{name: "linear", axis: FrequencyAxis{MinHz: 100, MaxHz: 200}, ok: true},
		{name: "inverted", axis: FrequencyAxis{MinHz: 200, MaxHz: 100}},
		{name: "negative", axis: FrequencyAxis{MinHz: -1, MaxHz: 100}},
		{name: "log below floor", axis: FrequencyAxis{MinHz: 0, MaxHz: 15, Scale: Logarithmic}},
		{name: "nan", axis: FrequencyAxis{MinHz: math.NaN(), MaxHz: 100}},
		{name: "bad scale", axis: FrequencyAxis{MinHz: 0, MaxHz: 100, Scale: Scale(7)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.axis.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidAxis) {
				t.Fatalf("err = %v, want ErrInvalidAxis", err)
			}
		})
	}
}

func TestScaleJSON(t *testing.T) {
	data, err := json.Marshal(DefaultAxis())
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"minHz":0,"maxHz":20000,"scale":"logarithmic"}`; string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}

	var a FrequencyAxis
	if err := json.Unmarshal([]byte(`{"minHz":20,"maxHz":8000,"scale":"lin"}`), &a); err != nil {
		t.Fatal(err)
	}
	if a != (FrequencyAxis{MinHz: 20, MaxHz: 8000, Scale: Linear}) {
		t.Fatalf("decoded %+v", a)
	}
	if err := json.Unmarshal([]byte(`{"scale":"mel"}`), &a); err == nil {
		t.Fatal("expected error for unknown scale")
	}
}
