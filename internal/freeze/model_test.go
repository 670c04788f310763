package freeze

import (
	"math"
	"testing"
)

func TestAssessNoDangerAtOrAbove30(t *testing.T) {
	temps := []float64{30, 30.5, 32, 50, 95}
	winds := []float64{0, 5, 40}
	for _, mode := range []Mode{Conduction, Convection} {
		for _, temp := range temps {
			for _, wind := range winds {
				got := Assess(temp, wind, mode)
				if got.Level != DangerNone {
					t.Errorf("%v temp=%v wind=%v: level %q, want None", mode, temp, wind, got.Level)
				}
				if got.HasEstimate() {
					t.Errorf("%v temp=%v wind=%v: unexpected estimate %v", mode, temp, wind, got.Minutes)
				}
			}
		}
	}
}

func TestAssessMediumBelow30(t *testing.T) {
	temps := []float64{29.9, 25, 10, 0, -20}
	winds := []float64{0, 1, 10, 35}
	for _, mode := range []Mode{Conduction, Convection} {
		for _, temp := range temps {
			for _, wind := range winds {
				got := Assess(temp, wind, mode)
				if got.Level != DangerMedium {
					t.Errorf("%v temp=%v wind=%v: level %q, want Medium", mode, temp, wind, got.Level)
				}
				if !got.HasEstimate() {
					t.Errorf("%v temp=%v wind=%v: expected estimate", mode, temp, wind)
				}
				if math.IsNaN(got.Minutes) || math.IsInf(got.Minutes, 0) || got.Minutes < 0 {
					t.Errorf("%v temp=%v wind=%v: minutes %v not finite and non-negative", mode, temp, wind, got.Minutes)
				}
			}
		}
	}
}

func TestAssessDeterministic(t *testing.T) {
	for _, mode := range []Mode{Conduction, Convection} {
		a := Assess(12.5, 7, mode)
		b := Assess(12.5, 7, mode)
		if a != b {
			t.Errorf("%v: got %+v then %+v", mode, a, b)
		}
		if math.Float64bits(a.Minutes) != math.Float64bits(b.Minutes) {
			t.Errorf("%v: minutes not bit-identical", mode)
		}
	}
}

func TestModesDivergeWithWind(t *testing.T) {
	for _, wind := range []float64{1, 5, 10, 30} {
		cond := Assess(20, wind, Conduction)
		conv := Assess(20, wind, Convection)
		if cond.Minutes == conv.Minutes {
			t.Errorf("wind=%v: conduction and convection both %v", wind, cond.Minutes)
		}
	}
}

func TestConductionIgnoresWind(t *testing.T) {
	calm := Assess(20, 0, Conduction)
	windy := Assess(20, 25, Conduction)
	if calm.Minutes != windy.Minutes {
		t.Errorf("conduction depends on wind: %v vs %v", calm.Minutes, windy.Minutes)
	}
}

func TestConvectionFreezesFasterInStrongerWind(t *testing.T) {
	light := Assess(20, 2, Convection)
	strong := Assess(20, 30, Convection)
	if strong.Minutes >= light.Minutes {
		t.Errorf("expected stronger wind to shorten time: light=%v strong=%v", light.Minutes, strong.Minutes)
	}
}

func TestColderFreezesFaster(t *testing.T) {
	for _, mode := range []Mode{Conduction, Convection} {
		mild := Assess(28, 10, mode)
		cold := Assess(-5, 10, mode)
		if cold.Minutes >= mild.Minutes {
			t.Errorf("%v: expected colder to be faster: mild=%v cold=%v", mode, mild.Minutes, cold.Minutes)
		}
	}
}

func TestAssessConductionReferenceValue(t *testing.T) {
	// 25°F still air: tau ≈ 584s, t1 ≈ 601s, t2 ≈ 9330s.
	got := Assess(25, 10, Conduction)
	if got.Minutes < 135 || got.Minutes > 146 {
		t.Errorf("minutes: got %v, want ~140.7", got.Minutes)
	}
}

func TestAssessNegativeWindClamped(t *testing.T) {
	neg := Assess(20, -5, Convection)
	zero := Assess(20, 0, Convection)
	if neg != zero {
		t.Errorf("negative wind: got %+v, want %+v", neg, zero)
	}
}

func TestConvectiveCoefficient(t *testing.T) {
	// Calm air reduces the correlation to Nu = 0.3.
	calm := ConvectiveCoefficient(0)
	want := 0.3 * airConductance / pipeDiameter
	if math.Abs(calm-want) > 1e-12 {
		t.Errorf("calm h: got %v, want %v", calm, want)
	}

	h10 := ConvectiveCoefficient(10)
	if h10 < 45 || h10 > 51 {
		t.Errorf("h at 10 mph: got %v, want ~47.8", h10)
	}
	if ConvectiveCoefficient(20) <= h10 {
		t.Error("h should increase with wind speed")
	}
}

func TestFahrenheitToCelsius(t *testing.T) {
	tests := []struct {
		f, c float64
	}{
		{32, 0},
		{212, 100},
		{-40, -40},
	}
	for _, tt := range tests {
		if got := FahrenheitToCelsius(tt.f); math.Abs(got-tt.c) > 1e-9 {
			t.Errorf("FahrenheitToCelsius(%v): got %v, want %v", tt.f, got, tt.c)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"conduction", Conduction, false},
		{"Convection", Convection, false},
		{" CONDUCTION ", Conduction, false},
		{"radiation", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModeString(t *testing.T) {
	if Conduction.String() != "conduction" {
		t.Errorf("got %q", Conduction.String())
	}
	if Convection.String() != "convection" {
		t.Errorf("got %q", Convection.String())
	}
	if Mode(9).String() != "Mode(9)" {
		t.Errorf("got %q", Mode(9).String())
	}
}

func TestThresholdsClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		temp float64
		want DangerLevel
	}{
		{40, DangerNone},
		{32, DangerNone},
		{31, DangerLow},
		{10, DangerLow},
		{9, DangerMedium},
		{0, DangerMedium},
		{-1, DangerHigh},
	}
	for _, tt := range tests {
		if got := th.Classify(tt.temp); got != tt.want {
			t.Errorf("Classify(%v): got %q, want %q", tt.temp, got, tt.want)
		}
	}
}
