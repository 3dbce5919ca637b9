package utils

import (
	"testing"
)

func TestParseSI(t *testing.T) {
	tests := []struct {
		in       string
		expected float64
	}{
		{"100p", 100e-12},
		{"100ps", 100e-12},
		{"0.42u", 0.42e-6},
		{"0.42um", 0.42e-6},
		{"1.8", 1.8},
		{"1.8V", 1.8},
		{"1e-9", 1e-9},
		{"2MEG", 2e6},
		{"5m", 5e-3},
		{"-3n", -3e-9},
	}

	for _, tt := range tests {
		got, err := ParseSI(tt.in)
		if err != nil {
			t.Errorf("ParseSI(%q) returned error: %v", tt.in, err)
			continue
		}
		if !AlmostEqual(got, tt.expected, 1e-12) {
			t.Errorf("ParseSI(%q) = %g, expected %g", tt.in, got, tt.expected)
		}
	}
}

func TestParseSIInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3p", "p100"} {
		if _, err := ParseSI(in); err == nil {
			t.Errorf("Expected ParseSI(%q) to fail", in)
		}
	}
}

func TestFormatSI(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{100e-12, "100p"},
		{1e-9, "1n"},
		{0.42e-6, "420n"},
		{13.44e-6, "13.44u"},
		{1.8, "1.8"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := FormatSI(tt.in, 6); got != tt.expected {
			t.Errorf("FormatSI(%g) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestFormatSIRoundTrip(t *testing.T) {
	for _, v := range []float64{3.3e-15, 2.71e-10, 7.5e-6, 42, 1.5e4} {
		back, err := ParseSI(FormatSI(v, 12))
		if err != nil {
			t.Fatalf("ParseSI(FormatSI(%g)) error: %v", v, err)
		}
		if !AlmostEqual(back, v, 1e-9) {
			t.Errorf("round trip of %g gave %g", v, back)
		}
	}
}
