package utils

import (
	"math"
	"testing"
)

func TestClampFloat64(t *testing.T) {
	tests := []struct {
		value, min, max, expected float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}

	for _, tt := range tests {
		result := ClampFloat64(tt.value, tt.min, tt.max)
		if result != tt.expected {
			t.Errorf("ClampFloat64(%f, %f, %f) = %f, expected %f", tt.value, tt.min, tt.max, result, tt.expected)
		}
	}
}

func TestSumAndMean(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	if got := Sum(values); got != 10 {
		t.Errorf("Sum = %f, expected 10", got)
	}
	if got := Mean(values); got != 2.5 {
		t.Errorf("Mean = %f, expected 2.5", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %f, expected 0", got)
	}
}

func TestAlmostEqual(t *testing.T) {
	if !AlmostEqual(1.0, 1.0+1e-12, 1e-9) {
		t.Error("Expected values within tolerance to compare equal")
	}
	if AlmostEqual(1.0, 1.01, 1e-9) {
		t.Error("Expected values outside tolerance to differ")
	}
	if !AlmostEqual(0, 0, 0) {
		t.Error("Expected zeros to compare equal")
	}
}

func TestRound(t *testing.T) {
	if got := Round(math.Pi, 2); got != 3.14 {
		t.Errorf("Round(pi, 2) = %f", got)
	}
}

func TestCloneFloat64s(t *testing.T) {
	src := []float64{1, 2}
	dst := CloneFloat64s(src)
	dst[0] = 9
	if src[0] != 1 {
		t.Error("Expected clone to be independent of source")
	}
	if CloneFloat64s(nil) != nil {
		t.Error("Expected nil clone of nil")
	}
}
