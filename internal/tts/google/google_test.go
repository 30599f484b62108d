package google

import (
	"math"
	"testing"
)

func TestSemitones(t *testing.T) {
	cases := []struct {
		pitch, want float64
	}{
		{0, 0},
		{1, 0},
		{2, 12},
		{0.5, -12},
		{1000, 20},
	}
	for _, c := range cases {
		if got := Semitones(c.pitch); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Semitones(%v) = %v, want %v", c.pitch, got, c.want)
		}
	}
	if got := Semitones(1.5); got < 7 || got > 7.1 {
		t.Errorf("Semitones(1.5) = %v, want ~7.02", got)
	}
}
