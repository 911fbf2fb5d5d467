package core

import (
	"math"
	"testing"
)

func twoPassStdDev(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func TestRunningStatsMatchesTwoPass(t *testing.T) {
	xs := []float64{1, 5, -3, 9, 2, 2, 7, -8, 0.5, 12, -4.25, 6}
	var s RunningStats
	for _, x := range xs {
		s.Update(x)
	}
	want := twoPassStdDev(xs)
	if math.Abs(s.StdDev()-want) > 1e-9 {
		t.Errorf("StdDev() = %v, want %v within 1e-9", s.StdDev(), want)
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	wantMean := sum / float64(len(xs))
	if math.Abs(s.Mean()-wantMean) > 1e-9 {
		t.Errorf("Mean() = %v, want %v", s.Mean(), wantMean)
	}
	if s.Count() != int64(len(xs)) {
		t.Errorf("Count() = %d, want %d", s.Count(), len(xs))
	}
}

func TestRunningStatsStdDevBeforeTwoSamples(t *testing.T) {
	var s RunningStats
	if got := s.StdDev(); got != 0 {
		t.Errorf("StdDev() on empty = %v, want 0", got)
	}
	s.Update(42)
	if got := s.StdDev(); got != 0 {
		t.Errorf("StdDev() after one sample = %v, want 0", got)
	}
}

func TestRunningStatsReset(t *testing.T) {
	var s RunningStats
	s.Update(1)
	s.Update(2)
	s.Reset()
	if s.Count() != 0 || s.Mean() != 0 || s.StdDev() != 0 {
		t.Errorf("Reset() left non-zero state: count=%d mean=%v stddev=%v", s.Count(), s.Mean(), s.StdDev())
	}
}
