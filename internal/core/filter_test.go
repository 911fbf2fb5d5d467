package core

import (
	"math"
	"testing"
)

func TestNewFilterSelectsBiquadForOrder2Bandpass(t *testing.T) {
	cfg := FilterConfig{Class: ClassIIR, Order: 2, Type: TypeBandpass, LowcutHz: 300, HighcutHz: 3000}
	f, err := NewFilter(cfg, 30000)
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}
	if _, ok := f.(*Biquad); !ok {
		t.Errorf("NewFilter(order=2, bandpass) = %T, want *Biquad", f)
	}
}

func TestNewFilterSelectsIIRFilterForHigherOrder(t *testing.T) {
	cfg := FilterConfig{Class: ClassIIR, Order: 4, Type: TypeLowpass, LowcutHz: 300, HighcutHz: 3000}
	f, err := NewFilter(cfg, 30000)
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}
	if _, ok := f.(*IIRFilter); !ok {
		t.Errorf("NewFilter(order=4, lowpass) = %T, want *IIRFilter", f)
	}
}

func TestNewFilterRejectsUnknownClass(t *testing.T) {
	if _, err := NewFilter(FilterConfig{Class: "bogus"}, 30000); err == nil {
		t.Error("NewFilter() with unknown class returned nil error")
	}
}

func TestDesignButterworthRejectsUnknownType(t *testing.T) {
	cfg := FilterConfig{Order: 2, Type: "bogus"}
	if _, _, err := designButterworth(cfg, 30000); err == nil {
		t.Error("designButterworth() with unknown type returned nil error")
	}
}

func TestDesignButterworthRejectsZeroOrder(t *testing.T) {
	cfg := FilterConfig{Order: 0, Type: TypeLowpass, LowcutHz: 300}
	if _, _, err := designButterworth(cfg, 30000); err == nil {
		t.Error("designButterworth() with order 0 returned nil error")
	}
}

func TestBiquadStepMatchesDotProductEvaluation(t *testing.T) {
	b, a := designBiquadBandpass(FilterConfig{LowcutHz: 300, HighcutHz: 3000}, 30000)
	direct := newBiquad(b, a)
	viaDot := newBiquad(b, a)

	inputs := []float64{1, -1, 0.5, 0.25, -0.75, 0, 3, -2}
	for _, x := range inputs {
		got := direct.Step(x)
		want := viaDot.stepViaDot(x)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Step(%v) = %v, stepViaDot(%v) = %v, want equal within 1e-9", x, got, x, want)
		}
	}
}

func TestWindowedSincLowpassUnityDCGain(t *testing.T) {
	taps := windowedSincLowpass(31, 500, 30000)
	var sum float64
	for _, c := range taps {
		sum += c
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("sum(taps) = %v, want 1 (unity DC gain)", sum)
	}
}

func TestSpectralInvertIsItsOwnInverseOnUnityGainInput(t *testing.T) {
	lowpass := windowedSincLowpass(15, 500, 30000)
	highpass := spectralInvert(lowpass)
	roundTrip := spectralInvert(highpass)
	for i := range lowpass {
		if math.Abs(roundTrip[i]-lowpass[i]) > 1e-12 {
			t.Errorf("spectralInvert(spectralInvert(taps))[%d] = %v, want %v", i, roundTrip[i], lowpass[i])
		}
	}
}

func TestDesignFIRBandpassIsDifferenceOfLowpasses(t *testing.T) {
	cfg := FilterConfig{Order: 21, Type: TypeBandpass, LowcutHz: 300, HighcutHz: 3000}
	taps, err := designFIR(cfg, 30000)
	if err != nil {
		t.Fatalf("designFIR() error = %v", err)
	}
	if len(taps) != 21 {
		t.Fatalf("len(taps) = %d, want 21", len(taps))
	}
	lo := windowedSincLowpass(21, 300, 30000)
	hi := windowedSincLowpass(21, 3000, 30000)
	for i := range taps {
		if want := hi[i] - lo[i]; math.Abs(taps[i]-want) > 1e-12 {
			t.Errorf("taps[%d] = %v, want highcut lowpass minus lowcut lowpass = %v", i, taps[i], want)
		}
	}
}
