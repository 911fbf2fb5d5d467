package core

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Filter is the capability every per-channel filter realizes: a stateful,
// strictly causal single-sample step function. FIR and IIR variants (and
// the specialized Biquad hot path) all satisfy it; the orchestrator never
// type-switches on the concrete filter, only on the tagged choice made once
// at construction time (see NewFilter).
type Filter interface {
	Step(x float64) float64
}

// FilterClass selects the filter family, as configured by filter.class.
type FilterClass string

// FilterType selects the band shape, as configured by filter.type.
type FilterType string

const (
	ClassFIR FilterClass = "fir"
	ClassIIR FilterClass = "iir"

	TypeBandpass FilterType = "bandpass"
	TypeLowpass  FilterType = "lowpass"
	TypeHighpass FilterType = "highpass"
)

// FilterConfig mirrors the filter.* fields of the configuration document.
type FilterConfig struct {
	Class     FilterClass
	Order     int
	LowcutHz  float64
	HighcutHz float64
	Type      FilterType
}

// NewFilter builds one filter instance per the config. Coefficient design
// happens once here; it is not on the hot path and may use whatever numeric
// routine is convenient. The returned Filter's Step method never allocates.
func NewFilter(cfg FilterConfig, samplingRateHz float64) (Filter, error) {
	switch cfg.Class {
	case ClassFIR:
		taps, err := designFIR(cfg, samplingRateHz)
		if err != nil {
			return nil, err
		}
		return newFIRFilter(taps), nil
	case ClassIIR:
		if cfg.Order == 2 && cfg.Type == TypeBandpass {
			b, a := designBiquadBandpass(cfg, samplingRateHz)
			return newBiquad(b, a), nil
		}
		b, a, err := designButterworth(cfg, samplingRateHz)
		if err != nil {
			return nil, err
		}
		if a[0] == 0 {
			return nil, &NumericError{Msg: "IIR denominator a[0] == 0"}
		}
		if cfg.Order == 2 {
			return newBiquad(b, a), nil
		}
		return newIIRFilter(b, a), nil
	default:
		return nil, &ConfigError{Key: "filter.class", Err: fmt.Errorf("unrecognized filter class %q", cfg.Class)}
	}
}

// FIRFilter is a finite-impulse-response filter: order taps, a single ring
// of past inputs, output is the dot product of coefficients with the ring.
type FIRFilter struct {
	coefs []float64
	ring  []float64
	pos   int
}

func newFIRFilter(coefs []float64) *FIRFilter {
	return &FIRFilter{
		coefs: coefs,
		ring:  make([]float64, len(coefs)),
	}
}

// Step pushes x into the ring and returns the new filtered output. It never
// allocates: the ring is pre-sized at construction and slicing it for the
// two-segment dot product below does not allocate.
func (f *FIRFilter) Step(x float64) float64 {
	n := len(f.ring)
	f.pos++
	if f.pos == n {
		f.pos = 0
	}
	f.ring[f.pos] = x

	// The ring holds, oldest-first starting at pos+1, the last n inputs.
	// coefs[0] pairs with the newest sample (ring[pos]), coefs[i] with the
	// sample i steps older. Split the circular window into two contiguous
	// segments so each half is a plain reversed dot product without
	// allocating.
	newHalf := f.pos + 1 // ring[0:newHalf] holds the newest newHalf samples, reversed in time
	oldHalf := n - newHalf
	var out float64
	if newHalf > 0 {
		out += dotReversed(f.coefs[:newHalf], f.ring[:newHalf])
	}
	if oldHalf > 0 {
		out += dotReversed(f.coefs[newHalf:], f.ring[newHalf:])
	}
	return out
}

// dotReversed computes sum(coefs[i] * ring[len(ring)-1-i]) without
// allocating; ring[len-1] is the newest sample in that segment.
func dotReversed(coefs, ring []float64) float64 {
	n := len(ring)
	if n == 0 {
		return 0
	}
	var out float64
	for i := 0; i < n; i++ {
		out += coefs[i] * ring[n-1-i]
	}
	return out
}

// Biquad is the specialized second-order IIR section: the default hot path
// for the common bandpass case, using direct-form-II-transposed state
// (two scalars) instead of a general ring.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64 // normalized so a0 == 1
	z1, z2     float64
	bcoef      [3]float64
	xbuf       [3]float64
	ybuf       [2]float64
}

func newBiquad(b, a []float64) *Biquad {
	bq := &Biquad{}
	a0 := a[0]
	bq.b0, bq.b1, bq.b2 = b[0]/a0, b[1]/a0, b[2]/a0
	bq.a1, bq.a2 = a[1]/a0, a[2]/a0
	bq.bcoef = [3]float64{bq.b0, bq.b1, bq.b2}
	return bq
}

// Step uses direct form II transposed:
//
//	y[n]  = b0*x[n] + z1
//	z1'   = b1*x[n] - a1*y[n] + z2
//	z2'   = b2*x[n] - a2*y[n]
func (bq *Biquad) Step(x float64) float64 {
	y := bq.b0*x + bq.z1
	bq.z1 = bq.b1*x - bq.a1*y + bq.z2
	bq.z2 = bq.b2*x - bq.a2*y
	return y
}

// stepViaDot is an alternate, gonum-backed evaluation path used by tests to
// cross-check Step's direct-form arithmetic: direct form I, an explicit dot
// product of the numerator with the raw input history minus the feedback
// terms on the past outputs.
func (bq *Biquad) stepViaDot(x float64) float64 {
	bq.xbuf[2] = bq.xbuf[1]
	bq.xbuf[1] = bq.xbuf[0]
	bq.xbuf[0] = x
	y := floats.Dot(bq.bcoef[:], bq.xbuf[:]) - bq.a1*bq.ybuf[0] - bq.a2*bq.ybuf[1]
	bq.ybuf[1] = bq.ybuf[0]
	bq.ybuf[0] = y
	return y
}

// IIRFilter is the general biquad-cascade-as-direct-form IIR filter for
// orders other than 2: two rings (past inputs, past outputs), output is
// (sum b[i]*x[n-i] - sum_{i>=1} a[i]*y[n-i]) / a[0].
type IIRFilter struct {
	b, a        []float64
	taps        []float64 // ring of past inputs
	outTaps     []float64 // ring of past outputs
	inputIndex  int
	outputIndex int
}

func newIIRFilter(b, a []float64) *IIRFilter {
	return &IIRFilter{
		b:       b,
		a:       a,
		taps:    make([]float64, len(b)),
		outTaps: make([]float64, len(a)),
	}
}

func (f *IIRFilter) Step(x float64) float64 {
	f.taps[f.inputIndex] = x

	var output float64
	n := len(f.taps)
	for i := 0; i < len(f.b); i++ {
		idx := (f.inputIndex - i + n) % n
		output += f.b[i] * f.taps[idx]
	}

	m := len(f.outTaps)
	for i := 1; i < len(f.a); i++ {
		idx := (f.outputIndex - i + m) % m
		output -= f.a[i] * f.outTaps[idx]
	}
	output /= f.a[0]

	f.outTaps[f.outputIndex] = output
	f.inputIndex = (f.inputIndex + 1) % n
	f.outputIndex = (f.outputIndex + 1) % m
	return output
}
