package core

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Coefficient design happens once at construction time; it is not on the
// per-sample hot path, so clarity is favored over micro-optimization here.

// designFIR builds order-tap windowed-sinc coefficients (Hamming window).
// filter.type selects lowpass (cutoff = lowcut), highpass (cutoff =
// highcut), or bandpass (difference of two lowpass responses).
func designFIR(cfg FilterConfig, fsHz float64) ([]float64, error) {
	n := cfg.Order
	if n < 1 {
		return nil, &ConfigError{Key: "filter.order", Err: fmt.Errorf("must be >= 1, got %d", n)}
	}
	switch cfg.Type {
	case TypeLowpass:
		return windowedSincLowpass(n, cfg.LowcutHz, fsHz), nil
	case TypeHighpass:
		return spectralInvert(windowedSincLowpass(n, cfg.HighcutHz, fsHz)), nil
	case TypeBandpass:
		lo := windowedSincLowpass(n, cfg.LowcutHz, fsHz)
		hi := windowedSincLowpass(n, cfg.HighcutHz, fsHz)
		out := make([]float64, n)
		for i := range out {
			out[i] = hi[i] - lo[i]
		}
		return out, nil
	default:
		return nil, &ConfigError{Key: "filter.type", Err: fmt.Errorf("unrecognized filter type %q", cfg.Type)}
	}
}

// windowedSincLowpass returns n taps of a windowed-sinc lowpass filter with
// the given cutoff (Hz) at the given sample rate (Hz), Hamming-windowed.
func windowedSincLowpass(n int, cutoffHz, fsHz float64) []float64 {
	taps := make([]float64, n)
	fc := cutoffHz / fsHz // normalized cutoff, cycles/sample
	m := float64(n - 1)
	var sum float64
	for i := 0; i < n; i++ {
		x := float64(i) - m/2
		var h float64
		if x == 0 {
			h = 2 * fc
		} else {
			h = math.Sin(2*math.Pi*fc*x) / (math.Pi * x)
		}
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/m) // Hamming
		taps[i] = h * w
		sum += taps[i]
	}
	if sum != 0 {
		for i := range taps {
			taps[i] /= sum // normalize to unity DC gain
		}
	}
	return taps
}

// spectralInvert turns a lowpass tap set into the complementary highpass
// one: negate all taps and add one to the center tap.
func spectralInvert(lowpass []float64) []float64 {
	out := make([]float64, len(lowpass))
	for i, v := range lowpass {
		out[i] = -v
	}
	out[len(out)/2] += 1
	return out
}

// zpk is a continuous- or discrete-time transfer function in zero-pole-gain
// form: H(s) = gain * prod(s-z_i) / prod(s-p_i).
type zpk struct {
	zeros []complex128
	poles []complex128
	gain  float64
}

// butterworthAnalogPoles returns the order poles of the normalized
// (cutoff = 1 rad/s) analog Butterworth lowpass prototype.
func butterworthAnalogPoles(order int) []complex128 {
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * (2*float64(k) + float64(order) + 1) / (2 * float64(order))
		poles[k] = cmplx.Exp(complex(0, theta))
	}
	return poles
}

func prewarp(cutoffHz, fsHz float64) float64 {
	return 2 * fsHz * math.Tan(math.Pi*cutoffHz/fsHz)
}

func scaleAll(xs []complex128, s float64) []complex128 {
	out := make([]complex128, len(xs))
	for i, x := range xs {
		out[i] = x * complex(s, 0)
	}
	return out
}

func complexProdNeg(xs []complex128) complex128 {
	p := complex(1, 0)
	for _, x := range xs {
		p *= -x
	}
	return p
}

// lp2lp frequency-scales an all-pole lowpass prototype to cutoff wc.
func lp2lp(z zpk, wc float64) zpk {
	d := len(z.poles) - len(z.zeros)
	return zpk{
		zeros: scaleAll(z.zeros, wc),
		poles: scaleAll(z.poles, wc),
		gain:  z.gain * math.Pow(wc, float64(d)),
	}
}

// lp2hp transforms a lowpass prototype into a highpass design at cutoff wc.
func lp2hp(z zpk, wc float64) zpk {
	d := len(z.poles) - len(z.zeros)
	newPoles := make([]complex128, len(z.poles))
	for i, p := range z.poles {
		newPoles[i] = complex(wc, 0) / p
	}
	newZeros := make([]complex128, len(z.zeros), len(z.zeros)+d)
	for i, zz := range z.zeros {
		newZeros[i] = complex(wc, 0) / zz
	}
	kFactor := complexProdNeg(z.zeros) / complexProdNeg(z.poles)
	for i := 0; i < d; i++ {
		newZeros = append(newZeros, 0)
	}
	return zpk{zeros: newZeros, poles: newPoles, gain: z.gain * real(kFactor)}
}

// lp2bp transforms a lowpass prototype into a bandpass design with the
// given bandwidth and center frequency wo = sqrt(wlow*whigh).
func lp2bp(z zpk, bw, wo float64) zpk {
	d := len(z.poles) - len(z.zeros)
	polesScaled := scaleAll(z.poles, bw/2)
	zerosScaled := scaleAll(z.zeros, bw/2)

	newPoles := make([]complex128, 0, 2*len(z.poles))
	for _, u := range polesScaled {
		disc := cmplx.Sqrt(u*u - complex(wo*wo, 0))
		newPoles = append(newPoles, u+disc, u-disc)
	}
	newZeros := make([]complex128, 0, 2*len(z.zeros)+d)
	for _, u := range zerosScaled {
		disc := cmplx.Sqrt(u*u - complex(wo*wo, 0))
		newZeros = append(newZeros, u+disc, u-disc)
	}
	for i := 0; i < d; i++ {
		newZeros = append(newZeros, 0)
	}
	return zpk{zeros: newZeros, poles: newPoles, gain: z.gain * math.Pow(bw, float64(d))}
}

// bilinearZPK applies the bilinear transform (with sample rate fsHz) to a
// continuous-time zpk design, producing the discrete-time equivalent.
func bilinearZPK(z zpk, fsHz float64) zpk {
	fs2 := complex(2*fsHz, 0)
	digZeros := make([]complex128, len(z.zeros), len(z.zeros)+len(z.poles))
	for i, zz := range z.zeros {
		digZeros[i] = (fs2 + zz) / (fs2 - zz)
	}
	digPoles := make([]complex128, len(z.poles))
	numProd, denProd := complex(1, 0), complex(1, 0)
	for i, p := range z.poles {
		digPoles[i] = (fs2 + p) / (fs2 - p)
		denProd *= fs2 - p
	}
	for _, zz := range z.zeros {
		numProd *= fs2 - zz
	}
	d := len(z.poles) - len(z.zeros)
	for i := 0; i < d; i++ {
		digZeros = append(digZeros, complex(-1, 0))
	}
	return zpk{zeros: digZeros, poles: digPoles, gain: z.gain * real(numProd/denProd)}
}

// polyFromRoots expands prod(x - r_i) into coefficients, leading term
// first: coeffs[0] is the x^n coefficient (always 1, monic), coeffs[n] is
// the constant term.
func polyFromRoots(roots []complex128) []complex128 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	return coeffs
}

// designButterworth designs an order-N Butterworth IIR filter (lowpass,
// highpass, or bandpass) via the standard analog-prototype + frequency
// transform + bilinear-transform pipeline. Returns numerator (b) and
// denominator (a) coefficients, b[0]/a[0] being the coefficient applied to
// the current sample.
func designButterworth(cfg FilterConfig, fsHz float64) (b, a []float64, err error) {
	order := cfg.Order
	if order < 1 {
		return nil, nil, &ConfigError{Key: "filter.order", Err: fmt.Errorf("must be >= 1, got %d", order)}
	}
	proto := zpk{poles: butterworthAnalogPoles(order), gain: 1}

	var analog zpk
	switch cfg.Type {
	case TypeLowpass:
		analog = lp2lp(proto, prewarp(cfg.LowcutHz, fsHz))
	case TypeHighpass:
		analog = lp2hp(proto, prewarp(cfg.HighcutHz, fsHz))
	case TypeBandpass:
		wlow := prewarp(cfg.LowcutHz, fsHz)
		whigh := prewarp(cfg.HighcutHz, fsHz)
		analog = lp2bp(proto, whigh-wlow, math.Sqrt(wlow*whigh))
	default:
		return nil, nil, &ConfigError{Key: "filter.type", Err: fmt.Errorf("unrecognized filter type %q", cfg.Type)}
	}

	digital := bilinearZPK(analog, fsHz)
	polyNum := polyFromRoots(digital.zeros)
	polyDen := polyFromRoots(digital.poles)

	b = make([]float64, len(polyNum))
	for i, c := range polyNum {
		b[i] = real(c) * digital.gain
	}
	a = make([]float64, len(polyDen))
	for i, c := range polyDen {
		a[i] = real(c)
	}
	if len(a) == 0 || a[0] == 0 {
		return nil, nil, &NumericError{Msg: "IIR denominator a[0] == 0"}
	}
	return b, a, nil
}

// designBiquadBandpass is the specialized second-order hot path: a
// constant-0-dB-peak-gain RBJ bandpass biquad centered on the mean of lowcut
// and highcut, with a fixed Butterworth-like Q of 0.707.
func designBiquadBandpass(cfg FilterConfig, fsHz float64) (b, a []float64) {
	const q = 0.707
	f0 := (cfg.LowcutHz + cfg.HighcutHz) / 2
	w0 := 2 * math.Pi * f0 / fsHz
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b = []float64{alpha, 0, -alpha}
	a = []float64{1 + alpha, -2 * cosw0, 1 - alpha}
	return b, a
}
