package sourcesim

import "time"

// Pacer is the PD controller that keeps the replayer's measured emission
// interval close to its wall-clock setpoint. Gains and the initial
// estimate are the literal values from the design.
type Pacer struct {
	kp, kd     float64
	expectedUs float64
	sleepUs    float64
	prevError  float64
}

// NewPacer builds a pacer for the given sampling rate and
// sleep_update_rate (measurement points per second).
func NewPacer(samplingRateHz, sleepUpdateRate int) *Pacer {
	return &Pacer{
		kp:         0.02,
		kd:         0.005,
		expectedUs: 1_000_000.0 / float64(sleepUpdateRate),
		sleepUs:    1.0 / float64(samplingRateHz) * 1e6 * 0.85,
	}
}

// Update folds one measured interval (microseconds) into the controller.
func (p *Pacer) Update(measuredUs float64) {
	errVal := p.expectedUs - measuredUs
	derivative := (errVal - p.prevError) / p.expectedUs
	p.sleepUs += p.kp*errVal + p.kd*derivative
	if p.sleepUs < 0 {
		p.sleepUs = 0
	}
	p.prevError = errVal
}

// Sleep is the current per-emission sleep duration.
func (p *Pacer) Sleep() time.Duration {
	return time.Duration(p.sleepUs * float64(time.Microsecond))
}
