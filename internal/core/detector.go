package core

// sentinel is far enough in the past that no real sample index will ever
// fall within the refractory interval of it, without risking overflow in
// the subtraction below. PerChannelState.LastSpikeSample starts here.
const sentinel = int64(-1) << 40

// SpikeDetector is a per-sample, negative-going threshold comparator with
// per-channel refractory gating. It holds no per-channel state itself —
// that lives in each channel's PerChannelState, owned by the orchestrator
// — so it never fails and is trivially reentrant across channels.
type SpikeDetector struct {
	k             float64
	refractory    int64
	warmupSamples int64
	queue         *SpikeQueue
}

// NewSpikeDetector builds a detector sampled at samplingRateHz, with
// firing threshold -k*stddev and the given minimum refractory gap (in
// samples) between accepted events on the same channel. Detected events
// are pushed onto queue.
func NewSpikeDetector(samplingRateHz int, k float64, refractory int64, queue *SpikeQueue) *SpikeDetector {
	return &SpikeDetector{
		k:             k,
		refractory:    refractory,
		warmupSamples: 5 * int64(samplingRateHz),
		queue:         queue,
	}
}

// SetThreshold updates k. Called by the processing loop at the start of a
// sample when a control-plane update is pending.
func (d *SpikeDetector) SetThreshold(k float64) { d.k = k }

// SetRefractory updates the refractory gap. Called by the processing loop
// at the start of a sample when a control-plane update is pending.
func (d *SpikeDetector) SetRefractory(n int64) { d.refractory = n }

// Observe runs the detector for one filtered sample y on the given
// channel at sampleIndex, using that channel's current running stddev and
// last accepted spike index (updated in place on a firing).
func (d *SpikeDetector) Observe(channel int, sampleIndex int64, y, stddev float64, lastSpikeSample *int64) {
	if sampleIndex <= d.warmupSamples {
		return
	}
	if stddev == 0 {
		return
	}
	threshold := -d.k * stddev
	if y >= threshold {
		return
	}
	if sampleIndex-*lastSpikeSample <= d.refractory {
		return
	}
	*lastSpikeSample = sampleIndex
	d.queue.Push(SpikeEvent{ChannelID: channel, SampleIndex: sampleIndex})
}
