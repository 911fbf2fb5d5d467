package sourcesim

import (
	"log"
	"sync"
	"time"
)

// Replayer drives a Dataset through a Processor-shaped sink at a paced,
// wall-clock-accurate rate, looping at EOF. Its lifecycle mirrors the
// teacher's AnySource Start/Stop pattern: an abortSelf channel closed
// once by Stop, and a WaitGroup the caller can Wait() on.
type Replayer struct {
	dataset        Dataset
	samplingRateHz int
	sink           func(sample []float64) error

	pacer *Pacer

	abortSelf chan struct{}
	closeOnce sync.Once
	running   sync.WaitGroup
}

// sleepUpdateRateHz is how often per second the PD controller recalculates
// its sleep estimate; distinct from the cadence at which that sleep is
// actually applied (see loop's batch).
const sleepUpdateRateHz = 200

// NewReplayer builds a Replayer over dataset, emitting downsampled
// samples to sink at samplingRateHz.
func NewReplayer(dataset Dataset, samplingRateHz int, sink func(sample []float64) error) *Replayer {
	return &Replayer{
		dataset:        dataset,
		samplingRateHz: samplingRateHz,
		sink:           sink,
		pacer:          NewPacer(samplingRateHz, sleepUpdateRateHz),
		abortSelf:      make(chan struct{}),
	}
}

// Run starts the replay loop in a goroutine and returns immediately.
// Call Wait to block until Stop has fully drained the loop.
func (r *Replayer) Run() {
	r.running.Add(1)
	go func() {
		defer r.running.Done()
		r.loop()
	}()
}

// Stop signals the replay loop to exit; a pacing sleep in progress is cut
// short.
func (r *Replayer) Stop() {
	r.closeOnce.Do(func() { close(r.abortSelf) })
}

// Wait blocks until the replay loop has exited.
func (r *Replayer) Wait() {
	r.running.Wait()
}

// loop keeps the PD-update cadence and the sleep-application cadence
// separate, as the original replayer does: the controller recalculates
// its sleep estimate every sampling_rate/sleep_update_rate emitted
// samples, while the estimate is actually slept out on its own, coarser
// cadence (§4.7's two pacing regimes: up to and including 10kHz every
// emitted sample, above it every sampling_rate/1000 samples).
func (r *Replayer) loop() {
	step := r.dataset.NativeRateHz() / r.samplingRateHz
	if step < 1 {
		step = 1
	}

	pdUpdateInterval := r.samplingRateHz / sleepUpdateRateHz
	if pdUpdateInterval < 1 {
		pdUpdateInterval = 1
	}
	sleepBatch := 1
	if r.samplingRateHz > 10000 {
		sleepBatch = r.samplingRateHz / 1000
		if sleepBatch < 1 {
			sleepBatch = 1
		}
	}

	out := make([]float64, r.dataset.NChannels())
	pos := 0
	emitted := 0
	pdUpdateStart := time.Now()

	for {
		select {
		case <-r.abortSelf:
			return
		default:
		}

		if pos >= r.dataset.Len() {
			pos = 0
		}
		r.dataset.SampleAt(pos, out)
		pos += step

		if err := r.sink(out); err != nil {
			log.Printf("sourcesim: sink rejected sample, dropping: %v", err)
		}
		emitted++

		if emitted%pdUpdateInterval == 0 {
			measuredUs := float64(time.Since(pdUpdateStart).Microseconds())
			r.pacer.Update(measuredUs)
			pdUpdateStart = time.Now()
		}

		if emitted%sleepBatch != 0 {
			continue
		}
		select {
		case <-r.abortSelf:
			return
		case <-time.After(r.pacer.Sleep()):
		}
	}
}
