package sourcesim

import (
	"sync"
	"testing"
)

// fakeDataset is a tiny in-memory Dataset for exercising the replay loop
// without file I/O.
type fakeDataset struct {
	nChannels    int
	nativeRateHz int
	rows         [][]float64
}

func (d *fakeDataset) NChannels() int    { return d.nChannels }
func (d *fakeDataset) NativeRateHz() int { return d.nativeRateHz }
func (d *fakeDataset) Len() int          { return len(d.rows) }
func (d *fakeDataset) SampleAt(i int, out []float64) {
	copy(out, d.rows[i])
}

func TestReplayerRunStopWaitIsClean(t *testing.T) {
	ds := &fakeDataset{nChannels: 2, nativeRateHz: 1000, rows: [][]float64{{1, 2}, {3, 4}, {5, 6}}}

	var mu sync.Mutex
	var received int
	first := make(chan struct{})
	var firstOnce sync.Once
	r := NewReplayer(ds, 1000, func(sample []float64) error {
		mu.Lock()
		received++
		mu.Unlock()
		firstOnce.Do(func() { close(first) })
		return nil
	})
	r.Run()
	<-first // the loop checks for Stop before each sample, so let one through first
	r.Stop()
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	if received == 0 {
		t.Error("sink received no samples before Stop took effect")
	}
}

func TestNewReplayerUsesSpecDefaultSleepUpdateRate(t *testing.T) {
	ds := &fakeDataset{nChannels: 1, nativeRateHz: 1000, rows: [][]float64{{0}}}
	r := NewReplayer(ds, 20000, func([]float64) error { return nil })
	if r.pacer.expectedUs != 5000 {
		t.Errorf("pacer.expectedUs = %v, want 5000 (sleep_update_rate=200 default)", r.pacer.expectedUs)
	}
}
