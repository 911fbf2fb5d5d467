package core

import "testing"

func TestSpikeDetectorFiresBelowNegativeThreshold(t *testing.T) {
	var q SpikeQueue
	d := NewSpikeDetector(1000, 5, 10, &q)
	var last int64 = sentinel

	idx := d.warmupSamples + 100
	d.Observe(0, idx, -10, 1.0, &last) // y < -5*stddev
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", q.Len())
	}
	if last != idx {
		t.Errorf("lastSpikeSample = %d, want %d", last, idx)
	}
}

func TestSpikeDetectorIgnoresWithinWarmup(t *testing.T) {
	var q SpikeQueue
	d := NewSpikeDetector(1000, 5, 10, &q)
	var last int64 = sentinel
	d.Observe(0, d.warmupSamples, -100, 1.0, &last)
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0 during warmup", q.Len())
	}
}

func TestSpikeDetectorRefractoryEnforced(t *testing.T) {
	var q SpikeQueue
	d := NewSpikeDetector(1000, 5, 10, &q)
	var last int64 = sentinel

	base := d.warmupSamples + 100
	d.Observe(0, base, -10, 1.0, &last)
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1 after first spike", q.Len())
	}

	// Within refractory: sample_index - last <= 10 must not fire.
	d.Observe(0, base+10, -10, 1.0, &last)
	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1 (refractory should have suppressed second event)", q.Len())
	}

	// Past refractory: strictly greater than 10 fires again.
	d.Observe(0, base+11, -10, 1.0, &last)
	if q.Len() != 2 {
		t.Errorf("queue length = %d, want 2 after refractory elapsed", q.Len())
	}
}

func TestSpikeDetectorZeroStdDevNeverFires(t *testing.T) {
	var q SpikeQueue
	d := NewSpikeDetector(1000, 5, 10, &q)
	var last int64 = sentinel
	d.Observe(0, d.warmupSamples+1, -1000, 0, &last)
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0 when stddev == 0", q.Len())
	}
}

func TestSpikeDetectorSetters(t *testing.T) {
	var q SpikeQueue
	d := NewSpikeDetector(1000, 5, 10, &q)
	d.SetThreshold(3)
	d.SetRefractory(20)
	if d.k != 3 {
		t.Errorf("k = %v, want 3", d.k)
	}
	if d.refractory != 20 {
		t.Errorf("refractory = %v, want 20", d.refractory)
	}
}
