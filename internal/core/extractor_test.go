package core

import "testing"

func fillWindow(w *Window, n int, val func(i int) float64) {
	for i := 0; i < n; i++ {
		w.push(int64(i), []float64{val(i)})
	}
}

func TestDrainWaveformsWholeFrameInsideWindow(t *testing.T) {
	const windowSize, inputSize = 1000, 32
	active := newWindow(windowSize, 1)
	fillWindow(active, windowSize, func(i int) float64 { return float64(i) })

	var q SpikeQueue
	q.Push(SpikeEvent{ChannelID: 0, SampleIndex: 500})

	waveforms := DrainWaveforms(&q, active, nil, windowSize, inputSize)
	if len(waveforms) != 1 {
		t.Fatalf("len(waveforms) = %d, want 1", len(waveforms))
	}
	wf := waveforms[0]
	if len(wf.Samples) != inputSize {
		t.Fatalf("len(Samples) = %d, want %d", len(wf.Samples), inputSize)
	}
	for i, got := range wf.Samples {
		want := float64(500 - inputSize/2 + i)
		if got != want {
			t.Errorf("Samples[%d] = %v, want %v", i, got, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("queue.Len() = %d after drain, want 0", q.Len())
	}
}

func TestDrainWaveformsColdStartDropsFrameBeforeFirstWindow(t *testing.T) {
	const windowSize, inputSize = 1000, 32
	active := newWindow(windowSize, 1)
	fillWindow(active, windowSize, func(i int) float64 { return float64(i) })

	var q SpikeQueue
	q.Push(SpikeEvent{ChannelID: 0, SampleIndex: 5}) // frame_start = 5-16 = -11, no previous window

	waveforms := DrainWaveforms(&q, active, nil, windowSize, inputSize)
	if len(waveforms) != 0 {
		t.Errorf("len(waveforms) = %d, want 0 (cold start must drop)", len(waveforms))
	}
}

func TestDrainWaveformsSpansPreviousAndActiveWindow(t *testing.T) {
	const windowSize, inputSize = 1000, 32
	previous := newWindow(windowSize, 1)
	fillWindow(previous, windowSize, func(i int) float64 { return float64(1000 + i) })
	active := newWindow(windowSize, 1)
	fillWindow(active, windowSize, func(i int) float64 { return float64(2000 + i) })

	var q SpikeQueue
	// sample_index=1005 in window 2 (window_size=1000): pos_in_win=5,
	// frame_start=-11, frame_end=21: 11 samples from the previous window's
	// tail plus 21 from the active window's head.
	q.Push(SpikeEvent{ChannelID: 0, SampleIndex: 1005})

	waveforms := DrainWaveforms(&q, active, previous, windowSize, inputSize)
	if len(waveforms) != 1 {
		t.Fatalf("len(waveforms) = %d, want 1", len(waveforms))
	}
	wf := waveforms[0]
	if len(wf.Samples) != inputSize {
		t.Fatalf("len(Samples) = %d, want %d", len(wf.Samples), inputSize)
	}
	for i := 0; i < 11; i++ {
		want := float64(1000 + 989 + i)
		if wf.Samples[i] != want {
			t.Errorf("tail sample %d = %v, want %v", i, wf.Samples[i], want)
		}
	}
	for i := 0; i < 21; i++ {
		want := float64(2000 + i)
		if wf.Samples[11+i] != want {
			t.Errorf("head sample %d = %v, want %v", i, wf.Samples[11+i], want)
		}
	}
}

func TestDrainWaveformsDefersCrossWindowEventToNextBoundary(t *testing.T) {
	const windowSize, inputSize = 1000, 32
	sealedFirst := newWindow(windowSize, 1)
	fillWindow(sealedFirst, windowSize, func(i int) float64 { return float64(i) })

	var q SpikeQueue
	// sample_index=995: pos_in_win=995, frame_start=979, frame_end=1011 >
	// window_size, so it must defer rather than produce a waveform now.
	q.Push(SpikeEvent{ChannelID: 0, SampleIndex: 995})

	firstDrainActive := newWindow(windowSize, 1) // the window being filled when the event fired
	fillWindow(firstDrainActive, windowSize, func(i int) float64 { return float64(i) })
	waveforms := DrainWaveforms(&q, firstDrainActive, nil, windowSize, inputSize)
	if len(waveforms) != 0 {
		t.Fatalf("len(waveforms) on first drain = %d, want 0 (must defer)", len(waveforms))
	}
	if q.Len() != 1 {
		t.Fatalf("queue.Len() after first drain = %d, want 1 (re-enqueued)", q.Len())
	}

	// Second boundary: the window the event fired in is now `previous`;
	// `active` is whatever has been collected since.
	nextActive := newWindow(windowSize, 1)
	fillWindow(nextActive, windowSize, func(i int) float64 { return float64(3000 + i) })

	waveforms = DrainWaveforms(&q, nextActive, firstDrainActive, windowSize, inputSize)
	if len(waveforms) != 1 {
		t.Fatalf("len(waveforms) on deferred drain = %d, want 1", len(waveforms))
	}
	wf := waveforms[0]
	if len(wf.Samples) != inputSize {
		t.Fatalf("len(Samples) = %d, want %d", len(wf.Samples), inputSize)
	}
	// overflow = frame_end - window_size = 11; tail_len = 32-11 = 21.
	for i := 0; i < 21; i++ {
		want := float64(979 + i)
		if wf.Samples[i] != want {
			t.Errorf("tail sample %d = %v, want %v", i, wf.Samples[i], want)
		}
	}
	for i := 0; i < 11; i++ {
		want := float64(3000 + i)
		if wf.Samples[21+i] != want {
			t.Errorf("head sample %d = %v, want %v", i, wf.Samples[21+i], want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("queue.Len() after deferred drain = %d, want 0", q.Len())
	}
}

func TestDrainWaveformsQueueAfterDrainOnlyHasCrossWindowEvents(t *testing.T) {
	const windowSize, inputSize = 1000, 32
	active := newWindow(windowSize, 1)
	fillWindow(active, windowSize, func(i int) float64 { return float64(i) })

	var q SpikeQueue
	q.Push(SpikeEvent{ChannelID: 0, SampleIndex: 500})  // ordinary, consumed
	q.Push(SpikeEvent{ChannelID: 1, SampleIndex: 995})  // deferred
	DrainWaveforms(&q, active, nil, windowSize, inputSize)

	for _, e := range q.items {
		if !e.IsCrossWindow {
			t.Errorf("event %+v survived drain without IsCrossWindow set", e)
		}
	}
}
