package core

// Waveform is a fixed-length snippet of filtered samples on one channel,
// centered on a detected spike.
type Waveform struct {
	ChannelID int
	Samples   []float64
}

// DrainWaveforms is invoked at every window boundary, before the active
// window is rotated. It drains the entire spike-event queue and, for each
// event, extracts the L-sample frame centered on it (L = inputSize):
//
//  1. whole frame inside the active window: copy directly.
//  2. frame straddles previous->active boundary (frame_start < 0): copy
//     the tail |frame_start| samples of the previous window followed by
//     the leading L+frame_start samples of the active window. If there is
//     no previous window (cold start), the event is dropped.
//  3. frame straddles active->next boundary (frame_end > window_size) and
//     the event hasn't already been deferred once: mark it cross-window
//     and re-enqueue for the next boundary, where it is handled by case 2
//     against the window that is active now but will be "previous" then.
//
// Extracted waveform length is always exactly inputSize; dropped and
// deferred events contribute nothing to the returned slice.
func DrainWaveforms(queue *SpikeQueue, active, previous *Window, windowSize, inputSize int) []Waveform {
	events := queue.PopAll()
	half := inputSize / 2
	out := make([]Waveform, 0, len(events))

	for _, e := range events {
		posInWin := int(e.SampleIndex % int64(windowSize))
		frameStart := posInWin - half
		frameEnd := posInWin + half

		if e.IsCrossWindow {
			// Deferred from the previous boundary: the window it was
			// detected in is now `previous`, and the window that follows
			// it is now `active`. frameStart/frameEnd still describe the
			// original (now stale) window, so use the overflow they
			// imply rather than indexing active/previous by them.
			if previous == nil {
				continue
			}
			overflow := frameEnd - windowSize
			if overflow > active.Len() {
				continue // active window was never filled this far (shutdown drain)
			}
			tailLen := inputSize - overflow
			wf := make([]float64, 0, inputSize)
			for i := previous.Len() - tailLen; i < previous.Len(); i++ {
				wf = append(wf, previous.Sample(i)[e.ChannelID])
			}
			for i := 0; i < overflow; i++ {
				wf = append(wf, active.Sample(i)[e.ChannelID])
			}
			out = append(out, Waveform{ChannelID: e.ChannelID, Samples: wf})
			continue
		}

		switch {
		case frameStart < 0:
			if previous == nil {
				continue // cold start: no previous window to draw from
			}
			wf := make([]float64, 0, inputSize)
			tailLen := -frameStart
			for i := previous.Len() - tailLen; i < previous.Len(); i++ {
				wf = append(wf, previous.Sample(i)[e.ChannelID])
			}
			for i := 0; i < inputSize-tailLen; i++ {
				wf = append(wf, active.Sample(i)[e.ChannelID])
			}
			out = append(out, Waveform{ChannelID: e.ChannelID, Samples: wf})

		case frameEnd > windowSize:
			e.IsCrossWindow = true
			queue.Push(e)

		case frameEnd > active.Len():
			// The active window is only partially filled (a shutdown
			// drain mid-window) and will never receive the rest of this
			// frame: the event is dropped rather than fabricated from
			// unwritten storage.
			continue

		default:
			wf := make([]float64, inputSize)
			for i := 0; i < inputSize; i++ {
				wf[i] = active.Sample(frameStart + i)[e.ChannelID]
			}
			out = append(out, Waveform{ChannelID: e.ChannelID, Samples: wf})
		}
	}
	return out
}
