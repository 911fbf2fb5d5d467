package core

// SpikeEvent is created by the detector and consumed by the extractor.
// IsCrossWindow is false at creation; the extractor sets it when a frame
// straddles the active->next window boundary and must be retried at the
// following boundary.
type SpikeEvent struct {
	ChannelID     int
	SampleIndex   int64
	IsCrossWindow bool
}

// SpikeQueue is a FIFO of pending spike events. Push is the only
// detection-time operation and must not allocate once the backing slice
// has grown to its working size; PopAll drains the whole queue at a
// window boundary, leaving room for events re-enqueued mid-drain to land
// in a fresh backing slice for the next boundary.
type SpikeQueue struct {
	items []SpikeEvent
}

// Push enqueues an event at the tail.
func (q *SpikeQueue) Push(e SpikeEvent) {
	q.items = append(q.items, e)
}

// Len reports the number of events currently queued.
func (q *SpikeQueue) Len() int { return len(q.items) }

// PopAll drains and returns every event currently queued, oldest first,
// and resets the queue to empty. Events pushed while processing the
// returned slice (re-enqueue of a still-deferred event) land in the now-
// empty queue and are picked up by the next PopAll.
func (q *SpikeQueue) PopAll() []SpikeEvent {
	out := q.items
	q.items = nil // fresh backing array: re-enqueues below must not alias out
	return out
}
