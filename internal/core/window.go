package core

// Window is a fixed-capacity, pre-sized block of samples: up to size
// sample-index/channel-vector pairs, insertion order equal to acquisition
// order. Its backing storage is allocated once and reused across rotations
// so that sealing a window never allocates.
type Window struct {
	firstIndex int64
	size       int
	nChannels  int
	samples    [][]float64
	count      int
}

func newWindow(size, nChannels int) *Window {
	samples := make([][]float64, size)
	for i := range samples {
		samples[i] = make([]float64, nChannels)
	}
	return &Window{size: size, nChannels: nChannels, samples: samples}
}

// push appends a channel vector at sampleIndex. Caller guarantees
// sampleIndex is contiguous with whatever was pushed before.
func (w *Window) push(sampleIndex int64, y []float64) {
	if w.count == 0 {
		w.firstIndex = sampleIndex
	}
	copy(w.samples[w.count], y)
	w.count++
}

func (w *Window) full() bool { return w.count == w.size }

func (w *Window) reset() { w.count = 0 }

// FirstIndex is the sample_index of the oldest entry in the window.
func (w *Window) FirstIndex() int64 { return w.firstIndex }

// Len is the number of entries currently held.
func (w *Window) Len() int { return w.count }

// Sample returns the channel vector at local position pos, counted from
// the start of the window. The returned slice is owned by the window and
// must not be retained past the next rotation.
func (w *Window) Sample(pos int) []float64 { return w.samples[pos] }

// WindowBuffer holds the active (under-construction) window plus a
// fixed-capacity ring of sealed windows, oldest at head. Sealing and
// eviction happen only through Rotate, at a window boundary.
type WindowBuffer struct {
	windowSize int
	capacity   int
	nChannels  int

	active *Window
	ring   []*Window
	head   int
	count  int
}

// NewWindowBuffer builds a buffer with the given window size, eviction
// capacity, and channel count. All windows (active plus the full ring) are
// allocated up front.
func NewWindowBuffer(windowSize, capacity, nChannels int) *WindowBuffer {
	ring := make([]*Window, capacity)
	for i := range ring {
		ring[i] = newWindow(windowSize, nChannels)
	}
	return &WindowBuffer{
		windowSize: windowSize,
		capacity:   capacity,
		nChannels:  nChannels,
		active:     newWindow(windowSize, nChannels),
		ring:       ring,
	}
}

// Push appends a filtered channel vector to the active window.
func (b *WindowBuffer) Push(sampleIndex int64, y []float64) {
	b.active.push(sampleIndex, y)
}

// ActiveFull reports whether the active window has reached window_size
// entries and is due to be rotated.
func (b *WindowBuffer) ActiveFull() bool { return b.active.full() }

// Active returns the window currently being filled.
func (b *WindowBuffer) Active() *Window { return b.active }

// PreviousWindow returns the most recently sealed window, or nil if none
// has been sealed yet (cold start).
func (b *WindowBuffer) PreviousWindow() *Window {
	if b.count == 0 {
		return nil
	}
	idx := (b.head + b.count - 1) % b.capacity
	return b.ring[idx]
}

// Rotate seals the active window into the ring, evicting the oldest
// window first if the ring is already at capacity, and starts a fresh
// active window. The storage of the ring slot the sealed window takes (the
// evicted window, or a still-unused pre-allocated one) is reused for the
// new active window, so Rotate never allocates.
func (b *WindowBuffer) Rotate() {
	sealed := b.active

	var next *Window
	if b.count == b.capacity {
		next = b.ring[b.head]
		b.ring[b.head] = sealed
		b.head = (b.head + 1) % b.capacity
	} else {
		idx := (b.head + b.count) % b.capacity
		next = b.ring[idx]
		b.ring[idx] = sealed
		b.count++
	}
	next.reset()
	b.active = next
}
