package core

// StreamInfo describes a resolved stream: its name, sample format,
// channel count, nominal rate, and the id of the process that owns it.
type StreamInfo struct {
	Name         string
	Type         string
	ChannelCount int
	RateHz       float64
	Format       string
	SourceID     string
}

// Inlet is a subscribed, pull-based input stream. PullSample blocks until
// a sample is available (or the stream ends/errors), copying the next
// sample's channel vector into out and returning true, or returning false
// on a clean end-of-stream. A pull failure is reported via err and is
// always fatal, per the streaming-bus contract.
type Inlet interface {
	StreamInfo() StreamInfo
	PullSample(out []float64) (ok bool, err error)
	Close() error
}

// Outlet is a published, push-based output stream. PushSample is
// best-effort and non-blocking: if the bus would need to block to accept
// it, the implementation must report that (via the returned error) rather
// than silently dropping the sample or applying back-pressure upstream.
type Outlet interface {
	StreamInfo() StreamInfo
	PushSample(vec []float64) error
	Close() error
}

// Bus resolves named streams to Inlets/Outlets. Implementations are
// external collaborators (package bus ships a concrete ZeroMQ-backed
// one); core and its consumers depend only on this interface.
type Bus interface {
	Resolve(name string) (StreamInfo, error)
	Subscribe(name string) (Inlet, error)
	Publish(info StreamInfo) (Outlet, error)
}
