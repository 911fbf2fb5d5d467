package core

// PerChannelState bundles the per-channel state owned exclusively by the
// orchestrator's single processing loop: filter state, running
// statistics, and the refractory bookkeeping index. Nothing outside the
// loop mutates it.
type PerChannelState struct {
	Filter          Filter
	Stats           RunningStats
	LastSpikeSample int64

	// Row/Col place this channel on the electrode grid when a channel
	// layout was loaded; both are 0 for an unmapped channel.
	Row, Col int
}

// NewChannelStates builds one PerChannelState per channel, each with its
// own filter instance built from cfg. positionOf, if non-nil, supplies the
// electrode row/column for each channel index (the channel-layout loader
// lives in a separate package to avoid an import cycle with core).
func NewChannelStates(n int, cfg FilterConfig, samplingRateHz float64, positionOf func(channel int) (row, col int)) ([]PerChannelState, error) {
	states := make([]PerChannelState, n)
	for i := range states {
		f, err := NewFilter(cfg, samplingRateHz)
		if err != nil {
			return nil, err
		}
		states[i] = PerChannelState{Filter: f, LastSpikeSample: sentinel}
		if positionOf != nil {
			states[i].Row, states[i].Col = positionOf(i)
		}
	}
	return states, nil
}
