package core

import (
	"log"
	"sync/atomic"
	"time"
)

// Recorder is the binary chunked recording-file writer contract: an
// external collaborator (package xdf ships a concrete implementation).
// Headers/footers are written exactly once per recording; WriteBoundaryChunk
// immediately precedes the footer.
type Recorder interface {
	WriteStreamHeader(streamID, headerXML string) error
	WriteDataChunk(streamID string, timestamps []float64, samples [][]float64, channelCount int) error
	WriteBoundaryChunk() error
	WriteStreamFooter(streamID, footerXML string) error
}

// TriggerConfig is the mutable part of the Spike Detector's configuration,
// settable at runtime through the control plane.
type TriggerConfig struct {
	K          float64
	Refractory int64
}

// ProcessorConfig carries everything Processor needs to build its fixed,
// pre-sized state once at startup.
type ProcessorConfig struct {
	NChannels      int
	SamplingRateHz int
	WindowSize     int
	BufferSize     int
	InputSize      int
	Filter         FilterConfig
	Trigger        TriggerConfig

	Classifier  Classifier
	FilteredOut Outlet
	SpikeOut    Outlet

	// ChannelPosition, if set, supplies the electrode row/column for each
	// channel index from a loaded channel layout. Left nil when no layout
	// was requested.
	ChannelPosition func(channel int) (row, col int)
}

// Processor is the Pipeline Orchestrator: the single-threaded loop that
// sequences filtering, statistics, detection, windowing, extraction,
// classification, and publication for one input stream. All mutable
// state is owned here; nothing escapes to another goroutine except
// through the atomically-published Status and the control channel.
type Processor struct {
	nChannels      int
	samplingRateHz int
	windowSize     int
	inputSize      int

	channels  []PerChannelState
	detector  *SpikeDetector
	queue     SpikeQueue
	windowBuf *WindowBuffer

	classifier  Classifier
	filteredOut Outlet
	spikeOut    Outlet

	recorder              Recorder
	recording             bool
	recordStreamID        string
	recordDurationSamples int64
	recordFooterXML       func(durationSeconds float64, sampleCount int64) string
	hasLayout             bool

	sampleIndex  int64
	shutdownDone bool

	filtered    []float64 // scratch, length nChannels
	interleaved []float64 // scratch, length 2*nChannels
	spikeMsg    []float64 // scratch, length inputSize+1

	lastSecondStart time.Time
	lastClassifyLog time.Time
	controlCh       chan TriggerConfig
	recordCh        chan recordCommand

	status atomic.Value
}

// Status is the snapshot the control plane reads; it is refreshed once
// per heartbeat (never from inside the per-sample hot path beyond a
// single atomic store), so staleness is bounded by one second.
type Status struct {
	Running        bool
	SamplingRateHz int
	NChannels      int
	SampleIndex    int64
	Recording      bool
}

type recordCommand struct {
	action          string // "start" or "stop"
	recorder        Recorder
	streamID        string
	durationSamples int64
	footerXML       func(durationSeconds float64, sampleCount int64) string
}

// NewProcessor builds a Processor with all state pre-sized. err is a
// ConfigError or NumericError from filter construction.
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	channels, err := NewChannelStates(cfg.NChannels, cfg.Filter, float64(cfg.SamplingRateHz), cfg.ChannelPosition)
	if err != nil {
		return nil, err
	}
	p := &Processor{
		nChannels:      cfg.NChannels,
		samplingRateHz: cfg.SamplingRateHz,
		windowSize:     cfg.WindowSize,
		inputSize:      cfg.InputSize,
		channels:       channels,
		windowBuf:      NewWindowBuffer(cfg.WindowSize, cfg.BufferSize, cfg.NChannels),
		classifier:     cfg.Classifier,
		filteredOut:    cfg.FilteredOut,
		spikeOut:       cfg.SpikeOut,
		filtered:       make([]float64, cfg.NChannels),
		interleaved:    make([]float64, 2*cfg.NChannels),
		spikeMsg:       make([]float64, cfg.InputSize+1),
		controlCh:      make(chan TriggerConfig, 1),
		recordCh:       make(chan recordCommand, 1),
	}
	p.detector = NewSpikeDetector(cfg.SamplingRateHz, cfg.Trigger.K, cfg.Trigger.Refractory, &p.queue)
	p.hasLayout = cfg.ChannelPosition != nil
	p.lastSecondStart = time.Now()
	p.status.Store(Status{Running: true, SamplingRateHz: cfg.SamplingRateHz, NChannels: cfg.NChannels})
	return p, nil
}

// Status returns the most recently published status snapshot. Safe to
// call from any goroutine.
func (p *Processor) Status() Status {
	return p.status.Load().(Status)
}

// ConfigureTrigger requests a trigger-config update; it is applied at the
// very start of the next processed sample, never mid-sample. Safe to call
// from another goroutine (the control plane).
func (p *Processor) ConfigureTrigger(cfg TriggerConfig) {
	select {
	case p.controlCh <- cfg:
	default:
		// a pending update hasn't been applied yet; replace it
		select {
		case <-p.controlCh:
		default:
		}
		p.controlCh <- cfg
	}
}

// RequestRecordingStart arms the recorder for the given stream id and
// duration; the caller must already have written the stream header.
// footerXML builds the stream-footer XML from the final duration and
// sample count at recording end (package xdf's BuildFooterXML, supplied
// by the caller to avoid core importing the recording-format package).
// Applied at the start of the next processed sample, like
// ConfigureTrigger, so it never touches recording state from outside
// the sample loop's goroutine.
func (p *Processor) RequestRecordingStart(recorder Recorder, streamID string, durationSamples int64, footerXML func(durationSeconds float64, sampleCount int64) string) {
	p.sendRecordCmd(recordCommand{action: "start", recorder: recorder, streamID: streamID, durationSamples: durationSamples, footerXML: footerXML})
}

// RequestRecordingStop disarms recording early, writing the boundary
// chunk and footer as if the configured duration had elapsed.
func (p *Processor) RequestRecordingStop() {
	p.sendRecordCmd(recordCommand{action: "stop"})
}

func (p *Processor) sendRecordCmd(cmd recordCommand) {
	select {
	case p.recordCh <- cmd:
	default:
		select {
		case <-p.recordCh:
		default:
		}
		p.recordCh <- cmd
	}
}

// ProcessSample runs the six-step steady-state loop for one pulled raw
// sample. It allocates only at a window boundary, on a classifier error,
// at the once-per-second heartbeat, and on every sample written to an
// active recording (the per-sample timestamp and row slices handed to the
// recorder are built fresh each time).
func (p *Processor) ProcessSample(raw []float64) error {
	select {
	case cfg := <-p.controlCh:
		p.detector.SetThreshold(cfg.K)
		p.detector.SetRefractory(cfg.Refractory)
	default:
	}

	select {
	case cmd := <-p.recordCh:
		switch cmd.action {
		case "start":
			p.recorder = cmd.recorder
			p.recordStreamID = cmd.streamID
			p.recordDurationSamples = cmd.durationSamples
			p.recordFooterXML = cmd.footerXML
			p.recording = true
		case "stop":
			if p.recording {
				p.recording = false
				if err := p.recorder.WriteBoundaryChunk(); err != nil {
					log.Printf("recorder boundary chunk failed: %v", err)
				}
				if err := p.recorder.WriteStreamFooter(p.recordStreamID, p.buildFooterXML(p.sampleIndex)); err != nil {
					log.Printf("recorder footer failed: %v", err)
				}
			}
		}
	default:
	}

	p.sampleIndex++
	idx := p.sampleIndex

	// Step 1: filter, update stats, detect, per channel.
	for ch := 0; ch < p.nChannels; ch++ {
		state := &p.channels[ch]
		y := state.Filter.Step(raw[ch])
		p.filtered[ch] = y
		state.Stats.Update(y)
		p.detector.Observe(ch, idx, y, state.Stats.StdDev(), &state.LastSpikeSample)
	}

	// Step 2: append to the active window.
	p.windowBuf.Push(idx, p.filtered)

	// Step 3: at a window boundary, drain and classify before rotating.
	if idx > 0 && idx%int64(p.windowSize) == 0 {
		waveforms := DrainWaveforms(&p.queue, p.windowBuf.Active(), p.windowBuf.PreviousWindow(), p.windowSize, p.inputSize)
		for _, wf := range waveforms {
			if _, err := p.classifier.Classify(wf.Samples); err != nil {
				p.logClassifierError(err)
				continue
			}
			p.spikeMsg[0] = float64(wf.ChannelID)
			copy(p.spikeMsg[1:], wf.Samples)
			if err := p.spikeOut.PushSample(p.spikeMsg); err != nil {
				log.Printf("spike stream push failed: %v", err)
			}
			if p.hasLayout {
				state := &p.channels[wf.ChannelID]
				log.Printf("spike on channel %d at electrode (row=%d, col=%d)", wf.ChannelID, state.Row, state.Col)
			}
		}
		p.windowBuf.Rotate()
	}

	// Step 4: publish interleaved (raw, filtered).
	for ch := 0; ch < p.nChannels; ch++ {
		p.interleaved[2*ch] = raw[ch]
		p.interleaved[2*ch+1] = p.filtered[ch]
	}
	if err := p.filteredOut.PushSample(p.interleaved); err != nil {
		log.Printf("filtered stream push failed: %v", err)
	}

	// Step 5: recording.
	if p.recording && idx <= p.recordDurationSamples {
		ts := float64(idx) / float64(p.samplingRateHz)
		if err := p.recorder.WriteDataChunk(p.recordStreamID, []float64{ts}, [][]float64{raw}, p.nChannels); err != nil {
			log.Printf("recorder write failed, disabling recording: %v", err)
			p.recording = false
		} else if idx == p.recordDurationSamples {
			if err := p.recorder.WriteBoundaryChunk(); err != nil {
				log.Printf("recorder boundary chunk failed: %v", err)
			}
			if err := p.recorder.WriteStreamFooter(p.recordStreamID, p.buildFooterXML(idx)); err != nil {
				log.Printf("recorder footer failed: %v", err)
			}
			p.recording = false
		}
	}

	// Step 6: heartbeat log and status publish.
	if idx%int64(p.samplingRateHz) == 0 {
		elapsed := time.Since(p.lastSecondStart)
		log.Printf("%d seconds passed, last second took %s", idx/int64(p.samplingRateHz), elapsed)
		p.lastSecondStart = time.Now()
		p.status.Store(Status{
			Running:        true,
			SamplingRateHz: p.samplingRateHz,
			NChannels:      p.nChannels,
			SampleIndex:    idx,
			Recording:      p.recording,
		})
	}

	return nil
}

// buildFooterXML renders the stream footer for a recording ending at
// sampleCount, using the builder supplied to RequestRecordingStart. A nil
// builder (recording armed without one, which RequestRecordingStart never
// does) falls back to an empty footer rather than panicking.
func (p *Processor) buildFooterXML(sampleCount int64) string {
	if p.recordFooterXML == nil {
		return ""
	}
	durationSeconds := float64(sampleCount) / float64(p.samplingRateHz)
	return p.recordFooterXML(durationSeconds, sampleCount)
}

// Shutdown performs the clean-shutdown hook: it drains whatever waveforms
// the active, still-partial window can support through the extractor and
// classifier, finalizes the recorder if a recording is open, and marks
// the processor as no longer running. Idempotent. It touches the same
// state as ProcessSample without locking, so it runs on the goroutine that
// owns the sample loop, after that loop has stopped.
func (p *Processor) Shutdown() error {
	if p.shutdownDone {
		return nil
	}
	p.shutdownDone = true

	active := p.windowBuf.Active()
	if active.Len() > 0 {
		waveforms := DrainWaveforms(&p.queue, active, p.windowBuf.PreviousWindow(), p.windowSize, p.inputSize)
		for _, wf := range waveforms {
			if _, err := p.classifier.Classify(wf.Samples); err != nil {
				p.logClassifierError(err)
				continue
			}
			p.spikeMsg[0] = float64(wf.ChannelID)
			copy(p.spikeMsg[1:], wf.Samples)
			if err := p.spikeOut.PushSample(p.spikeMsg); err != nil {
				log.Printf("spike stream push failed during shutdown: %v", err)
			}
		}
	}

	if p.recording {
		p.recording = false
		if err := p.recorder.WriteBoundaryChunk(); err != nil {
			log.Printf("recorder boundary chunk failed during shutdown: %v", err)
		}
		if err := p.recorder.WriteStreamFooter(p.recordStreamID, p.buildFooterXML(p.sampleIndex)); err != nil {
			log.Printf("recorder footer failed during shutdown: %v", err)
		}
	}

	p.status.Store(Status{
		Running:        false,
		SamplingRateHz: p.samplingRateHz,
		NChannels:      p.nChannels,
		SampleIndex:    p.sampleIndex,
		Recording:      false,
	})
	return nil
}

func (p *Processor) logClassifierError(err error) {
	if time.Since(p.lastClassifyLog) < time.Second {
		return
	}
	p.lastClassifyLog = time.Now()
	log.Printf("classifier error, spike skipped: %v", err)
}
