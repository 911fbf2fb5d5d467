// Package control is the JSON-RPC control server: one per binary,
// generalized from the teacher's SourceControl service (rpc_server.go)
// from dastard's detector-specific verbs to this project's
// filter/detector/recorder verbs.
package control

import (
	"fmt"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/es-ude/denspp.online/internal/core"
	"github.com/es-ude/denspp.online/internal/xdf"
)

// WriteControlConfig requests start/stop of data writing. Path and
// FileName are not used: a "Start" request records through the recorder
// the Service was built with.
type WriteControlConfig struct {
	Request         string // "Start" or "Stop"
	Path            string
	FileName        string
	DurationSamples int64
}

// Service is the sub-server that handles runtime introspection and
// mutation of a running Processor.
type Service struct {
	processor      *core.Processor
	recorder       core.Recorder
	streamID       string
	streamType     string
	nChannels      int
	samplingRateHz float64

	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewService builds a Service bound to a running Processor and the
// recorder it should arm on a "Start" WriteControl request. streamType,
// nChannels and samplingRateHz feed the stream-header XML that WriteControl
// writes for a recording started through the control plane.
func NewService(processor *core.Processor, recorder core.Recorder, streamID, streamType string, nChannels int, samplingRateHz float64) *Service {
	return &Service{
		processor:      processor,
		recorder:       recorder,
		streamID:       streamID,
		streamType:     streamType,
		nChannels:      nChannels,
		samplingRateHz: samplingRateHz,
		stopCh:         make(chan struct{}),
	}
}

// Done returns a channel closed once Stop has been served, so the
// caller-owned run loop can unblock its pull from the input stream and
// exit.
func (s *Service) Done() <-chan struct{} { return s.stopCh }

// Status reports the orchestrator's most recently published snapshot.
func (s *Service) Status(dummy *string, reply *core.Status) error {
	*reply = s.processor.Status()
	return nil
}

// ConfigureTrigger updates the spike detector's threshold factor and
// refractory period; it takes effect at the very next processed sample.
func (s *Service) ConfigureTrigger(args *core.TriggerConfig, reply *bool) error {
	log.Printf("ConfigureTrigger: %s", spew.Sdump(args))
	s.processor.ConfigureTrigger(*args)
	*reply = true
	return nil
}

// WriteControl starts or stops recording.
func (s *Service) WriteControl(args *WriteControlConfig, reply *bool) error {
	switch args.Request {
	case "Start":
		header := xdf.BuildHeaderXML(s.streamID, s.streamType, s.nChannels, s.samplingRateHz, time.Now())
		if err := s.recorder.WriteStreamHeader(s.streamID, header); err != nil {
			return fmt.Errorf("write stream header: %w", err)
		}
		s.processor.RequestRecordingStart(s.recorder, s.streamID, args.DurationSamples, xdf.BuildFooterXML)
	case "Stop":
		s.processor.RequestRecordingStop()
	default:
		return fmt.Errorf("WriteControl: unrecognized request %q", args.Request)
	}
	*reply = true
	return nil
}

// Stop signals the caller-owned run loop to exit via Done. The Processor's
// clean-shutdown hook (flushing the active window, finalizing any open
// recording) is run by the loop's owner once the loop has stopped, not
// here on the RPC goroutine.
func (s *Service) Stop(dummy *string, reply *bool) error {
	s.closeOnce.Do(func() { close(s.stopCh) })
	*reply = true
	return nil
}

// RunRPCServer runs a permanent JSON-RPC server on port, registering
// svc. If block, it blocks until Ctrl-C.
func RunRPCServer(port int, svc *Service, block bool) {
	server := rpc.NewServer()
	if err := server.Register(svc); err != nil {
		panic(err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		panic(fmt.Sprintf("control: listen error: %v", err))
	}
	log.Printf("control: listening on %s", listener.Addr())

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				log.Printf("control: accept error: %v", err)
				return
			}
			go func() {
				codec := jsonrpc.NewServerCodec(conn)
				for {
					if err := server.ServeRequest(codec); err != nil {
						log.Printf("control: connection closed: %v", err)
						return
					}
				}
			}()
		}
	}()

	if block {
		interruptCatcher := make(chan os.Signal, 1)
		signal.Notify(interruptCatcher, os.Interrupt)
		<-interruptCatcher
	}
}
