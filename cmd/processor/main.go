// Command processor runs the filtering/detection/classification
// pipeline: it subscribes to a raw sample stream, runs it through the
// orchestrator, and publishes the filtered and spike streams, serving a
// JSON-RPC control plane alongside.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/es-ude/denspp.online/internal/bus"
	"github.com/es-ude/denspp.online/internal/classify"
	"github.com/es-ude/denspp.online/internal/config"
	"github.com/es-ude/denspp.online/internal/control"
	"github.com/es-ude/denspp.online/internal/core"
	"github.com/es-ude/denspp.online/internal/layout"
	"github.com/es-ude/denspp.online/internal/xdf"
)

const defaultRPCPort = 5500

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("processor", pflag.ContinueOnError)
	config.BindFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}
	configPath, _ := fs.GetString("config")

	cfg, err := config.Load(configPath, defaultRPCPort)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}

	classifier, err := classify.Load(cfg.Model.Path, cfg.Model.InputSize)
	if err != nil {
		log.Printf("classifier load failed: %v", err)
		return 2
	}

	var channelPosition func(channel int) (row, col int)
	if cfg.UseLayout {
		lay, err := layout.Load(cfg.MappingPath, cfg.NChannel)
		if err != nil {
			log.Printf("startup failed: %v", err)
			return 1
		}
		channelPosition = lay.RowCol
	}

	zbus := bus.NewZMQBus("localhost")
	rawIn, err := zbus.Subscribe(cfg.StreamName)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}
	defer rawIn.Close()

	filteredOut, err := zbus.Publish(core.StreamInfo{
		Name:         cfg.StreamName + "_filtered",
		Type:         "filtered",
		ChannelCount: 2 * cfg.NChannel,
		RateHz:       float64(cfg.SamplingRate),
		Format:       "int16",
		SourceID:     "processor",
	})
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}
	defer filteredOut.Close()

	spikeOut, err := zbus.Publish(core.StreamInfo{
		Name:         "spikes",
		Type:         "spikes",
		ChannelCount: cfg.Model.InputSize + 1,
		RateHz:       0,
		Format:       "int16",
		SourceID:     "processor",
	})
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}
	defer spikeOut.Close()

	processor, err := core.NewProcessor(core.ProcessorConfig{
		NChannels:       cfg.NChannel,
		SamplingRateHz:  cfg.SamplingRate,
		WindowSize:      cfg.Buffer.WindowSize,
		BufferSize:      cfg.Buffer.Size,
		InputSize:       cfg.Model.InputSize,
		Filter:          cfg.Filter,
		Trigger:         core.TriggerConfig{K: 5, Refractory: 10},
		Classifier:      core.ClassifierFunc(classifier.Classify),
		FilteredOut:     filteredOut,
		SpikeOut:        spikeOut,
		ChannelPosition: channelPosition,
	})
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}

	recorder := xdf.NewWriter(recordingFilePath(cfg))
	if cfg.Recording.DoRecord {
		if err := recorder.CreateFile(); err != nil {
			log.Printf("startup failed: %v", err)
			return 1
		}
		header := xdf.BuildHeaderXML(cfg.StreamName, "EEG", cfg.NChannel, float64(cfg.SamplingRate), time.Now())
		if err := recorder.WriteStreamHeader(cfg.StreamName, header); err != nil {
			log.Printf("startup failed: %v", err)
			return 1
		}
		durationSamples := int64(cfg.Recording.Duration * float64(cfg.SamplingRate))
		processor.RequestRecordingStart(recorder, cfg.StreamName, durationSamples, xdf.BuildFooterXML)
	}
	defer recorder.Close()

	svc := control.NewService(processor, recorder, cfg.StreamName, "EEG", cfg.NChannel, float64(cfg.SamplingRate))
	go control.RunRPCServer(cfg.Control.RPCPort, svc, false)

	done := make(chan int, 1)
	go func() {
		raw := make([]float64, cfg.NChannel)
		for {
			ok, err := rawIn.PullSample(raw)
			if err != nil {
				log.Printf("stream error: %v", err)
				done <- 1
				return
			}
			if !ok {
				done <- 0
				return
			}
			if err := processor.ProcessSample(raw); err != nil {
				log.Printf("processing error: %v", err)
				done <- 1
				return
			}
		}
	}()

	interruptCatcher := make(chan os.Signal, 1)
	signal.Notify(interruptCatcher, os.Interrupt)

	var code int
	select {
	case <-interruptCatcher:
		rawIn.Close()
		code = <-done
	case <-svc.Done():
		rawIn.Close()
		code = <-done
	case code = <-done:
	}
	// Every branch above has waited for the pull loop to return, so the
	// clean-shutdown hook runs here with no sample in flight.
	if err := processor.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	return code
}

func recordingFilePath(cfg *config.Config) string {
	if cfg.Recording.Path == "" || cfg.Recording.FileName == "" {
		return fmt.Sprintf("%s.xdf", cfg.StreamName)
	}
	return cfg.Recording.Path + string(os.PathSeparator) + cfg.Recording.FileName
}
