// Command source replays a recorded dataset onto the raw sample stream
// at a paced, wall-clock-accurate rate, looping at end of file.
package main

import (
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/es-ude/denspp.online/internal/bus"
	"github.com/es-ude/denspp.online/internal/config"
	"github.com/es-ude/denspp.online/internal/core"
	"github.com/es-ude/denspp.online/internal/sourcesim"
)

const defaultRPCPort = 5501

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("source", pflag.ContinueOnError)
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

	dataset, err := openDataset(cfg)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}

	zbus := bus.NewZMQBus("localhost")
	out, err := zbus.Publish(core.StreamInfo{
		Name:         cfg.StreamName,
		Type:         "raw",
		ChannelCount: cfg.NChannel,
		RateHz:       float64(cfg.SamplingRate),
		Format:       "int16",
		SourceID:     "source",
	})
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}
	defer out.Close()

	replayer := sourcesim.NewReplayer(dataset, cfg.SamplingRate, out.PushSample)
	replayer.Run()

	interruptCatcher := make(chan os.Signal, 1)
	signal.Notify(interruptCatcher, os.Interrupt)
	<-interruptCatcher
	replayer.Stop()
	replayer.Wait()
	return 0
}

func openDataset(cfg *config.Config) (sourcesim.Dataset, error) {
	if strings.HasSuffix(cfg.SimDataPath, ".xdf") {
		return sourcesim.OpenXDFFile(cfg.SimDataPath, cfg.SamplingRate)
	}
	return sourcesim.OpenMatrixFile(cfg.SimDataPath, cfg.NChannel)
}
