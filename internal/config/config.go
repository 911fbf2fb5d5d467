// Package config loads the hierarchical configuration document with
// spf13/viper, bound to spf13/pflag for the single --config path flag,
// exactly as the teacher's rpc_server.go loads its own config
// with viper.UnmarshalKey and viper.ConfigFileUsed.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/es-ude/denspp.online/internal/core"
)

// RecordingConfig mirrors the recording.* fields of §3.
type RecordingConfig struct {
	DoRecord bool
	Duration float64
	Path     string
	FileName string
}

// BufferConfig mirrors buffer.*.
type BufferConfig struct {
	Size       int
	WindowSize int
}

// ModelConfig mirrors model.*.
type ModelConfig struct {
	Path      string
	InputSize int
}

// ControlConfig carries the ambient control-plane port, not named in
// spec.md §3 but required by the Control Plane expansion.
type ControlConfig struct {
	RPCPort int
}

// Config is the immutable, fully-validated configuration document.
type Config struct {
	NChannel     int
	SamplingRate int
	StreamName   string
	SimDataPath  string
	Filter       core.FilterConfig
	Recording    RecordingConfig
	Buffer       BufferConfig
	Model        ModelConfig
	UseLayout    bool
	MappingPath  string
	Control      ControlConfig
}

var requiredKeys = []string{
	"n_channel", "sampling_rate", "stream_name", "sim_data_path",
	"filter.class", "filter.order", "filter.lowcut", "filter.highcut", "filter.type",
	"buffer.size", "buffer.window_size",
	"model.path", "model.input_size",
}

// BindFlags registers the one config-path flag a binary accepts,
// --config, defaulting to config/default.yaml. The path is read from this
// flag only; positional arguments are not consulted.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "config/default.yaml", "path to configuration file")
}

// Load reads and validates the configuration file at path. Missing
// required keys fail with a ConfigError naming the key; unknown
// top-level keys are ignored, with a warning for each written via the
// standard logger.
func Load(path string, defaultRPCPort int) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("control.rpc_port", defaultRPCPort)
	if err := v.ReadInConfig(); err != nil {
		return nil, &core.IOError{Path: path, Err: err}
	}

	knownTopLevel := map[string]bool{
		"n_channel": true, "sampling_rate": true, "stream_name": true, "sim_data_path": true,
		"filter": true, "recording": true, "buffer": true, "model": true,
		"use_layout": true, "mapping_path": true, "control": true,
	}
	for key := range v.AllSettings() {
		if !knownTopLevel[key] {
			log.Printf("config: ignoring unknown top-level key %q", key)
		}
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, &core.ConfigError{Key: key}
		}
	}

	cfg := &Config{
		NChannel:     v.GetInt("n_channel"),
		SamplingRate: v.GetInt("sampling_rate"),
		StreamName:   v.GetString("stream_name"),
		SimDataPath:  v.GetString("sim_data_path"),
		Filter: core.FilterConfig{
			Class:     core.FilterClass(v.GetString("filter.class")),
			Order:     v.GetInt("filter.order"),
			LowcutHz:  v.GetFloat64("filter.lowcut"),
			HighcutHz: v.GetFloat64("filter.highcut"),
			Type:      core.FilterType(v.GetString("filter.type")),
		},
		Recording: RecordingConfig{
			DoRecord: v.GetBool("recording.do_record"),
			Duration: v.GetFloat64("recording.duration_s"),
			Path:     v.GetString("recording.path"),
			FileName: v.GetString("recording.file_name"),
		},
		Buffer: BufferConfig{
			Size:       v.GetInt("buffer.size"),
			WindowSize: v.GetInt("buffer.window_size"),
		},
		Model: ModelConfig{
			Path:      v.GetString("model.path"),
			InputSize: v.GetInt("model.input_size"),
		},
		UseLayout:   v.GetBool("use_layout"),
		MappingPath: v.GetString("mapping_path"),
		Control:     ControlConfig{RPCPort: v.GetInt("control.rpc_port")},
	}

	if cfg.UseLayout {
		if cfg.MappingPath == "" {
			return nil, &core.ConfigError{Key: "mapping_path", Err: fmt.Errorf("use_layout is true but mapping_path is empty")}
		}
		if _, err := os.Stat(cfg.MappingPath); err != nil {
			return nil, &core.ConfigError{Key: "mapping_path", Err: err}
		}
	}
	return cfg, nil
}
