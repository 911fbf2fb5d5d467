// Package layout loads the optional electrode row/column map: a flat
// array keyed by channel index, never a pointer graph, per the
// no-cyclic-references design guidance.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/es-ude/denspp.online/internal/core"
)

// Entry is one electrode's position in the recording array.
type Entry struct {
	ChannelID int `yaml:"channel_id"`
	Row       int `yaml:"row"`
	Col       int `yaml:"col"`
}

type document struct {
	Channels []Entry `yaml:"channels"`
}

// Layout is a flat, index-addressed channel->position map.
type Layout struct {
	entries []Entry
}

// Load reads a channel layout from path, validating that every listed
// channel id falls in [0, nChannels). A layout explicitly requested via
// use_layout must be satisfiable, so any failure here is a ConfigError.
func Load(path string, nChannels int) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.ConfigError{Key: "mapping_path", Err: err}
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &core.ConfigError{Key: "mapping_path", Err: err}
	}
	entries := make([]Entry, nChannels)
	for _, e := range doc.Channels {
		if e.ChannelID < 0 || e.ChannelID >= nChannels {
			return nil, &core.ConfigError{Key: "mapping_path", Err: fmt.Errorf("channel id %d out of range [0,%d)", e.ChannelID, nChannels)}
		}
		entries[e.ChannelID] = e
	}
	return &Layout{entries: entries}, nil
}

// RowCol returns the row/column position of a channel.
func (l *Layout) RowCol(channel int) (row, col int) {
	e := l.entries[channel]
	return e.Row, e.Col
}
