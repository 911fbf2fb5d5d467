// Package sourcesim implements the Source Replayer: dataset readers, the
// PD pacing controller, and the main replay loop.
package sourcesim

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/es-ude/denspp.online/internal/core"
	"github.com/es-ude/denspp.online/internal/xdf"
)

// Dataset is random-access over a recorded multi-channel dataset at its
// native sample rate, used by Replayer for downsampling and looping.
type Dataset interface {
	NChannels() int
	NativeRateHz() int
	Len() int
	SampleAt(i int, out []float64)
}

// MatrixFileSource reads the matrix-form binary dataset format: 32-bit
// signed samples, row-major over samples, native rate 30 kHz (the
// "rawdata.spike" format).
type MatrixFileSource struct {
	rows      [][]int32
	nChannels int
}

// OpenMatrixFile loads a whole matrix file into memory; datasets in this
// format are small enough (tens of channels, seconds to minutes of
// recording) for this to be the simplest faithful reading.
func OpenMatrixFile(path string, nChannels int) (*MatrixFileSource, error) {
	if nChannels <= 0 {
		return nil, &core.ConfigError{Key: "n_channel", Err: fmt.Errorf("must be >= 1, got %d", nChannels)}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.IOError{Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &core.IOError{Path: path, Err: err}
	}
	const wordSize = 4
	totalWords := stat.Size() / wordSize
	nSamples := int(totalWords) / nChannels

	raw := make([]int32, nSamples*nChannels)
	if err := binary.Read(f, binary.LittleEndian, raw); err != nil {
		return nil, &core.IOError{Path: path, Err: err}
	}
	rows := make([][]int32, nSamples)
	for i := range rows {
		rows[i] = raw[i*nChannels : (i+1)*nChannels]
	}
	return &MatrixFileSource{rows: rows, nChannels: nChannels}, nil
}

func (s *MatrixFileSource) NChannels() int    { return s.nChannels }
func (s *MatrixFileSource) NativeRateHz() int { return 30000 }
func (s *MatrixFileSource) Len() int          { return len(s.rows) }

func (s *MatrixFileSource) SampleAt(i int, out []float64) {
	row := s.rows[i]
	for c, v := range row {
		out[c] = float64(v)
	}
}

// XDFFileSource replays the first stream of a recording-file container
// (the same format package xdf writes), matching §6's second supported
// dataset-file format.
type XDFFileSource struct {
	rows         [][]float64
	nChannels    int
	nativeRateHz int
}

// OpenXDFFile loads a recording's first stream into memory and reports
// nativeRateHz as its native rate. The rate is taken as given: the
// recording's own nominal_srate in its stream header is not read.
func OpenXDFFile(path string, nativeRateHz int) (*XDFFileSource, error) {
	rows, channelCount, err := xdf.ReadDataset(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &core.IOError{Path: path, Err: errEmptyDataset}
	}
	return &XDFFileSource{rows: rows, nChannels: channelCount, nativeRateHz: nativeRateHz}, nil
}

func (s *XDFFileSource) NChannels() int    { return s.nChannels }
func (s *XDFFileSource) NativeRateHz() int { return s.nativeRateHz }
func (s *XDFFileSource) Len() int          { return len(s.rows) }

func (s *XDFFileSource) SampleAt(i int, out []float64) {
	copy(out, s.rows[i])
}

var errEmptyDataset = datasetError("dataset file contains no samples")

type datasetError string

func (e datasetError) Error() string { return string(e) }
