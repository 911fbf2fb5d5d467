package xdf

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/es-ude/denspp.online/internal/core"
)

// ReadDataset reads back a recording's first stream's data chunks as a
// sample matrix, for use as a Source Replayer dataset. It is the
// container-format counterpart to the matrix-file dataset reader.
func ReadDataset(path string) (samples [][]float64, channelCount int, err error) {
	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, 0, &core.IOError{Path: path, Err: ferr}
	}
	defer f.Close()

	var firstID string
	haveID := false
	for {
		var tag uint8
		if err := binary.Read(f, binary.LittleEndian, &tag); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, &core.IOError{Path: path, Err: err}
		}
		var length uint32
		if err := binary.Read(f, binary.LittleEndian, &length); err != nil {
			return nil, 0, &core.IOError{Path: path, Err: err}
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			return nil, 0, &core.IOError{Path: path, Err: err}
		}
		if tag != chunkDataChunk {
			continue
		}
		r := bytes.NewReader(payload)
		var idLen uint32
		binary.Read(r, binary.LittleEndian, &idLen)
		idBuf := make([]byte, idLen)
		io.ReadFull(r, idBuf)
		if !haveID {
			firstID, haveID = string(idBuf), true
		} else if string(idBuf) != firstID {
			continue
		}

		var nTimestamps, chCount uint32
		binary.Read(r, binary.LittleEndian, &nTimestamps)
		binary.Read(r, binary.LittleEndian, &chCount)
		channelCount = int(chCount)

		timestamps := make([]float64, nTimestamps)
		binary.Read(r, binary.LittleEndian, timestamps)

		for i := uint32(0); i < nTimestamps; i++ {
			row := make([]float64, chCount)
			if err := binary.Read(r, binary.LittleEndian, row); err != nil {
				return nil, 0, &core.IOError{Path: path, Err: err}
			}
			samples = append(samples, row)
		}
	}
	return samples, channelCount, nil
}
