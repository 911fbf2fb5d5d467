// Package xdf is the concrete recording-file writer: a binary chunked
// container of stream-header, data, boundary, and stream-footer chunks,
// adapted from the teacher's off.Writer (CreateFile/WriteHeader/
// WriteRecord/Flush/Close/HeaderWritten/RecordsWritten) to the
// header/data/boundary/footer chunk contract this spec requires instead
// of off's projector/basis record format.
package xdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/es-ude/denspp.online/internal/core"
)

const (
	chunkStreamHeader uint8 = 2
	chunkDataChunk    uint8 = 3
	chunkBoundary     uint8 = 5
	chunkStreamFooter uint8 = 6
)

// Writer is a core.Recorder backed by a single file on disk. Headers and
// footers may each be written exactly once per stream id.
type Writer struct {
	path string
	f    *os.File

	headerWritten map[string]bool
	footerWritten map[string]bool
	dataChunks    int
	boundaryDone  bool
}

// NewWriter builds a Writer for the given file path. The file is not
// opened until CreateFile is called.
func NewWriter(path string) *Writer {
	return &Writer{
		path:          path,
		headerWritten: make(map[string]bool),
		footerWritten: make(map[string]bool),
	}
}

// CreateFile opens (truncating) the backing file.
func (w *Writer) CreateFile() error {
	f, err := os.Create(w.path)
	if err != nil {
		return &core.IOError{Path: w.path, Err: err}
	}
	w.f = f
	return nil
}

// Flush syncs buffered writes to disk.
func (w *Writer) Flush() error {
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Close flushes and closes the backing file.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	return w.f.Close()
}

// HeaderWritten reports whether the header for streamID has been written.
func (w *Writer) HeaderWritten(streamID string) bool { return w.headerWritten[streamID] }

// RecordsWritten reports the total number of data chunks written so far.
func (w *Writer) RecordsWritten() int { return w.dataChunks }

func (w *Writer) writeChunk(tag uint8, payload []byte) error {
	if err := binary.Write(w.f, binary.LittleEndian, tag); err != nil {
		return err
	}
	if err := binary.Write(w.f, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.f.Write(payload)
	return err
}

func encodeStreamID(buf *bytes.Buffer, streamID string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(streamID)))
	buf.WriteString(streamID)
}

// WriteStreamHeader writes the one-time header chunk for streamID.
func (w *Writer) WriteStreamHeader(streamID, headerXML string) error {
	if w.headerWritten[streamID] {
		return fmt.Errorf("xdf: header already written for stream %q", streamID)
	}
	buf := new(bytes.Buffer)
	encodeStreamID(buf, streamID)
	buf.WriteString(headerXML)
	if err := w.writeChunk(chunkStreamHeader, buf.Bytes()); err != nil {
		return err
	}
	w.headerWritten[streamID] = true
	return nil
}

// WriteDataChunk appends one data chunk: parallel timestamps and sample
// rows (each of length channelCount) for streamID.
func (w *Writer) WriteDataChunk(streamID string, timestamps []float64, samples [][]float64, channelCount int) error {
	buf := new(bytes.Buffer)
	encodeStreamID(buf, streamID)
	binary.Write(buf, binary.LittleEndian, uint32(len(timestamps)))
	binary.Write(buf, binary.LittleEndian, uint32(channelCount))
	binary.Write(buf, binary.LittleEndian, timestamps)
	for _, row := range samples {
		binary.Write(buf, binary.LittleEndian, row)
	}
	if err := w.writeChunk(chunkDataChunk, buf.Bytes()); err != nil {
		return err
	}
	w.dataChunks++
	return nil
}

// WriteBoundaryChunk writes a boundary marker; it must immediately
// precede WriteStreamFooter.
func (w *Writer) WriteBoundaryChunk() error {
	if err := w.writeChunk(chunkBoundary, []byte{0xff, 0xff, 0xff, 0xff}); err != nil {
		return err
	}
	w.boundaryDone = true
	return nil
}

// WriteStreamFooter writes the one-time footer chunk for streamID.
func (w *Writer) WriteStreamFooter(streamID, footerXML string) error {
	if w.footerWritten[streamID] {
		return fmt.Errorf("xdf: footer already written for stream %q", streamID)
	}
	buf := new(bytes.Buffer)
	encodeStreamID(buf, streamID)
	buf.WriteString(footerXML)
	if err := w.writeChunk(chunkStreamFooter, buf.Bytes()); err != nil {
		return err
	}
	w.footerWritten[streamID] = true
	return nil
}
