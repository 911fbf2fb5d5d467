package sourcesim

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMatrixFileReadsRowMajorInt32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawdata.spike")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test file: %v", err)
	}
	const nChannels = 3
	rows := [][]int32{{1, 2, 3}, {4, 5, 6}, {-7, -8, -9}}
	for _, row := range rows {
		if err := binary.Write(f, binary.LittleEndian, row); err != nil {
			t.Fatalf("write test file: %v", err)
		}
	}
	f.Close()

	ds, err := OpenMatrixFile(path, nChannels)
	if err != nil {
		t.Fatalf("OpenMatrixFile() error = %v", err)
	}
	if ds.NChannels() != nChannels {
		t.Errorf("NChannels() = %d, want %d", ds.NChannels(), nChannels)
	}
	if ds.Len() != len(rows) {
		t.Fatalf("Len() = %d, want %d", ds.Len(), len(rows))
	}
	out := make([]float64, nChannels)
	for i, row := range rows {
		ds.SampleAt(i, out)
		for c := range row {
			if out[c] != float64(row[c]) {
				t.Errorf("SampleAt(%d)[%d] = %v, want %v", i, c, out[c], row[c])
			}
		}
	}
}

func TestOpenMatrixFileRejectsNonPositiveChannelCount(t *testing.T) {
	if _, err := OpenMatrixFile("irrelevant.spike", 0); err == nil {
		t.Error("OpenMatrixFile() with n_channel=0 returned nil error")
	}
}
