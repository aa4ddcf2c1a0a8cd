package recording

import (
	"fmt"
	"strconv"
	"strings"
)

// EDF fixed-header layout
const (
	fixedHeaderSize  = 256
	signalHeaderSize = 256

	labelWidth = 16
	unitWidth  = 8
	countWidth = 8

	// per-signal field offsets relative to the end of the fixed header, in
	// units of the signal count
	unitOffset    = 96
	samplesOffset = 216
)

type header struct {
	headerBytes    int
	records        int
	recordDuration float64
	labels         []string
	units          []string
	samples        []int
}

func field(b []byte, start, width int) string {
	return strings.TrimSpace(string(b[start : start+width]))
}

func intField(b []byte, start, width int, name string) (int, error) {
	v, err := strconv.Atoi(field(b, start, width))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return v, nil
}

// parseHeader reads the channel metadata the decoder does not expose
func parseHeader(b []byte) (*header, error) {
	if len(b) < fixedHeaderSize {
		return nil, fmt.Errorf("file shorter than the %d-byte header", fixedHeaderSize)
	}

	h := &header{}
	var err error
	if h.headerBytes, err = intField(b, 184, 8, "header size"); err != nil {
		return nil, err
	}
	if h.records, err = intField(b, 236, 8, "data record count"); err != nil {
		return nil, err
	}
	if h.records < 0 {
		return nil, fmt.Errorf("unknown number of data records")
	}
	if h.recordDuration, err = strconv.ParseFloat(field(b, 244, 8), 64); err != nil {
		return nil, fmt.Errorf("parsing record duration: %w", err)
	}
	if h.recordDuration <= 0 {
		return nil, fmt.Errorf("record duration must be positive, got %g", h.recordDuration)
	}

	ns, err := intField(b, 252, 4, "signal count")
	if err != nil {
		return nil, err
	}
	if ns <= 0 {
		return nil, fmt.Errorf("recording has no signals")
	}
	if len(b) < fixedHeaderSize+ns*signalHeaderSize {
		return nil, fmt.Errorf("signal headers truncated")
	}

	h.labels = make([]string, ns)
	h.units = make([]string, ns)
	h.samples = make([]int, ns)
	for i := 0; i < ns; i++ {
		h.labels[i] = field(b, fixedHeaderSize+labelWidth*i, labelWidth)
		h.units[i] = field(b, fixedHeaderSize+ns*unitOffset+unitWidth*i, unitWidth)
		n, err := intField(b, fixedHeaderSize+ns*samplesOffset+countWidth*i, countWidth, "samples per record")
		if err != nil {
			return nil, fmt.Errorf("signal %d: %w", i, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("signal %d has no samples per record", i)
		}
		h.samples[i] = n
	}
	return h, nil
}

// recordSize is the byte length of one data record
func (h *header) recordSize() int {
	total := 0
	for _, n := range h.samples {
		total += n * 2
	}
	return total
}
