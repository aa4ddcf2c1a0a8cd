package recording

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/OpenPSG/edf"
	"github.com/spf13/afero"
)

// Defaults for Opener limits
const (
	DefaultMaxOpen    = 64
	DefaultMaxSamples = 1 << 28 // per channel
	DefaultExtension  = ".edf"
)

// Channel describes one signal of a recording
type Channel struct {
	Index            int     `json:"index"`
	Label            string  `json:"label"`
	Unit             string  `json:"unit"`
	SamplesPerRecord int     `json:"samples_per_record"`
	SampleCount      int     `json:"sample_count"`
	SampleRate       float64 `json:"sample_rate"`
}

// Options configures an Opener
type Options struct {
	MaxOpen    int
	MaxSamples int
}

// Opener opens EDF recordings from a filesystem and tracks which paths are
// open. It is safe for concurrent use.
type Opener struct {
	fs         afero.Fs
	maxOpen    int
	maxSamples int

	mu   sync.Mutex
	open map[string]struct{}
}

// NewOpener creates an opener over fs
func NewOpener(fsys afero.Fs, opts Options) *Opener {
	if opts.MaxOpen <= 0 {
		opts.MaxOpen = DefaultMaxOpen
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}
	return &Opener{
		fs:         fsys,
		maxOpen:    opts.MaxOpen,
		maxSamples: opts.MaxSamples,
		open:       make(map[string]struct{}),
	}
}

// OpenCount returns the number of recordings currently open
func (o *Opener) OpenCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.open)
}

func (o *Opener) acquire(key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.open[key]; ok {
		return newError(KindAlreadyOpen, key, nil)
	}
	if len(o.open) >= o.maxOpen {
		return newError(KindTooManyOpen, key, fmt.Errorf("limit of %d open recordings reached", o.maxOpen))
	}
	o.open[key] = struct{}{}
	return nil
}

func (o *Opener) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.open, key)
}

// Open reads the recording at path fully into memory and parses its header
func (o *Opener) Open(path string) (*Recording, error) {
	key := filepath.Clean(path)
	if err := o.acquire(key); err != nil {
		return nil, err
	}

	rec, err := o.load(key)
	if err != nil {
		o.release(key)
		return nil, err
	}
	return rec, nil
}

func (o *Opener) load(path string) (*Recording, error) {
	if _, err := o.fs.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(KindNotFound, path, err)
		}
		return nil, newError(KindReadError, path, err)
	}

	data, err := afero.ReadFile(o.fs, path)
	if err != nil {
		return nil, newError(KindReadError, path, err)
	}

	reader, err := edf.Open(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindMalformed, path, err)
	}

	hdr, err := parseHeader(data)
	if err != nil {
		return nil, newError(KindMalformed, path, err)
	}

	channels := make([]Channel, len(hdr.labels))
	for i := range channels {
		count := hdr.records * hdr.samples[i]
		if count > o.maxSamples {
			return nil, newError(KindOutOfMemory, path,
				fmt.Errorf("signal %d has %d samples, limit is %d", i, count, o.maxSamples))
		}
		channels[i] = Channel{
			Index:            i,
			Label:            hdr.labels[i],
			Unit:             hdr.units[i],
			SamplesPerRecord: hdr.samples[i],
			SampleCount:      count,
			SampleRate:       float64(hdr.samples[i]) / hdr.recordDuration,
		}
	}

	return &Recording{
		path:     path,
		opener:   o,
		data:     data,
		reader:   reader,
		header:   hdr,
		channels: channels,
	}, nil
}

// Recording is an opened EDF file. It is not safe for concurrent use.
type Recording struct {
	path     string
	opener   *Opener
	data     []byte
	reader   *edf.Reader
	header   *header
	channels []Channel
	closed   bool
}

// Path returns the path the recording was opened from
func (r *Recording) Path() string {
	return r.path
}

// Channels returns the recording's signal descriptions
func (r *Recording) Channels() []Channel {
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// RecordDuration is the length of one data record in seconds
func (r *Recording) RecordDuration() float64 {
	return r.header.recordDuration
}

// Records is the number of data records
func (r *Recording) Records() int {
	return r.header.records
}

// ReadPhysical returns every sample of channel index in physical units
func (r *Recording) ReadPhysical(index int) ([]float64, error) {
	if r.closed {
		return nil, &Error{Kind: KindReadError, Path: r.path, Channel: index, Cause: errors.New("recording is closed")}
	}
	if index < 0 || index >= len(r.channels) {
		return nil, &Error{Kind: KindReadError, Path: r.path, Channel: index, Cause: errors.New("channel index out of range")}
	}

	want := r.header.headerBytes + r.header.records*r.header.recordSize()
	if len(r.data) < want {
		return nil, &Error{Kind: KindReadError, Path: r.path, Channel: index,
			Cause: fmt.Errorf("data records truncated: have %d bytes, need %d", len(r.data), want)}
	}

	sr, err := r.reader.Signal(index)
	if err != nil {
		return nil, &Error{Kind: KindReadError, Path: r.path, Channel: index, Cause: err}
	}

	samples := make([]float64, r.channels[index].SampleCount)
	n, err := sr.Read(samples)
	if err != nil || n != len(samples) {
		if err == nil {
			err = fmt.Errorf("short read: %d of %d samples", n, len(samples))
		}
		return nil, &Error{Kind: KindReadError, Path: r.path, Channel: index, Cause: err}
	}
	return samples, nil
}

// Close releases the recording's slot in its opener
func (r *Recording) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.data = nil
	r.reader = nil
	r.opener.release(r.path)
	return nil
}
