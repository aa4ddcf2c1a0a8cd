package cfs

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/RyanBlaney/edf2cfs/pkg/common"
	"github.com/RyanBlaney/edf2cfs/pkg/spectrogram"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/klauspost/compress/zlib"
	"github.com/spf13/afero"
)

// Compression failure reasons
const (
	ReasonBufferTooSmall = "buffer-too-small"
	ReasonOutOfMemory    = "out-of-memory"
)

// CompressionError reports why the payload could not be compressed
type CompressionError struct {
	Reason string
	Cause  error
}

func (e *CompressionError) Error() string {
	if e.Cause != nil {
		return "compression failed (" + e.Reason + "): " + e.Cause.Error()
	}
	return "compression failed (" + e.Reason + ")"
}

func (e *CompressionError) Unwrap() error {
	return e.Cause
}

var errBoundExceeded = errors.New("compressed output exceeds bound")

// compressBound is the worst-case zlib output size for n input bytes
func compressBound(n int) int {
	return n + (n >> 12) + (n >> 14) + (n >> 25) + 13
}

// boundedBuffer refuses writes past its limit
type boundedBuffer struct {
	buf   []byte
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if len(b.buf)+len(p) > b.limit {
		return 0, errBoundExceeded
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Artifact is an encoded CFS file held in memory
type Artifact struct {
	Header  Header
	Digest  [DigestSize]byte
	Payload []byte // compressed
	RawSize int
}

// Size returns the on-disk size of the artifact
func (a *Artifact) Size() int {
	return PrefixSize + len(a.Payload)
}

// MarshalBinary returns the complete file contents
func (a *Artifact) MarshalBinary() ([]byte, error) {
	return a.marshal(HostOrder), nil
}

func (a *Artifact) marshal(host binary.ByteOrder) []byte {
	out := make([]byte, 0, a.Size())
	out = a.Header.appendTo(out, host)
	out = append(out, a.Digest[:]...)
	return append(out, a.Payload...)
}

// Options configures an Encoder
type Options struct {
	Overwrite bool
	// Level is a zlib compression level; zero selects the default level
	Level     int
	HostOrder binary.ByteOrder
	Geometry  spectrogram.Geometry
}

// Encoder narrows, hashes, compresses and writes spectrogram payloads.
// It holds no per-call state and is safe for concurrent use.
type Encoder struct {
	fs     afero.Fs
	opts   Options
	logger logging.Logger

	// commitMu serializes the final existence check and rename
	commitMu sync.Mutex
}

// NewEncoder creates an encoder writing to fs
func NewEncoder(fs afero.Fs, opts Options, logger logging.Logger) *Encoder {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if opts.Level == 0 {
		opts.Level = zlib.DefaultCompression
	}
	if opts.HostOrder == nil {
		opts.HostOrder = HostOrder
	}
	if opts.Geometry == (spectrogram.Geometry{}) {
		opts.Geometry = spectrogram.DefaultGeometry()
	}
	return &Encoder{fs: fs, opts: opts, logger: logger}
}

// CheckTarget returns an AlreadyConverted error when path exists and
// overwriting is disabled
func (e *Encoder) CheckTarget(path string) error {
	if e.opts.Overwrite {
		return nil
	}
	exists, err := afero.Exists(e.fs, path)
	if err != nil {
		return common.NewConversionError(common.ErrCodeWrite, path, "cannot stat output file", err)
	}
	if exists {
		return common.NewConversionError(common.ErrCodeAlreadyConverted, path, "output file already exists", nil)
	}
	return nil
}

// Encode builds the artifact for a payload of epochs blocks
func (e *Encoder) Encode(path string, values []float64, epochs int) (*Artifact, error) {
	hdr, err := NewHeader(e.opts.Geometry, epochs)
	if err != nil {
		return nil, common.NewConversionError(common.ErrCodeWrite, path, "cannot build header", err)
	}
	if len(values) != hdr.PayloadValues() {
		return nil, common.NewConversionError(common.ErrCodeWrite, path,
			fmt.Sprintf("payload has %d values, header expects %d", len(values), hdr.PayloadValues()), nil)
	}

	raw := marshalFloats(values, e.opts.HostOrder)
	digest := sha1.Sum(raw)

	compressed, err := e.compress(raw)
	if err != nil {
		return nil, common.NewConversionError(common.ErrCodeCompression, path, "cannot compress payload", err)
	}

	e.logger.Debug("Encoded payload", logging.Fields{
		"file":            path,
		"epochs":          epochs,
		"raw_bytes":       len(raw),
		"compressed_size": len(compressed),
	})

	return &Artifact{
		Header:  hdr,
		Digest:  digest,
		Payload: compressed,
		RawSize: len(raw),
	}, nil
}

func (e *Encoder) compress(raw []byte) ([]byte, error) {
	bound := compressBound(len(raw))
	out := &boundedBuffer{buf: make([]byte, 0, bound), limit: bound}

	zw, err := zlib.NewWriterLevel(out, e.opts.Level)
	if err != nil {
		return nil, &CompressionError{Reason: ReasonOutOfMemory, Cause: err}
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, compressionFailure(err)
	}
	if err := zw.Close(); err != nil {
		return nil, compressionFailure(err)
	}
	return out.buf, nil
}

func compressionFailure(err error) *CompressionError {
	if errors.Is(err, errBoundExceeded) {
		return &CompressionError{Reason: ReasonBufferTooSmall, Cause: err}
	}
	return &CompressionError{Reason: ReasonOutOfMemory, Cause: err}
}

// Write stores the artifact at path. The bytes go to a temporary sibling
// that is renamed into place once complete.
func (e *Encoder) Write(path string, a *Artifact) error {
	dir := filepath.Dir(path)
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return common.NewConversionError(common.ErrCodeWrite, path, "cannot create output directory", err)
	}

	tmp, err := afero.TempFile(e.fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return common.NewConversionError(common.ErrCodeWrite, path, "cannot open output file", err)
	}
	tmpName := tmp.Name()

	_, err = bytes.NewReader(a.marshal(e.opts.HostOrder)).WriteTo(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = e.commit(tmpName, path)
	}
	if err != nil {
		_ = e.fs.Remove(tmpName)
		var ce *common.ConversionError
		if errors.As(err, &ce) {
			return err
		}
		return common.NewConversionError(common.ErrCodeWrite, path, "cannot write output file", err)
	}

	e.logger.Debug("Wrote CFS file", logging.Fields{
		"file":       path,
		"size_bytes": a.Size(),
		"epochs":     a.Header.Epochs,
	})
	return nil
}

// commit renames the finished temporary file onto path. Without overwrite
// a target that appeared since CheckTarget is left untouched.
func (e *Encoder) commit(tmpName, path string) error {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	if err := e.CheckTarget(path); err != nil {
		return err
	}
	return e.fs.Rename(tmpName, path)
}

// EncodeFile checks the target, encodes the payload and writes it
func (e *Encoder) EncodeFile(path string, values []float64, epochs int) (*Artifact, error) {
	if err := e.CheckTarget(path); err != nil {
		return nil, err
	}
	a, err := e.Encode(path, values, epochs)
	if err != nil {
		return nil, err
	}
	if err := e.Write(path, a); err != nil {
		return nil, err
	}
	return a, nil
}
