package cfs

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/RyanBlaney/edf2cfs/pkg/common"
	"github.com/klauspost/compress/zlib"
	"github.com/spf13/afero"
)

// Decoded is a verified CFS file
type Decoded struct {
	Header         Header    `json:"header"`
	Digest         string    `json:"digest"`
	CompressedSize int       `json:"compressed_size"`
	Values         []float32 `json:"-"`
}

// Decode parses and verifies the contents of a CFS file
func Decode(b []byte) (*Decoded, error) {
	hdr, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if len(b) < PrefixSize {
		return nil, fmt.Errorf("file too short for digest: %d bytes", len(b))
	}
	if !hdr.Compressed {
		return nil, fmt.Errorf("uncompressed payloads are not supported")
	}

	var digest [DigestSize]byte
	copy(digest[:], b[HeaderSize:PrefixSize])

	zr, err := zlib.NewReader(bytes.NewReader(b[PrefixSize:]))
	if err != nil {
		return nil, fmt.Errorf("opening payload: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflating payload: %w", err)
	}

	want := hdr.PayloadValues() * bytesPerSample
	if len(raw) != want {
		return nil, fmt.Errorf("payload is %d bytes, header announces %d", len(raw), want)
	}

	if hdr.Hashed && sha1.Sum(raw) != digest {
		return nil, common.NewConversionError(common.ErrCodeDigest, "", "payload digest mismatch", nil)
	}

	return &Decoded{
		Header:         hdr,
		Digest:         fmt.Sprintf("%x", digest),
		CompressedSize: len(b) - PrefixSize,
		Values:         unmarshalFloats(raw),
	}, nil
}

// DecodeFile reads and verifies the CFS file at path
func DecodeFile(fs afero.Fs, path string) (*Decoded, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	d, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
