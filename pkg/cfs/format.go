package cfs

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/RyanBlaney/edf2cfs/pkg/spectrogram"
)

// CFS layout: an 11-byte header, the SHA-1 of the uncompressed payload,
// then the zlib-compressed little-endian float32 payload.
const (
	Signature      = "CFS"
	FormatVersion  = 1
	HeaderSize     = 11
	DigestSize     = sha1.Size
	PrefixSize     = HeaderSize + DigestSize
	MaxEpochs      = math.MaxUint16
	Extension      = ".cfs"
	bytesPerSample = 4
)

// Header is the fixed CFS header
type Header struct {
	Version    uint8  `json:"version"`
	Width      uint8  `json:"width"`
	Height     uint8  `json:"height"`
	Channels   uint8  `json:"channels"`
	Epochs     uint16 `json:"epochs"`
	Compressed bool   `json:"compressed"`
	Hashed     bool   `json:"hashed"`
}

// NewHeader builds the header for a payload with the given geometry and epoch count
func NewHeader(geo spectrogram.Geometry, epochs int) (Header, error) {
	if epochs < 0 || epochs > MaxEpochs {
		return Header{}, fmt.Errorf("epoch count %d does not fit in 16 bits", epochs)
	}
	if geo.FreqBins > math.MaxUint8 || geo.TimeBins > math.MaxUint8 || geo.Channels > math.MaxUint8 {
		return Header{}, fmt.Errorf("geometry %dx%dx%d does not fit the header", geo.Channels, geo.TimeBins, geo.FreqBins)
	}
	return Header{
		Version:    FormatVersion,
		Width:      uint8(geo.FreqBins),
		Height:     uint8(geo.TimeBins),
		Channels:   uint8(geo.Channels),
		Epochs:     uint16(epochs),
		Compressed: true,
		Hashed:     true,
	}, nil
}

// PayloadValues is the number of float32 values the header announces
func (h Header) PayloadValues() int {
	return int(h.Epochs) * int(h.Channels) * int(h.Height) * int(h.Width)
}

// appendTo serializes the header. The epoch count is laid out as the host
// would store it and then brought to little-endian.
func (h Header) appendTo(dst []byte, host binary.ByteOrder) []byte {
	b := make([]byte, HeaderSize)
	copy(b, Signature)
	b[3] = h.Version
	b[4] = h.Width
	b[5] = h.Height
	b[6] = h.Channels
	host.PutUint16(b[7:9], h.Epochs)
	toLittleEndian(b[7:9], 2, host)
	b[9] = boolByte(h.Compressed)
	b[10] = boolByte(h.Hashed)
	return append(dst, b...)
}

// ParseHeader decodes the first HeaderSize bytes of b
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header too short: %d bytes", len(b))
	}
	if string(b[:3]) != Signature {
		return Header{}, fmt.Errorf("bad signature %q", b[:3])
	}
	h := Header{
		Version:    b[3],
		Width:      b[4],
		Height:     b[5],
		Channels:   b[6],
		Epochs:     binary.LittleEndian.Uint16(b[7:9]),
		Compressed: b[9] != 0,
		Hashed:     b[10] != 0,
	}
	if h.Version != FormatVersion {
		return h, fmt.Errorf("unsupported version %d", h.Version)
	}
	return h, nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
