package cfs

import (
	"encoding/binary"
	"math"
)

// HostOrder is the byte order of the running machine
var HostOrder = detectHostOrder()

func detectHostOrder() binary.ByteOrder {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 1)
	if probe[0] == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func isBigEndian(order binary.ByteOrder) bool {
	return order.Uint16([]byte{0, 1}) == 1
}

// reverseChunks reverses the bytes of every size-byte chunk of b in place
func reverseChunks(b []byte, size int) {
	for i := 0; i+size <= len(b); i += size {
		chunk := b[i : i+size]
		for l, r := 0, size-1; l < r; l, r = l+1, r-1 {
			chunk[l], chunk[r] = chunk[r], chunk[l]
		}
	}
}

// toLittleEndian converts host-ordered size-byte values in b to little-endian
func toLittleEndian(b []byte, size int, host binary.ByteOrder) {
	if isBigEndian(host) {
		reverseChunks(b, size)
	}
}

// marshalFloats narrows values to float32 and returns them as little-endian
// bytes. The values are first laid out in host order.
func marshalFloats(values []float64, host binary.ByteOrder) []byte {
	b := make([]byte, len(values)*bytesPerSample)
	for i, v := range values {
		host.PutUint32(b[i*bytesPerSample:], math.Float32bits(float32(v)))
	}
	toLittleEndian(b, bytesPerSample, host)
	return b
}

// unmarshalFloats widens little-endian float32 bytes
func unmarshalFloats(b []byte) []float32 {
	out := make([]float32, len(b)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*bytesPerSample:]))
	}
	return out
}
