package sqlite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// VectorFormatV1 is the only vector encoding currently written.
//
// Layout: byte 0 is the format version, bytes 1-4 the dimension as a
// little-endian uint32, then one little-endian IEEE-754 float32 per
// component.
const VectorFormatV1 byte = 1

const vectorHeaderLen = 5

// ErrInvalidVector indicates a stored embedding blob that cannot be decoded.
var ErrInvalidVector = errors.New("invalid vector encoding")

// EncodeVector encodes v in the current vector format.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, vectorHeaderLen+len(v)*4)
	buf[0] = VectorFormatV1
	binary.LittleEndian.PutUint32(buf[1:vectorHeaderLen], uint32(len(v)))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[vectorHeaderLen+i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector decodes a blob written by EncodeVector.
// Unknown versions and blobs whose length disagrees with the declared
// dimension fail with ErrInvalidVector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data) < vectorHeaderLen {
		return nil, fmt.Errorf("%w: %d byte blob is shorter than the header", ErrInvalidVector, len(data))
	}
	if data[0] != VectorFormatV1 {
		return nil, fmt.Errorf("%w: unknown format version %d", ErrInvalidVector, data[0])
	}

	dims := int(binary.LittleEndian.Uint32(data[1:vectorHeaderLen]))
	body := data[vectorHeaderLen:]
	if len(body) != dims*4 {
		return nil, fmt.Errorf("%w: header declares %d dimensions, body holds %d bytes",
			ErrInvalidVector, dims, len(body))
	}

	v := make([]float32, dims)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return v, nil
}
