package airpose

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// Float16ToFloat64 converts half precision values, as output by accelerators
// running the feature backbone, to float64
func Float16ToFloat64(bits []uint16) []float64 {

	out := make([]float64, len(bits))

	for i, b := range bits {
		out[i] = float64(f16LookupTable[b])
	}

	return out
}

// DecodeFloat16 converts a little endian buffer of half precision values to
// float64
func DecodeFloat16(buf []byte) ([]float64, error) {

	if len(buf)%2 != 0 {
		return nil, errors.Errorf("float16 buffer has odd length %d", len(buf))
	}

	bits := make([]uint16, len(buf)/2)

	for i := range bits {
		bits[i] = binary.LittleEndian.Uint16(buf[2*i:])
	}

	return Float16ToFloat64(bits), nil
}
