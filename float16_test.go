package airpose

import (
	"testing"

	"github.com/x448/float16"
)

func TestDecodeFloat16(t *testing.T) {

	vals := []float32{0, 1, -2.5, 0.0999755859375}
	buf := make([]byte, 0, 2*len(vals))

	for _, v := range vals {
		b := float16.Fromfloat32(v).Bits()
		buf = append(buf, byte(b), byte(b>>8))
	}

	got, err := DecodeFloat16(buf)

	if err != nil {
		t.Fatalf("DecodeFloat16 failed: %v", err)
	}

	for i, v := range vals {
		if got[i] != float64(v) {
			t.Errorf("value %d = %v; want %v", i, got[i], v)
		}
	}

	if _, err := DecodeFloat16(buf[:3]); err == nil {
		t.Error("expected error for odd length buffer")
	}
}
