package hexademicalfloatingpoint

import (
	"math"
	"testing"
)

func TestParse32(t *testing.T) {
	for _, tt := range []struct {
		hdf  []byte // ibm format
		want float64
	}{
		// {
		// 	[]byte{0b1000_0000 | (64*4 - 24), 0, 0, 5},
		// 	-5,
		// },
		{
			// example from https://en.wikipedia.org/wiki/IBM_hexadecimal_floating-point
			[]byte{0b1100_0010, 0b0111_0110, 0b1010_0000, 0b0000_0000},
			-118.625,
		},
		{
			// example from https://en.wikipedia.org/wiki/IBM_hexadecimal_floating-point
			[]byte{0b1100_0010, 0b0111_0110, 0b1010_0000, 0b0000_0000},
			-118.625,
		},
		{
			// example from https://en.wikipedia.org/wiki/IBM_hexadecimal_floating-point
			[]byte{0, 0, 0, 0},
			0,
		},
	} {
		got := Parse32(tt.hdf)
		if got != tt.want {
			t.Errorf("decoded %f, wanted %f (delta = %f)", got, tt.want, got-tt.want)
		}
	}
}

func TestEncode32(t *testing.T) {
	for _, tt := range []struct {
		value float64
		want  []byte
	}{
		{-118.625, []byte{0b1100_0010, 0b0111_0110, 0b1010_0000, 0b0000_0000}},
		{0, []byte{0, 0, 0, 0}},
		{1, []byte{0x41, 0x10, 0, 0}},
	} {
		got := Encode32(tt.value)
		if string(got) != string(tt.want) {
			t.Errorf("Encode32(%g) = %08b, want %08b", tt.value, got, tt.want)
		}
		if back := Parse32(got); back != tt.value {
			t.Errorf("Parse32(Encode32(%g)) = %g", tt.value, back)
		}
	}
}

func TestEncode32Precision(t *testing.T) {
	for _, v := range []float64{273.15, -0.001, 101325, 1e-5} {
		got := Parse32(Encode32(v))
		if d := math.Abs(got-v) / math.Abs(v); d > 1e-6 {
			t.Errorf("Parse32(Encode32(%g)) = %g, relative error %g", v, got, d)
		}
	}
}
