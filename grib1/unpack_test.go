package grib1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ibmTen is 10.0 as an IBM single precision float.
var ibmTen = []byte{0x41, 0xA0, 0x00, 0x00}

func testBDS(t *testing.T, ref []byte, binaryScale, nbits int, packed ...byte) *BinaryDataSection {
	t.Helper()
	raw := []byte{0, 0, byte(BDSHeaderLength + len(packed)), 0, byte(binaryScale >> 8), byte(binaryScale)}
	raw = append(raw, ref...)
	raw = append(raw, byte(nbits))
	raw = append(raw, packed...)
	s := &BinaryDataSection{}
	_, err := s.parseBytes(raw, false)
	require.NoError(t, err)
	return s
}

func testBitmap(t *testing.T, unused int, bits ...byte) *Bitmap {
	t.Helper()
	raw := append([]byte{0, 0, byte(6 + len(bits)), byte(unused), 0, 0}, bits...)
	s := &Bitmap{}
	_, err := s.parseBytes(raw)
	require.NoError(t, err)
	return s
}

func testRow(n int) *LatLonGrid {
	return &LatLonGrid{gridShape: gridShape{Nx: n, Ny: 1}}
}

func TestUnpackSimple(t *testing.T) {
	for _, tc := range []struct {
		name         string
		decimalScale int
		binaryScale  int
		nbits        int
		packed       []byte
		want         []float32
	}{
		{name: "R=10 X=5 E=0 D=1", decimalScale: 1, nbits: 8, packed: []byte{5}, want: []float32{1.5}},
		{name: "binary scale", binaryScale: 2, nbits: 8, packed: []byte{0, 3}, want: []float32{10, 22}},
		{name: "constant", nbits: 0, want: []float32{10, 10}},
		{name: "four bits", nbits: 4, packed: []byte{0x1F}, want: []float32{11, 25}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pds := &ProductDefinition{decimalScaleFactor: int32(tc.decimalScale)}
			bds := testBDS(t, ibmTen, tc.binaryScale, tc.nbits, tc.packed...)
			got, err := Unpack(pds, testRow(len(tc.want)), nil, bds, InterpolationNone)
			require.NoError(t, err)
			require.Len(t, got, len(tc.want))
			for i := range tc.want {
				assert.InDelta(t, tc.want[i], got[i], 1e-6, "value %d", i)
			}
		})
	}
}

func TestUnpackFullBitmapMatchesNoBitmap(t *testing.T) {
	pds := &ProductDefinition{}
	bds := testBDS(t, ibmTen, 0, 8, 1, 2, 3)
	grid := testRow(3)

	plain, err := Unpack(pds, grid, nil, bds, InterpolationNone)
	require.NoError(t, err)
	masked, err := Unpack(pds, grid, testBitmap(t, 5, 0xE0), bds, InterpolationNone)
	require.NoError(t, err)
	assert.Equal(t, plain, masked)
	assert.Equal(t, []float32{11, 12, 13}, masked)
}

func TestUnpackShortBitmap(t *testing.T) {
	bds := testBDS(t, ibmTen, 0, 8, make([]byte, 10)...)
	_, err := Unpack(&ProductDefinition{}, testRow(10), testBitmap(t, 0, 0xFF), bds, InterpolationNone)
	assert.ErrorIs(t, err, ErrCorrupt)
}
