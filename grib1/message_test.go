package grib1_test

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/grib1/grib1test"
)

func TestDecodeSimplePacking(t *testing.T) {
	msg := grib1test.Message{
		GDS:    grib1test.LatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0),
		Values: []float64{1, 2, 3, 4, 5, 6},
		Nbits:  8,
		Ref:    time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		P1:     6,
	}
	m, err := grib1.Decode(msg.Bytes())
	require.NoError(t, err)

	pds := m.ProductDefinition()
	assert.Equal(t, 7, pds.Center())
	assert.Equal(t, 11, pds.Parameter())
	assert.Equal(t, 100, pds.LevelType())
	assert.Equal(t, time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC), pds.ReferenceTime())
	v1, _ := pds.LevelValues()
	assert.Equal(t, 500.0, v1)

	data, err := m.Data(grib1.InterpolationNone)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, data)
}

func TestDecodeDecimalAndBinaryScale(t *testing.T) {
	msg := grib1test.Message{
		GDS:          grib1test.LatLonGDS(2, 2, 1, 0, 0, 1, 1, 1, 0),
		Values:       []float64{-1.5, 0, 2.25, 10},
		DecimalScale: 2,
		BinaryScale:  -1,
		Nbits:        16,
	}
	m, err := grib1.Decode(msg.Bytes())
	require.NoError(t, err)
	data, err := m.Data(grib1.InterpolationNone)
	require.NoError(t, err)
	for i, want := range []float32{-1.5, 0, 2.25, 10} {
		assert.InDelta(t, want, data[i], 1e-4, "value %d", i)
	}
}

func TestDecodeConstantField(t *testing.T) {
	msg := grib1test.Message{
		GDS:    grib1test.LatLonGDS(2, 2, 1, 0, 0, 1, 1, 1, 0),
		Values: []float64{273},
		Nbits:  0,
	}
	m, err := grib1.Decode(msg.Bytes())
	require.NoError(t, err)
	data, err := m.Data(grib1.InterpolationNone)
	require.NoError(t, err)
	assert.Equal(t, []float32{273, 273, 273, 273}, data)
}

func TestDecodeBitmap(t *testing.T) {
	msg := grib1test.Message{
		GDS:    grib1test.LatLonGDS(3, 1, 0, 0, 0, 2, 1, 1, 0),
		Bitmap: []bool{true, false, true},
		Values: []float64{7, 9},
		Nbits:  4,
	}
	m, err := grib1.Decode(msg.Bytes())
	require.NoError(t, err)
	require.NotNil(t, m.Bitmap())
	data, err := m.Data(grib1.InterpolationNone)
	require.NoError(t, err)
	assert.Equal(t, float32(7), data[0])
	assert.True(t, math.IsNaN(float64(data[1])))
	assert.Equal(t, float32(9), data[2])
}

func TestDataScanModeCorrection(t *testing.T) {
	const (
		minusI     grib1.ScanMode = 0x80
		jConsec    grib1.ScanMode = 0x20
		minusIJCon                = minusI | jConsec
	)
	tests := []struct {
		name   string
		scan   grib1.ScanMode
		values []float64
		want   []float32
	}{
		{"row major", 0, []float64{1, 2, 3, 4, 5, 6}, []float32{1, 2, 3, 4, 5, 6}},
		{"mirrored rows", minusI, []float64{3, 2, 1, 6, 5, 4}, []float32{1, 2, 3, 4, 5, 6}},
		{"column major", jConsec, []float64{1, 4, 2, 5, 3, 6}, []float32{1, 2, 3, 4, 5, 6}},
		{"column major mirrored", minusIJCon, []float64{3, 6, 2, 5, 1, 4}, []float32{1, 2, 3, 4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := grib1test.Message{
				GDS:    grib1test.LatLonGDS(3, 2, 1, 0, 0, 2, 1, 1, tt.scan),
				Values: tt.values,
				Nbits:  8,
			}
			m, err := grib1.Decode(msg.Bytes())
			require.NoError(t, err)
			data, err := m.Data(grib1.InterpolationNone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, data)
		})
	}
}

func TestDecodeThinGrid(t *testing.T) {
	msg := grib1test.Message{
		GDS:    grib1test.ThinLatLonGDS([]int{3, 2}, 0, 0, 1, 2, 1, 0x40),
		Values: []float64{1, 2, 3, 10, 20},
		Nbits:  8,
	}
	m, err := grib1.Decode(msg.Bytes())
	require.NoError(t, err)

	g, err := m.GridDefinition().EnsureDecoded()
	require.NoError(t, err)
	nx, ny := g.Shape()
	assert.Equal(t, 3, nx)
	assert.Equal(t, 2, ny)
	assert.Equal(t, []int{3, 2}, g.Rows())
	assert.Equal(t, "LatLon_2X3-thin", grib1.GridName(g))

	data, err := m.Data(grib1.InterpolationLinear)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 10, 15, 20}, data)

	data, err = m.Data(grib1.InterpolationNone)
	require.NoError(t, err)
	assert.Equal(t, float32(20), data[4])
	assert.True(t, math.IsNaN(float64(data[5])))
}

func TestDecodeBadTrailer(t *testing.T) {
	b := grib1test.Message{
		GDS:    grib1test.LatLonGDS(1, 1, 0, 0, 0, 0, 1, 1, 0),
		Values: []float64{1},
		Nbits:  8,
	}.Bytes()
	copy(b[len(b)-4:], "7778")
	_, err := grib1.Decode(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, grib1.ErrCorrupt))
}

func TestDecodeLargeMessage(t *testing.T) {
	b := grib1test.MarkLarge(grib1test.Message{
		GDS:    grib1test.LatLonGDS(2, 1, 0, 0, 0, 1, 1, 1, 0),
		Values: []float64{4, 5},
		Nbits:  8,
	}.Bytes())
	m, err := grib1.Decode(b)
	require.NoError(t, err)
	assert.True(t, m.Indicator().Large())
	data, err := m.Data(grib1.InterpolationNone)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5}, data)

	_, _, err = grib1.Read1(b)
	assert.True(t, errors.Is(err, grib1.ErrUnsupported))
}

func TestReadSkipsZeroPadding(t *testing.T) {
	one := grib1test.Message{
		GDS:    grib1test.LatLonGDS(1, 1, 0, 0, 0, 0, 1, 1, 0),
		Values: []float64{1},
		Nbits:  8,
	}.Bytes()
	var file []byte
	file = append(file, 0, 0, 0)
	file = append(file, one...)
	file = append(file, 0, 0)
	file = append(file, one...)

	msgs, err := grib1.Read(file)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestPredefinedGridMessage(t *testing.T) {
	b := grib1test.Message{GridNumber: 2, Values: []float64{1}}.Bytes()
	m, err := grib1.Decode(b)
	require.NoError(t, err)
	gd := m.GridDefinition()
	require.True(t, gd.IsPredefined())
	g, err := gd.EnsureDecoded()
	require.NoError(t, err)
	nx, ny := g.Shape()
	assert.Equal(t, 144, nx)
	assert.Equal(t, 73, ny)

	_, err = grib1.NewPredefinedGridDefinition(7, 250).Decode()
	assert.True(t, errors.Is(err, grib1.ErrUnsupported))
}

func TestEnsembleExtension(t *testing.T) {
	for _, center := range []int{7, 98} {
		b := grib1test.Message{
			Center:   center,
			GDS:      grib1test.LatLonGDS(1, 1, 0, 0, 0, 0, 1, 1, 0),
			Values:   []float64{1},
			Ensemble: &grib1.EnsembleMember{Type: 3, Number: 12},
		}.Bytes()
		m, err := grib1.Decode(b)
		require.NoError(t, err)
		e, ok := m.ProductDefinition().Ensemble()
		require.True(t, ok, "center %d", center)
		assert.Equal(t, grib1.EnsembleMember{Type: 3, Number: 12}, e)
	}
}
