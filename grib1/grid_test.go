package grib1_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/grib1/grib1test"
)

func decodeGrid(t *testing.T, raw []byte) grib1.GridDescriptor {
	t.Helper()
	gd, err := grib1.ParseGridDefinition(raw)
	require.NoError(t, err)
	g, err := gd.EnsureDecoded()
	require.NoError(t, err)
	return g
}

func TestLatLonHorizCoordSys(t *testing.T) {
	g := decodeGrid(t, grib1test.LatLonGDS(3, 2, 10, 2, 9, 0, 1, 1, 0x80))
	kind, err := grib1.GridKind(g)
	require.NoError(t, err)
	assert.Equal(t, "LatLon", kind)

	hcs, err := g.HorizCoordSys()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, hcs.X())
	assert.Equal(t, []float64{10, 9}, hcs.Y())
	assert.Equal(t, "degrees_east", hcs.XUnits)
}

func TestLatLonPoints(t *testing.T) {
	g := decodeGrid(t, grib1test.LatLonGDS(2, 2, 1, 0, 0, 1, 1, 1, 0)).(*grib1.LatLonGrid)
	pts := g.Points()
	require.Len(t, pts, 4)
	assert.Equal(t, grib1.NewLatLng(1, 0), pts[0])
	assert.Equal(t, grib1.NewLatLng(1, 1), pts[1])
	assert.Equal(t, grib1.NewLatLng(0, 0), pts[2])
}

func TestGridEqual(t *testing.T) {
	a := decodeGrid(t, grib1test.LatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0))
	b := decodeGrid(t, grib1test.LatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0))
	c := decodeGrid(t, grib1test.LatLonGDS(4, 2, 10, 0, 9, 3, 1, 1, 0))
	d := decodeGrid(t, grib1test.RotatedLatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0, -40, 10, 0))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.True(t, d.Equal(d))
}

func TestGridDefinitionHash(t *testing.T) {
	a, err := grib1.ParseGridDefinition(grib1test.LatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0))
	require.NoError(t, err)
	b, err := grib1.ParseGridDefinition(grib1test.LatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0))
	require.NoError(t, err)
	c, err := grib1.ParseGridDefinition(grib1test.LatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0x40))
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Equal(t, grib1.NewPredefinedGridDefinition(7, 3).Hash(), grib1.NewPredefinedGridDefinition(7, 3).Hash())
	assert.NotEqual(t, grib1.NewPredefinedGridDefinition(7, 3).Hash(), grib1.NewPredefinedGridDefinition(7, 4).Hash())
}

func TestGaussianLatitudes(t *testing.T) {
	lats := grib1.GaussianLatitudes(2)
	require.Len(t, lats, 4)
	assert.InDelta(t, -59.444, lats[0], 1e-3)
	assert.InDelta(t, -19.876, lats[1], 1e-3)
	assert.InDelta(t, -lats[0], lats[3], 1e-9)
	assert.InDelta(t, -lats[1], lats[2], 1e-9)

	g := decodeGrid(t, grib1test.GaussianGDS(8, 4, 2, 59.444, 0, -59.444, 315, 45, 0))
	hcs, err := g.HorizCoordSys()
	require.NoError(t, err)
	require.Len(t, hcs.Y(), 4)
	assert.InDelta(t, 59.444, hcs.Y()[0], 1e-3)
	assert.InDelta(t, -59.444, hcs.Y()[3], 1e-3)
	assert.Equal(t, []float64{0, 45, 90, 135, 180, 225, 270, 315}, hcs.X())
}

func TestPolarStereographicOrigin(t *testing.T) {
	g := decodeGrid(t, grib1test.PolarStereographicGDS(2, 2, 60, -105, -105, 10000, 10000, false, 0x40))
	hcs, err := g.HorizCoordSys()
	require.NoError(t, err)
	assert.InDelta(t, 0, hcs.StartX, 1e-6)
	assert.InDelta(t, -grib1.EarthRadius/2000, hcs.StartY, 1e-3)
	assert.Equal(t, 10.0, hcs.DX)
	assert.Equal(t, 10.0, hcs.DY)
	assert.Contains(t, hcs.Proj4, "+proj=stere")
}

func TestPolarStereographicOblateEarth(t *testing.T) {
	raw := grib1test.PolarStereographicGDS(2, 2, 60, -105, -105, 10000, 10000, false, 0x40)
	raw[16] |= 0x40
	hcs, err := decodeGrid(t, raw).HorizCoordSys()
	require.NoError(t, err)

	const a, b = 6378160.0, 6356775.0
	e2 := 1 - b*b/(a*a)
	// At the true scale latitude rho is a*m(60).
	want := a / 1000 * 0.5 / math.Sqrt(1-e2*0.75)
	assert.InDelta(t, 0, hcs.StartX, 1e-6)
	assert.InDelta(t, -want, hcs.StartY, 1e-3)
	assert.Contains(t, hcs.Proj4, "+a=6.37816e+06")

	south := grib1test.PolarStereographicGDS(2, 2, -60, -105, -105, 10000, 10000, true, 0x40)
	south[16] |= 0x40
	hcs, err = decodeGrid(t, south).HorizCoordSys()
	require.NoError(t, err)
	assert.InDelta(t, want, hcs.StartY, 1e-3)
}

func TestLambertOrigin(t *testing.T) {
	g := decodeGrid(t, grib1test.LambertGDS(3, 2, 40, -100, -100, 3000, 3000, 40, 40, 0x40))
	hcs, err := g.HorizCoordSys()
	require.NoError(t, err)
	assert.InDelta(t, 0, hcs.StartX, 1e-3)
	assert.InDelta(t, 0, hcs.StartY, 1e-3)
	assert.Equal(t, 3.0, hcs.DX)
	assert.Equal(t, "km", hcs.XUnits)
}

func TestMercatorOrigin(t *testing.T) {
	g := decodeGrid(t, grib1test.MercatorGDS(3, 3, 0, 20, 1, 22, 0, 5000, 5000, 0x40))
	hcs, err := g.HorizCoordSys()
	require.NoError(t, err)
	assert.InDelta(t, 0, hcs.StartX, 1e-3)
	assert.InDelta(t, 0, hcs.StartY, 1e-3)
	assert.Equal(t, 5.0, hcs.DY)
}

func TestRotatedLatLon(t *testing.T) {
	g := decodeGrid(t, grib1test.RotatedLatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0, -40, 10, 0))
	hcs, err := g.HorizCoordSys()
	require.NoError(t, err)
	assert.Equal(t, -40.0, hcs.SouthPoleLat)
	assert.Equal(t, 10.0, hcs.SouthPoleLon)
	assert.Equal(t, "RotatedLatLon", hcs.Kind)
}

func TestUnsupportedTemplate(t *testing.T) {
	raw := grib1test.LatLonGDS(3, 2, 10, 0, 9, 2, 1, 1, 0)
	raw[5] = byte(grib1.DataRepresentationTypeSH)
	gd, err := grib1.ParseGridDefinition(raw)
	require.NoError(t, err)
	_, err = gd.Decode()
	assert.True(t, errors.Is(err, grib1.ErrUnsupported))
}

func TestPredefinedThinGrids(t *testing.T) {
	north, err := grib1.PredefinedGrid(7, 37)
	require.NoError(t, err)
	south, err := grib1.PredefinedGrid(7, 41)
	require.NoError(t, err)
	nx, ny := north.Shape()
	assert.Equal(t, 73, nx)
	assert.Equal(t, 73, ny)
	assert.Equal(t, 73, north.Rows()[0])
	assert.Equal(t, 2, south.Rows()[0])
	assert.Equal(t, north.NumPoints(), south.NumPoints())
}
