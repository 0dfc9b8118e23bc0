package gribcollection_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdifrance/gribcollection"
	"github.com/sdifrance/gribcollection/collection"
	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/grib1/grib1test"
	"github.com/sdifrance/gribcollection/gribindex"
)

var gds = grib1test.LatLonGDS(3, 2, 1, 0, 0, 2, 1, 1, 0)

func field(param, p1 int, base float64) grib1test.Message {
	values := make([]float64, 6)
	for i := range values {
		values[i] = base + float64(i)
	}
	return grib1test.Message{
		Param: param, P1: p1, Unit: grib1.UnitOfTimeHour,
		GDS: gds, Values: values, Nbits: 8,
	}
}

func writeFile(t *testing.T, path string, msgs ...grib1test.Message) {
	t.Helper()
	var b []byte
	b = append(b, "HEADER\r\r\n"...)
	for _, m := range msgs {
		b = append(b, m.Bytes()...)
	}
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

// setup writes a collection with temperature at hours 0 and 12 and
// humidity at hours 0, 6 and 12, spread over two files.
func setup(t *testing.T) (*collection.Dir, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.grb"), field(11, 0, 100), field(52, 0, 10), field(52, 6, 20))
	writeFile(t, filepath.Join(dir, "b.grb"), field(11, 12, 200), field(52, 12, 30))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("not grib"), 0o644))
	return &collection.Dir{CollectionName: "test", Root: dir, Pattern: "*.grb"}, filepath.Join(dir, "test.ncx")
}

func assertNaN(t *testing.T, vs []float32) {
	t.Helper()
	for i, v := range vs {
		assert.True(t, math.IsNaN(float64(v)), "value %d = %v", i, v)
	}
}

func TestBuildAndRead(t *testing.T) {
	ctx := context.Background()
	coll, indexPath := setup(t)

	c, report, err := gribcollection.Build(ctx, coll, indexPath, gribcollection.DefaultBuildOptions())
	require.NoError(t, err)
	assert.Len(t, report.Files, 2)
	assert.Equal(t, 5, report.Scan.Messages)
	assert.Equal(t, 2, report.Stats.Variables)
	assert.Equal(t, 1, report.Stats.Missing)
	require.Len(t, c.Groups, 1)

	d, err := gribcollection.Open(indexPath)
	require.NoError(t, err)
	defer d.Close()

	g, v, err := d.Variable("LatLon_2X3", "TMP_isobaric")
	require.NoError(t, err)
	a, err := d.ReadSlice(g, v, gribcollection.All, gribcollection.All, gribcollection.All, gribcollection.All, gribcollection.All)
	require.NoError(t, err)
	assert.Equal(t, [5]int{3, 1, 1, 2, 3}, a.Shape)
	assert.Equal(t, []float32{100, 101, 102, 103, 104, 105}, a.Data[0:6])
	assertNaN(t, a.Data[6:12])
	assert.Equal(t, []float32{200, 201, 202, 203, 204, 205}, a.Data[12:18])
	assert.Equal(t, float32(204), a.At(2, 0, 0, 1, 1))

	g, v, err = d.Variable("LatLon_2X3", "RH_isobaric")
	require.NoError(t, err)
	a, err = d.ReadSlice(g, v, gribcollection.Range{1, 3}, gribcollection.All, gribcollection.All,
		gribcollection.Range{1, 2}, gribcollection.Range{0, 2})
	require.NoError(t, err)
	assert.Equal(t, [5]int{2, 1, 1, 1, 2}, a.Shape)
	assert.Equal(t, []float32{23, 24, 33, 34}, a.Data)

	_, err = d.ReadSlice(g, v, gribcollection.Range{0, 4}, gribcollection.All, gribcollection.All, gribcollection.All, gribcollection.All)
	assert.Error(t, err)
	_, _, err = d.Variable("LatLon_2X3", "nope")
	assert.Error(t, err)
}

func TestReadSliceDamagedRecordIsMissing(t *testing.T) {
	ctx := context.Background()
	coll, indexPath := setup(t)
	_, _, err := gribcollection.Build(ctx, coll, indexPath, gribcollection.DefaultBuildOptions())
	require.NoError(t, err)

	// Overwrite the second file's first message after indexing.
	path := filepath.Join(coll.Root, "b.grb")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(b[len("HEADER\r\r\n"):], "XXXX")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	d, err := gribcollection.Open(indexPath)
	require.NoError(t, err)
	defer d.Close()
	g, v, err := d.Variable("LatLon_2X3", "TMP_isobaric")
	require.NoError(t, err)
	a, err := d.ReadSlice(g, v, gribcollection.All, gribcollection.All, gribcollection.All, gribcollection.All, gribcollection.All)
	require.NoError(t, err)
	assert.Equal(t, float32(100), a.Data[0])
	assertNaN(t, a.Data[12:18])
}

func TestNeedsRebuild(t *testing.T) {
	ctx := context.Background()
	coll, indexPath := setup(t)

	stale, err := gribcollection.NeedsRebuild(ctx, indexPath, coll)
	require.NoError(t, err)
	assert.True(t, stale, "missing index")

	d, err := gribcollection.Update(ctx, coll, indexPath, gribcollection.DefaultBuildOptions())
	require.NoError(t, err)
	d.Close()

	stale, err = gribcollection.NeedsRebuild(ctx, indexPath, coll)
	require.NoError(t, err)
	assert.False(t, stale)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(coll.Root, "a.grb"), later, later))
	stale, err = gribcollection.NeedsRebuild(ctx, indexPath, coll)
	require.NoError(t, err)
	assert.True(t, stale, "modified file")

	writeFile(t, filepath.Join(coll.Root, "c.grb"), field(11, 18, 300))
	require.NoError(t, os.Chtimes(filepath.Join(coll.Root, "a.grb"), time.Unix(0, 0), time.Unix(0, 0)))
	stale, err = gribcollection.NeedsRebuild(ctx, indexPath, coll)
	require.NoError(t, err)
	assert.True(t, stale, "new file")

	require.NoError(t, os.WriteFile(indexPath, []byte("Grib1PartitionIndex...."), 0o644))
	stale, err = gribcollection.NeedsRebuild(ctx, indexPath, coll)
	require.NoError(t, err)
	assert.True(t, stale, "partitioned index")
}

func TestRebuildProducesSameBlob(t *testing.T) {
	ctx := context.Background()
	coll, indexPath := setup(t)
	blob := func() []byte {
		_, _, err := gribcollection.Build(ctx, coll, indexPath, gribcollection.DefaultBuildOptions())
		require.NoError(t, err)
		idx, err := gribindex.Open(indexPath)
		require.NoError(t, err)
		defer idx.Close()
		b, err := idx.Blob()
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, blob(), blob())
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	_, _, err := gribcollection.Build(ctx, &collection.Dir{Root: dir}, filepath.Join(dir, "x.ncx"), gribcollection.DefaultBuildOptions())
	assert.ErrorIs(t, err, gribcollection.ErrNoFiles)

	bad := field(11, 0, 1)
	bad.TRI = 99
	writeFile(t, filepath.Join(dir, "bad.grb"), bad)
	indexPath := filepath.Join(dir, "x.ncx")
	_, _, err = gribcollection.Build(ctx, &collection.Dir{Root: dir}, indexPath, gribcollection.DefaultBuildOptions())
	assert.ErrorIs(t, err, grib1.ErrUnsupported)
	_, statErr := os.Stat(indexPath)
	assert.True(t, os.IsNotExist(statErr))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = gribcollection.Build(cancelled, &collection.Dir{Root: dir}, indexPath, gribcollection.DefaultBuildOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadThinGrid(t *testing.T) {
	dir := t.TempDir()
	m := grib1test.Message{
		GDS:    grib1test.ThinLatLonGDS([]int{2, 4}, 1, 0, 0, 3, 1, 0),
		Values: []float64{1, 4, 1, 2, 3, 4},
		Nbits:  8,
	}
	writeFile(t, filepath.Join(dir, "thin.grb"), m)
	coll := &collection.Dir{CollectionName: "thin", Root: dir, Pattern: "*.grb"}
	indexPath := filepath.Join(dir, "thin.ncx")
	c, _, err := gribcollection.Build(context.Background(), coll, indexPath, gribcollection.DefaultBuildOptions())
	require.NoError(t, err)
	group := c.Groups[0].Name

	for _, tc := range []struct {
		interp grib1.Interpolation
		want   []float32
	}{
		{grib1.InterpolationLinear, []float32{1, 2, 3, 4, 1, 2, 3, 4}},
		{grib1.InterpolationNearest, []float32{1, 1, 4, 4, 1, 2, 3, 4}},
	} {
		t.Run(tc.interp.String(), func(t *testing.T) {
			d, err := gribcollection.Open(indexPath, gribcollection.WithInterpolation(tc.interp))
			require.NoError(t, err)
			defer d.Close()
			g, v, err := d.Variable(group, "TMP_isobaric")
			require.NoError(t, err)
			a, err := d.ReadSlice(g, v, gribcollection.All, gribcollection.All, gribcollection.All, gribcollection.All, gribcollection.All)
			require.NoError(t, err)
			assert.Equal(t, [5]int{1, 1, 1, 2, 4}, a.Shape)
			assert.Equal(t, tc.want, a.Data)
		})
	}
}
