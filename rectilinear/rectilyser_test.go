package rectilinear

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/grib1/grib1test"
	"github.com/sdifrance/gribcollection/gribio"
)

var testGDS = grib1test.LatLonGDS(2, 2, 1, 0, 0, 1, 1, 1, 0)

func msg(m grib1test.Message) grib1test.Message {
	if m.GDS == nil {
		m.GDS = testGDS
	}
	if m.Values == nil {
		m.Values = []float64{1, 2, 3, 4}
		m.Nbits = 8
	}
	return m
}

func hour(p1 int) grib1test.Message {
	return msg(grib1test.Message{P1: p1, Unit: grib1.UnitOfTimeHour})
}

func readRecords(t *testing.T, msgs ...grib1test.Message) []*gribio.Record {
	t.Helper()
	var file []byte
	for _, m := range msgs {
		file = append(file, msg(m).Bytes()...)
	}
	recs, stats, err := gribio.ReadRecords(context.Background(), bytes.NewReader(file), int64(len(file)), 0, nil)
	require.NoError(t, err)
	require.Equal(t, len(msgs), stats.Messages)
	require.Len(t, recs, len(msgs))
	return recs
}

func build(t *testing.T, opts Options, msgs ...grib1test.Message) (*Collection, Stats) {
	t.Helper()
	c, stats, err := Build("test", []string{"a.grb"}, readRecords(t, msgs...), opts)
	require.NoError(t, err)
	return c, stats
}

func TestBuildForecastHours(t *testing.T) {
	c, stats := build(t, DefaultOptions(), hour(0), hour(6), hour(12))
	require.Len(t, c.Groups, 1)
	g := c.Groups[0]
	assert.Equal(t, "LatLon_2X2", g.Name)
	require.Len(t, g.Variables, 1)
	v := g.Variables[0]
	assert.Equal(t, "TMP_isobaric", v.Name)
	assert.Equal(t, "K", v.Units)

	tc := g.TimeCoords[v.TimeIdx]
	assert.Equal(t, []TimeValue{{0, 0}, {6, 6}, {12, 12}}, tc.Values)
	assert.Equal(t, grib1.UnitOfTimeHour, tc.Unit)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), tc.RefTime)
	require.GreaterOrEqual(t, v.VertIdx, 0)
	assert.Equal(t, []Level{{500, 500}}, g.VertCoords[v.VertIdx].Levels)
	assert.Equal(t, -1, v.EnsIdx)

	require.Len(t, v.Slots, 3)
	for _, s := range v.Slots {
		assert.False(t, s.Missing())
	}
	assert.Equal(t, Stats{Records: 3, Groups: 1, Variables: 1}, stats)
}

func TestBuildMissingHourUsesSharedAxis(t *testing.T) {
	rh := func(p1 int) grib1test.Message {
		m := hour(p1)
		m.Param = 52
		return m
	}
	msgs := []grib1test.Message{hour(0), hour(12), rh(0), rh(6), rh(12)}

	c, stats := build(t, DefaultOptions(), msgs...)
	g := c.Groups[0]
	require.Len(t, g.Variables, 2)
	require.Len(t, g.TimeCoords, 1)
	_, tmp, ok := c.FindVariable(g.Name, "TMP_isobaric")
	require.True(t, ok)
	require.Len(t, tmp.Slots, 3)
	assert.False(t, tmp.Slots[0].Missing())
	assert.True(t, tmp.Slots[1].Missing())
	assert.False(t, tmp.Slots[2].Missing())
	assert.Equal(t, 1, stats.Missing)

	c, _ = build(t, Options{}, msgs...)
	g = c.Groups[0]
	require.Len(t, g.TimeCoords, 2)
	_, tmp, _ = c.FindVariable(g.Name, "TMP_isobaric")
	assert.Equal(t, []TimeValue{{0, 0}, {12, 12}}, g.TimeCoords[tmp.TimeIdx].Values)
	assert.Len(t, tmp.Slots, 2)
}

func TestBuildMissingHourOnlyVariable(t *testing.T) {
	c, _ := build(t, DefaultOptions(), hour(0), hour(12))
	g := c.Groups[0]
	v := g.Variables[0]
	assert.Equal(t, 2, g.TimeCoords[v.TimeIdx].Len())
	assert.Len(t, v.Slots, 2)
}

func TestBuildDistinctSlots(t *testing.T) {
	level := func(p1, hpa int) grib1test.Message {
		m := hour(p1)
		m.Level1, m.Level2 = hpa>>8, hpa&0xFF
		return m
	}
	recs := readRecords(t, level(6, 850), level(0, 500), level(6, 500), level(0, 850))
	c, stats, err := Build("test", nil, recs, DefaultOptions())
	require.NoError(t, err)
	g := c.Groups[0]
	require.Len(t, g.Variables, 1)
	v := g.Variables[0]
	assert.Equal(t, []Level{{500, 500}, {850, 850}}, g.VertCoords[v.VertIdx].Levels)

	want := map[int]int64{
		SlotIndex(1, 0, 1, 1, 2): recs[0].Pos,
		SlotIndex(0, 0, 0, 1, 2): recs[1].Pos,
		SlotIndex(1, 0, 0, 1, 2): recs[2].Pos,
		SlotIndex(0, 0, 1, 1, 2): recs[3].Pos,
	}
	require.Len(t, v.Slots, 4)
	for i, pos := range want {
		assert.Equal(t, pos, v.Slots[i].Pos, "slot %d", i)
	}
	assert.Zero(t, stats.Duplicates)
}

func TestBuildLastWriteWins(t *testing.T) {
	recs := readRecords(t, hour(0), hour(6), hour(6))
	c, stats, err := Build("test", nil, recs, DefaultOptions())
	require.NoError(t, err)
	v := c.Groups[0].Variables[0]
	require.Len(t, v.Slots, 2)
	assert.Equal(t, recs[2].Pos, v.Slots[1].Pos)
	assert.Equal(t, 1, v.Duplicates)
	assert.Equal(t, 3, v.Records)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestBuildIntervalLengthsAreDistinctVariables(t *testing.T) {
	acc := func(p1, p2 int) grib1test.Message {
		return msg(grib1test.Message{Param: 61, LevelType: 1, TRI: 4, Unit: grib1.UnitOfTimeHour, P1: p1, P2: p2})
	}
	c, _ := build(t, DefaultOptions(), acc(0, 6), acc(6, 12), acc(0, 12))
	g := c.Groups[0]
	require.Len(t, g.Variables, 2)
	assert.Equal(t, "APCP_surface_Accumulation12", g.Variables[0].Name)
	assert.Equal(t, "APCP_surface_Accumulation6", g.Variables[1].Name)

	six := g.Variables[1]
	assert.True(t, six.IsInterval)
	assert.Equal(t, 6, six.IntervalSize)
	assert.Equal(t, grib1.StatAccumulation, six.Stat)
	assert.Equal(t, -1, six.VertIdx)
	tc := g.TimeCoords[six.TimeIdx]
	assert.True(t, tc.IsInterval)
	assert.Equal(t, []TimeValue{{0, 6}, {6, 12}}, tc.Values)
}

func TestBuildMixedReferenceTimes(t *testing.T) {
	at := func(ref time.Time, unit grib1.UnitOfTime, p1 int) grib1test.Message {
		return msg(grib1test.Message{Ref: ref, Unit: unit, P1: p1})
	}
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c, _ := build(t, DefaultOptions(),
		at(t0, grib1.UnitOfTimeHour, 6),
		at(t0.Add(12*time.Hour), grib1.UnitOfTimeHour, 6))
	tc := c.Groups[0].TimeCoords[0]
	assert.Equal(t, t0, tc.RefTime)
	assert.Equal(t, grib1.UnitOfTimeHour, tc.Unit)
	assert.Equal(t, []TimeValue{{6, 6}, {18, 18}}, tc.Values)
	assert.False(t, tc.Downgraded)

	c, _ = build(t, DefaultOptions(),
		at(t0, grib1.UnitOfTimeHour, 1),
		at(t0.Add(30*time.Minute), grib1.UnitOfTimeHour, 0))
	tc = c.Groups[0].TimeCoords[0]
	assert.Equal(t, grib1.UnitOfTime30Minutes, tc.Unit)
	assert.Equal(t, []TimeValue{{1, 1}, {2, 2}}, tc.Values)
	assert.True(t, tc.Downgraded)
}

func TestBuildEnsemble(t *testing.T) {
	member := func(typ, n int) grib1test.Message {
		m := hour(0)
		m.Ensemble = &grib1.EnsembleMember{Type: typ, Number: n}
		return m
	}
	c, _ := build(t, DefaultOptions(), member(4, 1), member(3, 1), member(1, 0))
	g := c.Groups[0]
	v := g.Variables[0]
	require.GreaterOrEqual(t, v.EnsIdx, 0)
	assert.Equal(t, []grib1.EnsembleMember{{Type: 1, Number: 0}, {Type: 3, Number: 1}, {Type: 4, Number: 1}},
		g.EnsCoords[v.EnsIdx].Members)
	ntimes, nens, nverts := v.Shape(g)
	assert.Equal(t, [3]int{1, 3, 1}, [3]int{ntimes, nens, nverts})
	for _, s := range v.Slots {
		assert.False(t, s.Missing())
	}
}

func TestBuildPositiveUpLevels(t *testing.T) {
	height := func(m int) grib1test.Message {
		return msg(grib1test.Message{LevelType: 105, Level1: m >> 8, Level2: m & 0xFF})
	}
	c, _ := build(t, DefaultOptions(), height(2), height(80), height(10))
	g := c.Groups[0]
	v := g.Variables[0]
	assert.Equal(t, "TMP_height_above_ground", v.Name)
	assert.Equal(t, []Level{{80, 80}, {10, 10}, {2, 2}}, g.VertCoords[v.VertIdx].Levels)
}

func TestBuildGroupsByGrid(t *testing.T) {
	other := hour(0)
	other.GDS = grib1test.LatLonGDS(2, 2, 2, 0, 1, 1, 1, 1, 0)
	c, stats := build(t, DefaultOptions(), hour(0), other)
	require.Len(t, c.Groups, 2)
	assert.NotEqual(t, c.Groups[0].Name, c.Groups[1].Name)
	assert.Equal(t, 2, stats.Variables)
}

func TestBuildErrors(t *testing.T) {
	bad := hour(0)
	bad.TRI = 99
	_, _, err := Build("test", nil, readRecords(t, bad), DefaultOptions())
	assert.ErrorIs(t, err, grib1.ErrUnsupported)

	spectral := hour(0)
	spectral.GDS = append([]byte(nil), testGDS...)
	spectral.GDS[5] = 50
	_, _, err = Build("test", nil, readRecords(t, spectral), DefaultOptions())
	assert.ErrorIs(t, err, grib1.ErrUnsupported)
}

func TestFillSlotsInconsistent(t *testing.T) {
	recs := readRecords(t, hour(0))
	g := &Group{TimeCoords: []*TimeCoord{{Values: []TimeValue{{0, 0}}}}}
	vb := &varBuilder{
		v:     &Variable{Name: "x", TimeIdx: 0, VertIdx: -1, EnsIdx: -1},
		atoms: []*atom{{rec: recs[0], tv: TimeValue{6, 6}}},
	}
	assert.ErrorIs(t, vb.fillSlots(g), ErrInconsistent)
}

func TestVariableKey(t *testing.T) {
	raw := hour(0).Bytes()
	pds, err := grib1.ParseProductDefinition(raw[grib1.IndicatorLength:])
	require.NoError(t, err)
	pt, err := pds.ParamTime()
	require.NoError(t, err)

	// 17, then grid 0, level 100, param 11, table 2.
	assert.Equal(t, int32(35592132), VariableKey(pds, 0, pt))
	assert.NotEqual(t, VariableKey(pds, 0, pt), VariableKey(pds, 1, pt))

	six, _ := grib1.NewParamTime(4, 0, 6, 0)
	twelve, _ := grib1.NewParamTime(4, 0, 12, 0)
	assert.NotEqual(t, VariableKey(pds, 0, six), VariableKey(pds, 0, twelve))
	avg, _ := grib1.NewParamTime(3, 0, 6, 0)
	assert.NotEqual(t, VariableKey(pds, 0, six), VariableKey(pds, 0, avg))
}

func TestMergeSubsets(t *testing.T) {
	c := func(levels ...float64) *VertCoord {
		var ls []Level
		for _, l := range levels {
			ls = append(ls, Level{l, l})
		}
		return newVertCoord(100, ls)
	}
	coords := []*VertCoord{c(500), c(500, 850), c(300, 500, 850), c(1000)}
	kept, remap := mergeSubsets(coords)
	require.Len(t, kept, 2)
	assert.Equal(t, []int{0, 0, 0, 1}, remap)
	assert.Equal(t, 3, kept[0].Len())
}

func TestCoordTableShares(t *testing.T) {
	tab := newCoordTable[*EnsCoord]()
	a := newEnsCoord([]grib1.EnsembleMember{{Type: 3, Number: 1}, {Type: 1, Number: 0}})
	b := newEnsCoord([]grib1.EnsembleMember{{Type: 1, Number: 0}, {Type: 3, Number: 1}})
	assert.Equal(t, 0, tab.add(ensKey(a), a))
	assert.Equal(t, 0, tab.add(ensKey(b), b))
	assert.Len(t, tab.coords, 1)
}
