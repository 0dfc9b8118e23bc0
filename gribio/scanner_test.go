package gribio

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/grib1/grib1test"
)

func testMessage(param int, values ...float64) []byte {
	return grib1test.Message{
		Param:  param,
		GDS:    grib1test.LatLonGDS(len(values), 1, 0, 0, 0, float64(len(values)-1), 1, 1, 0),
		Values: values,
		Nbits:  4,
	}.Bytes()
}

func scanAll(t *testing.T, file []byte, opts ...Option) ([]RawMessage, *Scanner) {
	t.Helper()
	s := NewScanner(bytes.NewReader(file), int64(len(file)), opts...)
	var out []RawMessage
	for s.Scan() {
		out = append(out, s.Message())
	}
	require.NoError(t, s.Err())
	return out, s
}

func TestScannerSkipsGarbageAndOtherEditions(t *testing.T) {
	one, two := testMessage(11, 1, 2), testMessage(33, 3, 4)
	grib2 := append([]byte("GRIB\x00\x00\x00\x02"), make([]byte, 16)...)

	var file []byte
	file = append(file, "TTAA00 KWBC 010000\r\r\n"...)
	file = append(file, one...)
	file = append(file, 0, 0, 0)
	file = append(file, grib2...)
	file = append(file, two...)
	file = append(file, "trailing junk"...)

	msgs, s := scanAll(t, file)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(21), msgs[0].Start)
	assert.Equal(t, int64(len(one)), msgs[0].Len())
	assert.Equal(t, "TTAA00 KWBC 010000\r\r\n", string(msgs[0].Header))
	assert.Equal(t, int64(len(file)-len("trailing junk")), msgs[1].End)
	assert.Equal(t, 0, s.Skipped)
}

func TestScannerHeaderIsCapped(t *testing.T) {
	file := append(bytes.Repeat([]byte{'x'}, 300), testMessage(11, 1)...)
	msgs, _ := scanAll(t, file)
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Header, maxHeader)
}

func TestScannerBadTrailerResumes(t *testing.T) {
	bad := testMessage(11, 1, 2)
	copy(bad[len(bad)-4:], "7778")
	good := testMessage(33, 3, 4)
	file := append(append([]byte(nil), bad...), good...)

	msgs, s := scanAll(t, file)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(len(bad)), msgs[0].Start)
	assert.Equal(t, 1, s.Skipped)
}

func TestScannerRecoversUnderstatedLength(t *testing.T) {
	msg := testMessage(11, 1, 2)
	short := append([]byte(nil), msg...)
	short[6] -= 2

	msgs, _ := scanAll(t, short)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Recovered)
	assert.Equal(t, int64(len(msg)), msgs[0].End)

	msgs, s := scanAll(t, short, WithRecoveryWindow(0))
	assert.Empty(t, msgs)
	assert.Equal(t, 1, s.Skipped)
}

func TestScannerECMWFLargeMessage(t *testing.T) {
	large := grib1test.MarkLarge(testMessage(11, 1, 2))
	file := append(append([]byte(nil), large...), testMessage(33, 3)...)

	msgs, _ := scanAll(t, file)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(len(large)), msgs[0].Len())
	assert.True(t, msgs[0].Recovered)

	msgs, _ = scanAll(t, file, WithFixups())
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(len(large)), msgs[0].Start)
}

func TestScannerOverstatedLengthKeepsFollowingMessages(t *testing.T) {
	a, b, c := testMessage(11, 1, 2), testMessage(33, 3, 4), testMessage(52, 5, 6)
	copy(a[len(a)-4:], "XXXX")
	n := len(a) + len(b) + 10
	copy(a[4:7], []byte{byte(n >> 16), byte(n >> 8), byte(n)})

	var file []byte
	file = append(file, a...)
	file = append(file, b...)
	file = append(file, c...)

	msgs, s := scanAll(t, file)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(len(a)), msgs[0].Start)
	assert.Equal(t, int64(len(b)), msgs[0].Len())
	assert.False(t, msgs[0].Recovered)
	assert.Equal(t, int64(len(a)+len(b)), msgs[1].Start)
	assert.Equal(t, 1, s.Skipped)
}

func TestScannerECMWFLargeMessageTrailerInPayload(t *testing.T) {
	gds := grib1test.LatLonGDS(6, 1, 0, 0, 0, 5, 1, 1, 0)
	msg := grib1test.Message{
		Param:  11,
		GDS:    gds,
		Values: []float64{0, 55, 55, 55, 55, 1},
		Nbits:  8,
	}.Bytes()
	require.Contains(t, string(msg[:len(msg)-4]), grib1.Trailer)
	bds := grib1.IndicatorLength + 28 + len(gds)

	padded := grib1test.MarkLarge(msg)
	pad := (len(msg)+119)/120*120 - len(msg) + 4
	require.Less(t, pad, 120)
	copy(padded[bds:], []byte{0, byte(pad >> 8), byte(pad)})

	for _, tc := range []struct {
		name  string
		large []byte
	}{
		{"padding in section 4", padded},
		{"last trailer of the block", grib1test.MarkLarge(msg)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			next := testMessage(33, 3)
			file := append(append([]byte(nil), tc.large...), next...)
			msgs, _ := scanAll(t, file)
			require.Len(t, msgs, 2)
			assert.Equal(t, int64(len(msg)), msgs[0].Len())
			assert.Equal(t, int64(len(msg)), msgs[1].Start)
			assert.Equal(t, int64(len(next)), msgs[1].Len())
		})
	}
}

func TestScannerMarkerAcrossWindows(t *testing.T) {
	file := append(bytes.Repeat([]byte{'x'}, searchWindow-2), testMessage(11, 1)...)
	msgs, _ := scanAll(t, file)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(searchWindow-2), msgs[0].Start)
}

func TestScannerReset(t *testing.T) {
	one, two := testMessage(11, 1), testMessage(33, 2)
	file := append(append([]byte(nil), one...), two...)
	s := NewScanner(bytes.NewReader(file), int64(len(file)))
	require.True(t, s.Scan())
	require.True(t, s.Scan())
	assert.False(t, s.Scan())

	s.Reset(int64(len(one)))
	require.True(t, s.Scan())
	b, err := s.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, two, b)
}

func TestReadRecords(t *testing.T) {
	one, two := testMessage(11, 1, 2), testMessage(33, 3, 4)
	corrupt := testMessage(52, 5, 6)
	corrupt[8+2] = 3 // section 1 length smaller than its minimum

	var file []byte
	file = append(file, one...)
	file = append(file, corrupt...)
	file = append(file, two...)

	recs, stats, err := ReadRecords(context.Background(), bytes.NewReader(file), int64(len(file)), 4, nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, RecordStats{Messages: 3, Corrupt: 1}, stats)

	assert.Equal(t, 4, recs[0].FileNo)
	assert.Equal(t, int64(0), recs[0].Pos)
	assert.Equal(t, int64(8+28+32), recs[0].BDSOffset)
	assert.Equal(t, int64(len(one)), recs[0].Length)
	assert.Equal(t, 11, recs[0].PDS.Parameter())
	assert.Equal(t, 33, recs[1].PDS.Parameter())
	assert.Same(t, recs[0].GDS, recs[1].GDS)
}

func TestReadRecordsCancelled(t *testing.T) {
	file := testMessage(11, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ReadRecords(ctx, bytes.NewReader(file), int64(len(file)), 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFile(t *testing.T) {
	file := append(testMessage(11, 1, 2), testMessage(33, 3, 4)...)
	f, err := ReadFile(bytes.NewReader(file))
	require.NoError(t, err)
	require.Len(t, f.GRIB1Messages(), 2)
	assert.Equal(t, int64(len(file)/2), f.Offset(1))
}
