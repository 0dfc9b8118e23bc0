// Package grib1test builds synthetic GRIB1 messages for tests.
package grib1test

import (
	"math"
	"time"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/hexademicalfloatingpoint"
)

// Message describes one message to encode. Zero values give an NCEP
// temperature field at 500 hPa analysed at Ref.
type Message struct {
	Center, SubCenter int
	TableVersion      int
	Process           int
	// GridNumber is used when GDS is nil.
	GridNumber int
	Param      int
	LevelType  int
	// Level1 and Level2 are octets 11 and 12.
	Level1, Level2 int
	Ref            time.Time
	Unit           grib1.UnitOfTime
	P1, P2, TRI    int
	NAvg           int
	DecimalScale   int
	// Ensemble adds a centre specific ensemble extension to section 1.
	Ensemble *grib1.EnsembleMember

	// GDS is a complete section 2, see the *GDS helpers. nil omits it.
	GDS []byte
	// Bitmap adds section 3. Values holds only the present points.
	Bitmap []bool
	Values []float64
	// Nbits is the packing width, 0 for a constant field.
	Nbits       int
	BinaryScale int
}

// withDefaults fills zero fields. It is applied by Bytes.
func (m Message) withDefaults() Message {
	if m.Center == 0 {
		m.Center = grib1.NCEP
	}
	if m.TableVersion == 0 {
		m.TableVersion = 2
	}
	if m.Param == 0 {
		m.Param = 11
	}
	if m.LevelType == 0 {
		m.LevelType = 100
		if m.Level1 == 0 && m.Level2 == 0 {
			m.Level1, m.Level2 = 500>>8, 500&0xFF
		}
	}
	if m.Ref.IsZero() {
		m.Ref = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if m.GDS == nil && m.GridNumber == 0 {
		m.GridNumber = 255
	}
	return m
}

// Bytes encodes the message.
func (m Message) Bytes() []byte {
	m = m.withDefaults()
	pds := m.pds()
	var body []byte
	body = append(body, pds...)
	if m.GDS != nil {
		body = append(body, m.GDS...)
	}
	if m.Bitmap != nil {
		body = append(body, bitmapSection(m.Bitmap)...)
	}
	body = append(body, m.bds()...)

	total := grib1.IndicatorLength + len(body) + len(grib1.Trailer)
	out := make([]byte, 0, total)
	out = append(out, grib1.Magic...)
	out = append(out, u24(total)...)
	out = append(out, 1)
	out = append(out, body...)
	out = append(out, grib1.Trailer...)
	return out
}

func (m Message) pds() []byte {
	n := 28
	if m.Ensemble != nil {
		n = 52
	}
	b := make([]byte, n)
	copy(b, u24(n))
	b[3] = byte(m.TableVersion)
	b[4] = byte(m.Center)
	b[5] = byte(m.Process)
	b[6] = byte(m.GridNumber)
	if m.GDS != nil {
		b[6] = 255
		b[7] |= 0x80
	}
	if m.Bitmap != nil {
		b[7] |= 0x40
	}
	b[8] = byte(m.Param)
	b[9] = byte(m.LevelType)
	b[10] = byte(m.Level1)
	b[11] = byte(m.Level2)
	century := (m.Ref.Year()-1)/100 + 1
	yoc := m.Ref.Year() - (century-1)*100
	b[12] = byte(yoc)
	b[13] = byte(m.Ref.Month())
	b[14] = byte(m.Ref.Day())
	b[15] = byte(m.Ref.Hour())
	b[16] = byte(m.Ref.Minute())
	b[17] = byte(m.Unit)
	b[18] = byte(m.P1)
	b[19] = byte(m.P2)
	b[20] = byte(m.TRI)
	b[21] = byte(m.NAvg >> 8)
	b[22] = byte(m.NAvg)
	b[24] = byte(century)
	b[25] = byte(m.SubCenter)
	copy(b[26:], s16(m.DecimalScale))
	if e := m.Ensemble; e != nil {
		b[40] = 1
		switch m.Center {
		case 98:
			b[42] = byte(e.Type)
			b[49] = byte(e.Number)
		default:
			b[41] = byte(e.Type)
			b[42] = byte(e.Number)
		}
	}
	return b
}

func bitmapSection(bits []bool) []byte {
	nbytes := (len(bits) + 7) / 8
	b := make([]byte, 6+nbytes)
	copy(b, u24(len(b)))
	b[3] = byte(nbytes*8 - len(bits))
	for i, set := range bits {
		if set {
			b[6+i/8] |= 1 << uint(7-i%8)
		}
	}
	return b
}

func (m Message) bds() []byte {
	dscale := math.Pow(10, float64(m.DecimalScale))
	ref := 0.0
	if len(m.Values) > 0 {
		ref = math.Inf(1)
		for _, v := range m.Values {
			ref = math.Min(ref, v*dscale)
		}
	}
	refBytes := hexademicalfloatingpoint.Encode32(ref)
	ref = hexademicalfloatingpoint.Parse32(refBytes)

	var packed []byte
	unused := 0
	if m.Nbits > 0 {
		xs := make([]uint64, len(m.Values))
		escale := math.Ldexp(1, -m.BinaryScale)
		for i, v := range m.Values {
			xs[i] = uint64(math.Round((v*dscale - ref) * escale))
		}
		packed, unused = grib1.PackBits(xs, m.Nbits)
	}
	if len(packed)%2 == 1 {
		packed = append(packed, 0)
		unused += 8
	}
	b := make([]byte, grib1.BDSHeaderLength, grib1.BDSHeaderLength+len(packed))
	copy(b, u24(grib1.BDSHeaderLength+len(packed)))
	b[3] = byte(unused & 0x0F)
	copy(b[4:], s16(m.BinaryScale))
	copy(b[6:], refBytes)
	b[10] = byte(m.Nbits)
	return append(b, packed...)
}

// MarkLarge rewrites the length of msg with the ECMWF convention for
// messages longer than 8 MB: the 120 byte block count with the top bit set.
func MarkLarge(msg []byte) []byte {
	out := append([]byte(nil), msg...)
	blocks := (len(msg) + 119) / 120
	copy(out[4:], u24(0x800000|blocks))
	return out
}

func u24(v int) []byte {
	return []byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

func u16(v int) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// s16 and s24 encode sign-magnitude integers.
func s16(v int) []byte {
	if v < 0 {
		return []byte{byte(-v>>8) | 0x80, byte(-v)}
	}
	return u16(v)
}

func s24(v int) []byte {
	if v < 0 {
		return []byte{byte(-v>>16) | 0x80, byte(-v >> 8), byte(-v)}
	}
	return u24(v)
}

func milli(deg float64) int { return int(math.Round(deg * 1000)) }

// gds returns a section 2 of n bytes with the header filled in.
func gds(n int, template grib1.DataRepresentationType) []byte {
	b := make([]byte, n)
	copy(b, u24(n))
	b[4] = 255
	b[5] = byte(template)
	return b
}

// LatLonGDS encodes a regular latitude/longitude grid.
func LatLonGDS(ni, nj int, la1, lo1, la2, lo2, di, dj float64, scan grib1.ScanMode) []byte {
	b := gds(32, grib1.DataRepresentationTypeLL)
	fillLatLon(b, ni, nj, la1, lo1, la2, lo2, di, dj, scan)
	return b
}

func fillLatLon(b []byte, ni, nj int, la1, lo1, la2, lo2, di, dj float64, scan grib1.ScanMode) {
	copy(b[6:], u16(ni))
	copy(b[8:], u16(nj))
	copy(b[10:], s24(milli(la1)))
	copy(b[13:], s24(milli(lo1)))
	b[16] = 0x80
	copy(b[17:], s24(milli(la2)))
	copy(b[20:], s24(milli(lo2)))
	copy(b[23:], u16(milli(di)))
	copy(b[25:], u16(milli(dj)))
	b[27] = byte(scan)
}

// ThinLatLonGDS encodes a quasi-regular latitude/longitude grid with the
// given number of points per row.
func ThinLatLonGDS(rows []int, la1, lo1, la2, lo2, dj float64, scan grib1.ScanMode) []byte {
	b := gds(32+2*len(rows), grib1.DataRepresentationTypeLL)
	fillLatLon(b, grib1.ThinSentinel, len(rows), la1, lo1, la2, lo2, 0, dj, scan)
	copy(b[23:], u16(0xFFFF))
	b[16] = 0
	b[4] = 33
	for i, r := range rows {
		copy(b[32+2*i:], u16(r))
	}
	return b
}

// GaussianGDS encodes a regular Gaussian grid with n parallels per
// hemisphere.
func GaussianGDS(ni, nj, n int, la1, lo1, la2, lo2, di float64, scan grib1.ScanMode) []byte {
	b := gds(32, grib1.DataRepresentationTypeGG)
	fillLatLon(b, ni, nj, la1, lo1, la2, lo2, di, 0, scan)
	copy(b[25:], u16(n))
	return b
}

// PolarStereographicGDS encodes a north or south polar stereographic grid.
func PolarStereographicGDS(nx, ny int, la1, lo1, lov float64, dx, dy int, south bool, scan grib1.ScanMode) []byte {
	b := gds(32, grib1.DataRepresentationTypePS)
	copy(b[6:], u16(nx))
	copy(b[8:], u16(ny))
	copy(b[10:], s24(milli(la1)))
	copy(b[13:], s24(milli(lo1)))
	b[16] = 0x80
	copy(b[17:], s24(milli(lov)))
	copy(b[20:], u24(dx))
	copy(b[23:], u24(dy))
	if south {
		b[26] = 0x80
	}
	b[27] = byte(scan)
	return b
}

// LambertGDS encodes a Lambert conformal grid.
func LambertGDS(nx, ny int, la1, lo1, lov float64, dx, dy int, latin1, latin2 float64, scan grib1.ScanMode) []byte {
	b := gds(42, grib1.DataRepresentationTypeLC)
	copy(b, PolarStereographicGDS(nx, ny, la1, lo1, lov, dx, dy, false, scan))
	copy(b, u24(42))
	b[5] = byte(grib1.DataRepresentationTypeLC)
	copy(b[28:], s24(milli(latin1)))
	copy(b[31:], s24(milli(latin2)))
	copy(b[34:], s24(milli(-90)))
	return b
}

// MercatorGDS encodes a Mercator grid.
func MercatorGDS(ni, nj int, la1, lo1, la2, lo2, latin float64, di, dj int, scan grib1.ScanMode) []byte {
	b := gds(42, grib1.DataRepresentationTypeMM)
	copy(b[6:], u16(ni))
	copy(b[8:], u16(nj))
	copy(b[10:], s24(milli(la1)))
	copy(b[13:], s24(milli(lo1)))
	b[16] = 0x80
	copy(b[17:], s24(milli(la2)))
	copy(b[20:], s24(milli(lo2)))
	copy(b[23:], s24(milli(latin)))
	b[27] = byte(scan)
	copy(b[28:], u24(di))
	copy(b[31:], u24(dj))
	return b
}

// RotatedLatLonGDS encodes a rotated latitude/longitude grid.
func RotatedLatLonGDS(ni, nj int, la1, lo1, la2, lo2, di, dj float64, scan grib1.ScanMode, spLat, spLon, rotation float64) []byte {
	b := gds(42, grib1.DataRepresentationType10)
	fillLatLon(b, ni, nj, la1, lo1, la2, lo2, di, dj, scan)
	copy(b[32:], s24(milli(spLat)))
	copy(b[35:], s24(milli(spLon)))
	copy(b[38:], hexademicalfloatingpoint.Encode32(rotation))
	return b
}
