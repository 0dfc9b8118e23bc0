package grib1

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

// GaussianGrid is a latitude/longitude grid whose latitudes are the roots
// of a Legendre polynomial.
type GaussianGrid struct {
	gridShape
	First, Last LatLng
	Di          QuantizedAngle
	// N is the number of parallels between a pole and the equator.
	N int
}

func parseGaussianGrid(raw []byte) (*GaussianGrid, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/grids/4/

	Octets	Key	Type	Content
	7-8	Ni	unsigned	Ni number of points along a parallel
	9-10	Nj	unsigned	Nj number of points along a meridian
	11-13	latitudeOfFirstGridPoint	signed	La1 latitude of first grid point
	14-16	longitudeOfFirstGridPoint	signed	Lo1 longitude of first grid point
	17	resolutionAndComponentFlags	codeflag	Resolution and component flags (see Code table 7)
	18-20	latitudeOfLastGridPoint	signed	La2 latitude of last grid point
	21-23	longitudeOfLastGridPoint	signed	Lo2 longitude of last grid point
	24-25	iDirectionIncrement	unsigned	Di i direction increment
	26-27	N	unsigned	N number of parallels between a pole and the equator
	28	scanningMode	codeflag	Scanning mode (flags see Flag/Code table 8)
	*/
	shape, err := parseShape(raw, 17, 28)
	if err != nil {
		return nil, err
	}
	s := &GaussianGrid{gridShape: shape, N: uint16At(raw, 26)}
	if s.N == 0 {
		return nil, corruptf("gaussian grid with N = 0")
	}
	s.First = LatLng{lat: QuantizedAngle{int32(int24At(raw, 11))}, lng: QuantizedAngle{int32(int24At(raw, 14))}}
	s.Last = LatLng{lat: QuantizedAngle{int32(int24At(raw, 18))}, lng: QuantizedAngle{int32(int24At(raw, 21))}}
	s.Di, _ = latLonIncrements(raw, &s.gridShape, s.First, s.Last)
	return s, nil
}

func (s *GaussianGrid) Template() DataRepresentationType { return DataRepresentationTypeGG }

func (s *GaussianGrid) Equal(other GridDescriptor) bool {
	o, ok := other.(*GaussianGrid)
	if !ok {
		return false
	}
	return s.gridShape.equalShape(&o.gridShape) && s.N == o.N &&
		s.First.closeTo(o.First) && s.Last.closeTo(o.Last) &&
		closeEnough(s.Di.Degrees(), o.Di.Degrees())
}

func (s *GaussianGrid) HorizCoordSys() (*HorizCoordSys, error) {
	lats, err := s.latitudes()
	if err != nil {
		return nil, err
	}
	hcs := latLonCoordSys("GaussianLatLon", &s.gridShape, s.First, s.Di, QuantizedAngle{})
	hcs.Lats = lats
	hcs.StartY = lats[0]
	if len(lats) > 1 {
		hcs.DY = (lats[len(lats)-1] - lats[0]) / float64(len(lats)-1)
	}
	return hcs, nil
}

// latitudes selects Ny consecutive Gaussian latitudes starting at the one
// nearest La1, in scan order.
func (s *GaussianGrid) latitudes() ([]float64, error) {
	all := GaussianLatitudes(s.N)
	if !s.Scan.PointsScanInPlusJDirection() {
		sort.Sort(sort.Reverse(sort.Float64Slice(all)))
	}
	la1 := s.First.Lat().Degrees()
	start, best := 0, math.Inf(1)
	for i, lat := range all {
		if d := math.Abs(lat - la1); d < best {
			start, best = i, d
		}
	}
	if start+s.Ny > len(all) {
		return nil, corruptf("gaussian grid N=%d has %d latitudes from %g, need %d", s.N, len(all)-start, la1, s.Ny)
	}
	return all[start : start+s.Ny], nil
}

func (s *GaussianGrid) String() string {
	return fmt.Sprintf("GaussianLatLon %dx%d N=%d first=(%s) last=(%s) di=%g scan=%s",
		s.Nx, s.Ny, s.N, s.First, s.Last, s.Di.Degrees(), s.Scan)
}

// GaussianLatitudes returns the 2n Gaussian latitudes in degrees, south to
// north.
func GaussianLatitudes(n int) []float64 {
	x := make([]float64, 2*n)
	w := make([]float64, 2*n)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	sort.Float64s(x)
	for i, v := range x {
		x[i] = math.Asin(v) * 180 / math.Pi
	}
	return x
}
