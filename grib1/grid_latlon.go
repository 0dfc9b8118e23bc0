package grib1

import (
	"fmt"
	"math"
)

// LatLonGrid specifies a latitude/longitude grid or equidistant cylindrical
// points.
type LatLonGrid struct {
	gridShape
	First, Last LatLng
	// Di and Dj are signed by the scan mode: negative Di for rows scanned
	// east to west, negative Dj for rows scanned north to south.
	Di, Dj QuantizedAngle
}

func parseLatLonGrid(raw []byte) (*LatLonGrid, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/grids/0/

	Octets	Key	Type	Content
	7-8	Ni	unsigned	Ni number of points along a parallel
	9-10	Nj	unsigned	Nj number of points along a meridian
	11-13	latitudeOfFirstGridPoint	signed	La1 latitude of first grid point
	14-16	longitudeOfFirstGridPoint	signed	Lo1 longitude of first grid point
	17	resolutionAndComponentFlags	codeflag	Resolution and component flags (see Code table 7)
	18-20	latitudeOfLastGridPoint	signed	La2 latitude of last grid point
	21-23	longitudeOfLastGridPoint	signed	Lo2 longitude of last grid point
	24-25	iDirectionIncrement	unsigned	Di i direction increment
	26-27	jDirectionIncrement	unsigned	Dj j direction increment
	28	scanningMode	codeflag	Scanning mode (flags see Flag/Code table 8)
	29-32			Set to zero (reserved)
	*/
	shape, err := parseShape(raw, 17, 28)
	if err != nil {
		return nil, err
	}
	s := &LatLonGrid{gridShape: shape}
	s.First = LatLng{lat: QuantizedAngle{int32(int24At(raw, 11))}, lng: QuantizedAngle{int32(int24At(raw, 14))}}
	s.Last = LatLng{lat: QuantizedAngle{int32(int24At(raw, 18))}, lng: QuantizedAngle{int32(int24At(raw, 21))}}
	s.Di, s.Dj = latLonIncrements(raw, &s.gridShape, s.First, s.Last)
	return s, nil
}

// latLonIncrements reads Di/Dj, deriving them from the corner points when
// they are not given or the grid is quasi-regular, and signs them by the
// scan mode.
func latLonIncrements(raw []byte, shape *gridShape, first, last LatLng) (di, dj QuantizedAngle) {
	rawDi, rawDj := uint16At(raw, 24), uint16At(raw, 26)

	if rawDi == undefinedIncrement || shape.RowPoints != nil || !shape.Resolution.DirectionIncrementsGiven() {
		span := math.Abs(float64(eastwardSpan(first.lng.milliDegrees, last.lng.milliDegrees, shape.Scan)))
		if shape.Nx > 1 {
			rawDi = int(math.Round(span / float64(shape.Nx-1)))
		}
	}
	if rawDj == undefinedIncrement || !shape.Resolution.DirectionIncrementsGiven() {
		span := math.Abs(float64(last.lat.milliDegrees - first.lat.milliDegrees))
		if shape.Ny > 1 {
			rawDj = int(math.Round(span / float64(shape.Ny-1)))
		}
	}
	di.milliDegrees = int32(rawDi)
	dj.milliDegrees = int32(rawDj)
	if !shape.Scan.PointsScanInPlusIDirection() {
		di.milliDegrees *= -1
	}
	if !shape.Scan.PointsScanInPlusJDirection() {
		dj.milliDegrees *= -1
	}
	return di, dj
}

// eastwardSpan returns last-first in the scan direction, unwrapping the
// dateline.
func eastwardSpan(first, last int32, scan ScanMode) int32 {
	span := last - first
	if scan.PointsScanInPlusIDirection() && span < 0 {
		span += 360000
	}
	if !scan.PointsScanInPlusIDirection() && span > 0 {
		span -= 360000
	}
	return span
}

func (s *LatLonGrid) Template() DataRepresentationType { return DataRepresentationTypeLL }

func (s *LatLonGrid) Equal(other GridDescriptor) bool {
	o, ok := other.(*LatLonGrid)
	if !ok {
		return false
	}
	return s.gridShape.equalShape(&o.gridShape) &&
		s.First.closeTo(o.First) && s.Last.closeTo(o.Last) &&
		closeEnough(s.Di.Degrees(), o.Di.Degrees()) && closeEnough(s.Dj.Degrees(), o.Dj.Degrees())
}

func (s *LatLonGrid) HorizCoordSys() (*HorizCoordSys, error) {
	return latLonCoordSys("LatLon", &s.gridShape, s.First, s.Di, s.Dj), nil
}

func latLonCoordSys(kind string, shape *gridShape, first LatLng, di, dj QuantizedAngle) *HorizCoordSys {
	return &HorizCoordSys{
		Kind:   kind,
		XUnits: "degrees_east",
		YUnits: "degrees_north",
		Nx:     shape.Nx,
		Ny:     shape.Ny,
		StartX: axisStart(first.Lng().Degrees(), di.Degrees(), shape.Nx),
		StartY: first.Lat().Degrees(),
		DX:     math.Abs(di.Degrees()),
		DY:     dj.Degrees(),
	}
}

func (s *LatLonGrid) String() string {
	return fmt.Sprintf("LatLon %dx%d first=(%s) last=(%s) di=%g dj=%g scan=%s",
		s.Nx, s.Ny, s.First, s.Last, s.Di.Degrees(), s.Dj.Degrees(), s.Scan)
}

// Points returns the location of every grid point in the order of the
// encoded values. Quasi-regular grids are not supported.
func (s *LatLonGrid) Points() []LatLng {
	var out []LatLng

	if s.Scan.AdjacentPointsInIDirectionAreConsecutive() {
		for j := 0; j < s.Ny; j++ {
			lat := s.First.lat
			lat.milliDegrees += int32(j) * s.Dj.milliDegrees
			for i := 0; i < s.Nx; i++ {
				lng := s.First.lng
				lng.milliDegrees += int32(i) * s.Di.milliDegrees
				out = append(out, LatLng{lat, lng})
			}
		}
	} else {
		for i := 0; i < s.Nx; i++ {
			lng := s.First.lng
			lng.milliDegrees += int32(i) * s.Di.milliDegrees
			for j := 0; j < s.Ny; j++ {
				lat := s.First.lat
				lat.milliDegrees += int32(j) * s.Dj.milliDegrees
				out = append(out, LatLng{lat, lng})
			}
		}
	}

	return out
}

// QuantizedAngle is an angle with the millidegree resolution of GRIB1.
type QuantizedAngle struct {
	milliDegrees int32
}

// NewQuantizedAngle rounds degrees to millidegrees.
func NewQuantizedAngle(degrees float64) QuantizedAngle {
	return QuantizedAngle{int32(math.Round(degrees * 1000))}
}

// Degrees returns the angle in degrees.
func (a QuantizedAngle) Degrees() float64 {
	return float64(a.milliDegrees) / 1000
}

// MilliDegrees returns the raw angle.
func (a QuantizedAngle) MilliDegrees() int32 { return a.milliDegrees }

// LatLng represents a latitude/longitude point.
type LatLng struct {
	lat, lng QuantizedAngle
}

// NewLatLng returns the point at lat, lng degrees.
func NewLatLng(lat, lng float64) LatLng {
	return LatLng{NewQuantizedAngle(lat), NewQuantizedAngle(lng)}
}

// String returns a human-readable representation of the lat/lng.
func (ll LatLng) String() string {
	return fmt.Sprintf("%g, %g", ll.lat.Degrees(), ll.lng.Degrees())
}

// Plus adds one Lat/Lng to another.
func (ll LatLng) Plus(other LatLng) LatLng {
	ll.lat.milliDegrees += other.lat.milliDegrees
	ll.lng.milliDegrees += other.lng.milliDegrees
	return ll
}

// Lat returns the latitude.
func (ll LatLng) Lat() QuantizedAngle { return ll.lat }

// Lng returns the longitude.
func (ll LatLng) Lng() QuantizedAngle { return ll.lng }

func (ll LatLng) closeTo(o LatLng) bool {
	return closeEnough(ll.lat.Degrees(), o.lat.Degrees()) && closeEnough(ll.lng.Degrees(), o.lng.Degrees())
}
