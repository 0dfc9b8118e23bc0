package grib1

import (
	"fmt"
)

// LambertConformalGrid is a Lambert conformal conic projection grid.
type LambertConformalGrid struct {
	gridShape
	First LatLng
	LoV   QuantizedAngle
	// Dx and Dy are grid lengths in metres.
	Dx, Dy int
	// ProjectionCentre is octet 27: bit 1 set for the south pole, bit 2 set
	// for a bipolar projection.
	ProjectionCentre uint8
	Latin1, Latin2   QuantizedAngle
	SouthPole        LatLng
}

func parseLambertConformalGrid(raw []byte) (*LambertConformalGrid, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/grids/3/

	Octets	Key	Type	Content
	7-8	Nx	unsigned	Nx number of points along x-axis
	9-10	Ny	unsigned	Ny number of points along y-axis
	11-13	latitudeOfFirstGridPoint	signed	La1 latitude of first grid point
	14-16	longitudeOfFirstGridPoint	signed	Lo1 longitude of first grid point
	17	resolutionAndComponentFlags	codeflag	Resolution and component flags (see Code table 7)
	18-20	LoV	signed	LoV orientation of the grid
	21-23	DxInMetres	unsigned	Dx X-direction grid length
	24-26	DyInMetres	unsigned	Dy Y-direction grid length
	27	projectionCentreFlag	unsigned	Projection centre flag
	28	scanningMode	codeflag	Scanning mode (flags see Flag/Code table 8)
	29-31	Latin1	signed	Latin 1 first latitude from the pole at which the secant cone cuts the sphere
	32-34	Latin2	signed	Latin 2 second latitude from the pole at which the secant cone cuts the sphere
	35-37	latitudeOfSouthernPole	signed	Latitude of the southern pole
	38-40	longitudeOfSouthernPole	signed	Longitude of the southern pole
	41-42			Reserved
	*/
	if len(raw) < 40 {
		return nil, corruptf("lambert conformal grid section has %d bytes, need 40", len(raw))
	}
	shape, err := parseShape(raw, 17, 28)
	if err != nil {
		return nil, err
	}
	if shape.RowPoints != nil {
		return nil, unsupportedf("quasi-regular lambert conformal grid")
	}
	s := &LambertConformalGrid{
		gridShape:        shape,
		First:            LatLng{lat: QuantizedAngle{int32(int24At(raw, 11))}, lng: QuantizedAngle{int32(int24At(raw, 14))}},
		LoV:              QuantizedAngle{int32(int24At(raw, 18))},
		Dx:               uint24At(raw, 21),
		Dy:               uint24At(raw, 24),
		ProjectionCentre: uint8(octet(raw, 27)),
		Latin1:           QuantizedAngle{int32(int24At(raw, 29))},
		Latin2:           QuantizedAngle{int32(int24At(raw, 32))},
		SouthPole:        LatLng{lat: QuantizedAngle{int32(int24At(raw, 35))}, lng: QuantizedAngle{int32(int24At(raw, 38))}},
	}
	if s.Dx == 0 || s.Dy == 0 {
		return nil, corruptf("lambert conformal grid with zero grid length %dx%d", s.Dx, s.Dy)
	}
	return s, nil
}

func (s *LambertConformalGrid) Template() DataRepresentationType {
	return DataRepresentationTypeLC
}

func (s *LambertConformalGrid) Equal(other GridDescriptor) bool {
	o, ok := other.(*LambertConformalGrid)
	if !ok {
		return false
	}
	return s.gridShape.equalShape(&o.gridShape) && s.ProjectionCentre == o.ProjectionCentre &&
		s.First.closeTo(o.First) && closeEnough(s.LoV.Degrees(), o.LoV.Degrees()) &&
		closeEnough(float64(s.Dx), float64(o.Dx)) && closeEnough(float64(s.Dy), float64(o.Dy)) &&
		closeEnough(s.Latin1.Degrees(), o.Latin1.Degrees()) && closeEnough(s.Latin2.Degrees(), o.Latin2.Degrees())
}

// Proj4 returns the projection definition, with the origin at Latin1 on
// the LoV meridian.
func (s *LambertConformalGrid) Proj4() string {
	a, b := earthAxes(s.Resolution)
	return fmt.Sprintf("+proj=lcc +lat_1=%g +lat_2=%g +lat_0=%g +lon_0=%g +a=%g +b=%g",
		s.Latin1.Degrees(), s.Latin2.Degrees(), s.Latin1.Degrees(), s.LoV.Degrees(), a, b)
}

func (s *LambertConformalGrid) HorizCoordSys() (*HorizCoordSys, error) {
	p := s.Proj4()
	x0, y0, err := projectPoint(p, s.Resolution, s.First.Lng().Degrees(), s.First.Lat().Degrees())
	if err != nil {
		return nil, err
	}
	return projectedCoordSys("LambertConformal", p, &s.gridShape, x0, y0, float64(s.Dx), float64(s.Dy)), nil
}

func (s *LambertConformalGrid) String() string {
	return fmt.Sprintf("LambertConformal %dx%d first=(%s) lov=%g latin=%g/%g dx=%dm dy=%dm scan=%s",
		s.Nx, s.Ny, s.First, s.LoV.Degrees(), s.Latin1.Degrees(), s.Latin2.Degrees(), s.Dx, s.Dy, s.Scan)
}
