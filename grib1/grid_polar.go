package grib1

import (
	"fmt"
	"math"
)

// trueScaleLatitude of GRIB1 polar stereographic grids.
const trueScaleLatitude = 60.0

// PolarStereographicGrid is a polar stereographic projection grid, true at
// 60 degrees.
type PolarStereographicGrid struct {
	gridShape
	First LatLng
	// LoV is the orientation of the grid: the meridian parallel to y.
	LoV QuantizedAngle
	// Dx and Dy are grid lengths in metres at 60 degrees.
	Dx, Dy    int
	SouthPole bool
}

func parsePolarStereographicGrid(raw []byte) (*PolarStereographicGrid, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/grids/5/

	Octets	Key	Type	Content
	7-8	Nx	unsigned	Nx number of points along x-axis
	9-10	Ny	unsigned	Ny number of points along y-axis
	11-13	latitudeOfFirstGridPoint	signed	La1 latitude of first grid point
	14-16	longitudeOfFirstGridPoint	signed	Lo1 longitude of first grid point
	17	resolutionAndComponentFlags	codeflag	Resolution and component flags (see Code table 7)
	18-20	orientationOfTheGrid	signed	LoV orientation of the grid
	21-23	DxInMetres	unsigned	Dx X-direction grid length
	24-26	DyInMetres	unsigned	Dy Y-direction grid length
	27	projectionCentreFlag	unsigned	Projection centre flag
	28	scanningMode	codeflag	Scanning mode (flags see Flag/Code table 8)
	*/
	shape, err := parseShape(raw, 17, 28)
	if err != nil {
		return nil, err
	}
	if shape.RowPoints != nil {
		return nil, unsupportedf("quasi-regular polar stereographic grid")
	}
	s := &PolarStereographicGrid{
		gridShape: shape,
		First:     LatLng{lat: QuantizedAngle{int32(int24At(raw, 11))}, lng: QuantizedAngle{int32(int24At(raw, 14))}},
		LoV:       QuantizedAngle{int32(int24At(raw, 18))},
		Dx:        uint24At(raw, 21),
		Dy:        uint24At(raw, 24),
		SouthPole: octet(raw, 27)&0x80 != 0,
	}
	if s.Dx == 0 || s.Dy == 0 {
		return nil, corruptf("polar stereographic grid with zero grid length %dx%d", s.Dx, s.Dy)
	}
	return s, nil
}

func (s *PolarStereographicGrid) Template() DataRepresentationType {
	return DataRepresentationTypePS
}

func (s *PolarStereographicGrid) Equal(other GridDescriptor) bool {
	o, ok := other.(*PolarStereographicGrid)
	if !ok {
		return false
	}
	return s.gridShape.equalShape(&o.gridShape) && s.SouthPole == o.SouthPole &&
		s.First.closeTo(o.First) && closeEnough(s.LoV.Degrees(), o.LoV.Degrees()) &&
		closeEnough(float64(s.Dx), float64(o.Dx)) && closeEnough(float64(s.Dy), float64(o.Dy))
}

// Proj4 returns the projection definition.
func (s *PolarStereographicGrid) Proj4() string {
	lat0 := 90.0
	if s.SouthPole {
		lat0 = -90
	}
	a, b := earthAxes(s.Resolution)
	return fmt.Sprintf("+proj=stere +lat_0=%g +lat_ts=%g +lon_0=%g +a=%g +b=%g",
		lat0, math.Copysign(trueScaleLatitude, lat0), s.LoV.Degrees(), a, b)
}

// project maps lon/lat in degrees to x/y in km on the earth of the
// resolution flags, a sphere or the oblate spheroid.
func (s *PolarStereographicGrid) project(lon, lat float64) (x, y float64) {
	const d2r = math.Pi / 180
	a, b := earthAxes(s.Resolution)
	e := math.Sqrt(1 - b*b/(a*a))
	dLon := (lon - s.LoV.Degrees()) * d2r
	phi, phiC := lat*d2r, trueScaleLatitude*d2r
	if s.SouthPole {
		phi = -phi
	}
	// t is the conformal colatitude function of the ellipsoidal form.
	t := func(phi float64) float64 {
		es := e * math.Sin(phi)
		return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), e/2)
	}
	sinC := math.Sin(phiC)
	mC := math.Cos(phiC) / math.Sqrt(1-e*e*sinC*sinC)
	rho := a / metresPerKilometre * mC * t(phi) / t(phiC)
	if s.SouthPole {
		return rho * math.Sin(dLon), rho * math.Cos(dLon)
	}
	return rho * math.Sin(dLon), -rho * math.Cos(dLon)
}

func (s *PolarStereographicGrid) HorizCoordSys() (*HorizCoordSys, error) {
	x0, y0 := s.project(s.First.Lng().Degrees(), s.First.Lat().Degrees())
	return projectedCoordSys("PolarStereographic", s.Proj4(), &s.gridShape, x0, y0, float64(s.Dx), float64(s.Dy)), nil
}

// projectedCoordSys builds the axes of a projected grid from the projected
// first point in km and grid lengths in metres.
func projectedCoordSys(kind, proj4 string, shape *gridShape, x0, y0, dxMetres, dyMetres float64) *HorizCoordSys {
	dx := dxMetres / metresPerKilometre
	dy := dyMetres / metresPerKilometre
	if !shape.Scan.PointsScanInPlusIDirection() {
		dx = -dx
	}
	if !shape.Scan.PointsScanInPlusJDirection() {
		dy = -dy
	}
	return &HorizCoordSys{
		Kind:   kind,
		Proj4:  proj4,
		XUnits: "km",
		YUnits: "km",
		Nx:     shape.Nx,
		Ny:     shape.Ny,
		StartX: axisStart(x0, dx, shape.Nx),
		StartY: y0,
		DX:     math.Abs(dx),
		DY:     dy,
	}
}

func (s *PolarStereographicGrid) String() string {
	pole := "north"
	if s.SouthPole {
		pole = "south"
	}
	return fmt.Sprintf("PolarStereographic %dx%d first=(%s) lov=%g dx=%dm dy=%dm pole=%s scan=%s",
		s.Nx, s.Ny, s.First, s.LoV.Degrees(), s.Dx, s.Dy, pole, s.Scan)
}
