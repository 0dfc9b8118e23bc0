package grib1

import (
	"fmt"
)

// MercatorGrid is a Mercator projection grid.
type MercatorGrid struct {
	gridShape
	First, Last LatLng
	// Latin is the latitude at which the projection cylinder intersects
	// the earth.
	Latin QuantizedAngle
	// Di and Dj are grid lengths in metres at Latin.
	Di, Dj int
}

func parseMercatorGrid(raw []byte) (*MercatorGrid, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/grids/1/

	Octets	Key	Type	Content
	7-8	Ni	unsigned	Ni number of points along a parallel
	9-10	Nj	unsigned	Nj number of points along a meridian
	11-13	latitudeOfFirstGridPoint	signed	La1 latitude of first grid point
	14-16	longitudeOfFirstGridPoint	signed	Lo1 longitude of first grid point
	17	resolutionAndComponentFlags	codeflag	Resolution and component flags (see Code table 7)
	18-20	latitudeOfLastGridPoint	signed	La2 latitude of last grid point
	21-23	longitudeOfLastGridPoint	signed	Lo2 longitude of last grid point
	24-26	Latin	signed	Latin latitude(s) at which the Mercator projection cylinder intersects the earth
	27			Reserved
	28	scanningMode	codeflag	Scanning mode (flags see Flag/Code table 8)
	29-31	DiInMetres	unsigned	Di longitudinal direction grid length
	32-34	DjInMetres	unsigned	Dj latitudinal direction grid length
	35-42			Reserved
	*/
	if len(raw) < 34 {
		return nil, corruptf("mercator grid section has %d bytes, need 34", len(raw))
	}
	shape, err := parseShape(raw, 17, 28)
	if err != nil {
		return nil, err
	}
	if shape.RowPoints != nil {
		return nil, unsupportedf("quasi-regular mercator grid")
	}
	s := &MercatorGrid{
		gridShape: shape,
		First:     LatLng{lat: QuantizedAngle{int32(int24At(raw, 11))}, lng: QuantizedAngle{int32(int24At(raw, 14))}},
		Last:      LatLng{lat: QuantizedAngle{int32(int24At(raw, 18))}, lng: QuantizedAngle{int32(int24At(raw, 21))}},
		Latin:     QuantizedAngle{int32(int24At(raw, 24))},
		Di:        uint24At(raw, 29),
		Dj:        uint24At(raw, 32),
	}
	if s.Di == 0 || s.Dj == 0 {
		return nil, corruptf("mercator grid with zero grid length %dx%d", s.Di, s.Dj)
	}
	return s, nil
}

func (s *MercatorGrid) Template() DataRepresentationType { return DataRepresentationTypeMM }

func (s *MercatorGrid) Equal(other GridDescriptor) bool {
	o, ok := other.(*MercatorGrid)
	if !ok {
		return false
	}
	return s.gridShape.equalShape(&o.gridShape) &&
		s.First.closeTo(o.First) && s.Last.closeTo(o.Last) &&
		closeEnough(s.Latin.Degrees(), o.Latin.Degrees()) &&
		closeEnough(float64(s.Di), float64(o.Di)) && closeEnough(float64(s.Dj), float64(o.Dj))
}

// Proj4 returns the projection definition with the central meridian at Lo1.
func (s *MercatorGrid) Proj4() string {
	a, b := earthAxes(s.Resolution)
	return fmt.Sprintf("+proj=merc +lat_ts=%g +lon_0=%g +a=%g +b=%g",
		s.Latin.Degrees(), s.First.Lng().Degrees(), a, b)
}

func (s *MercatorGrid) HorizCoordSys() (*HorizCoordSys, error) {
	p := s.Proj4()
	x0, y0, err := projectPoint(p, s.Resolution, s.First.Lng().Degrees(), s.First.Lat().Degrees())
	if err != nil {
		return nil, err
	}
	return projectedCoordSys("Mercator", p, &s.gridShape, x0, y0, float64(s.Di), float64(s.Dj)), nil
}

func (s *MercatorGrid) String() string {
	return fmt.Sprintf("Mercator %dx%d first=(%s) last=(%s) latin=%g di=%dm dj=%dm scan=%s",
		s.Nx, s.Ny, s.First, s.Last, s.Latin.Degrees(), s.Di, s.Dj, s.Scan)
}
