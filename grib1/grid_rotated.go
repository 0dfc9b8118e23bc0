package grib1

import (
	"fmt"

	"github.com/sdifrance/gribcollection/hexademicalfloatingpoint"
)

// RotatedLatLonGrid is a latitude/longitude grid on a sphere whose south
// pole has been moved to SouthPole and rotated by Rotation degrees.
type RotatedLatLonGrid struct {
	LatLonGrid
	SouthPole LatLng
	Rotation  float64
}

func parseRotatedLatLonGrid(raw []byte) (*RotatedLatLonGrid, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/grids/10/

	Octets	Key	Type	Content
	7-32		as data representation type 0
	33-35	latitudeOfSouthernPole	signed	Latitude of the southern pole in millidegrees
	36-38	longitudeOfSouthernPole	signed	Longitude of the southern pole in millidegrees
	39-42	angleOfRotation	ibmfloat	Angle of rotation
	*/
	if len(raw) < 42 {
		return nil, corruptf("rotated lat/lon grid section has %d bytes, need 42", len(raw))
	}
	ll, err := parseLatLonGrid(raw)
	if err != nil {
		return nil, err
	}
	return &RotatedLatLonGrid{
		LatLonGrid: *ll,
		SouthPole:  LatLng{lat: QuantizedAngle{int32(int24At(raw, 33))}, lng: QuantizedAngle{int32(int24At(raw, 36))}},
		Rotation:   hexademicalfloatingpoint.Parse32(raw[38:42]),
	}, nil
}

func (s *RotatedLatLonGrid) Template() DataRepresentationType { return DataRepresentationType10 }

func (s *RotatedLatLonGrid) Equal(other GridDescriptor) bool {
	o, ok := other.(*RotatedLatLonGrid)
	if !ok {
		return false
	}
	return s.LatLonGrid.Equal(&o.LatLonGrid) && s.SouthPole.closeTo(o.SouthPole) &&
		closeEnough(s.Rotation, o.Rotation)
}

func (s *RotatedLatLonGrid) HorizCoordSys() (*HorizCoordSys, error) {
	hcs := latLonCoordSys("RotatedLatLon", &s.gridShape, s.First, s.Di, s.Dj)
	hcs.SouthPoleLat = s.SouthPole.Lat().Degrees()
	hcs.SouthPoleLon = s.SouthPole.Lng().Degrees()
	hcs.Rotation = s.Rotation
	hcs.Proj4 = fmt.Sprintf("+proj=ob_tran +o_proj=longlat +o_lat_p=%g +o_lon_p=%g +lon_0=%g",
		-hcs.SouthPoleLat, s.Rotation, normalizeLon(hcs.SouthPoleLon+180))
	return hcs, nil
}

func (s *RotatedLatLonGrid) String() string {
	return fmt.Sprintf("RotatedLatLon %dx%d first=(%s) last=(%s) di=%g dj=%g pole=(%s) rot=%g scan=%s",
		s.Nx, s.Ny, s.First, s.Last, s.Di.Degrees(), s.Dj.Degrees(), s.SouthPole, s.Rotation, s.Scan)
}
