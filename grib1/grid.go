package grib1

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// GridDescriptor is a decoded horizontal grid. The implementations are
// *LatLonGrid, *GaussianGrid, *PolarStereographicGrid,
// *LambertConformalGrid, *MercatorGrid and *RotatedLatLonGrid.
type GridDescriptor interface {
	// Template returns the data representation type of the grid.
	Template() DataRepresentationType
	// Shape returns the number of points along x and y. For quasi-regular
	// grids nx is the longest row.
	Shape() (nx, ny int)
	// Rows returns the number of points of each row of a quasi-regular
	// grid, or nil for a regular grid.
	Rows() []int
	// NumPoints is the number of values encoded for the grid.
	NumPoints() int
	ScanMode() ScanMode
	// Equal compares shape, scan mode and projection parameters with a
	// tolerance on the float fields.
	Equal(other GridDescriptor) bool
	// HorizCoordSys returns the parameters of the grid's x/y coordinates.
	HorizCoordSys() (*HorizCoordSys, error)
	String() string

	isGrid()
}

// ThinSentinel is the raw Ni or Nj value of a quasi-regular grid.
const ThinSentinel = 0xFFFF

// undefinedIncrement is the raw value of a direction increment that is
// not given.
const undefinedIncrement = 0xFFFF

// gridShape holds the fields shared by every template.
type gridShape struct {
	Nx, Ny     int
	Resolution ResolutionFlags
	Scan       ScanMode
	// RowPoints is set for quasi-regular grids only.
	RowPoints []int
}

func (s *gridShape) Shape() (int, int) { return s.Nx, s.Ny }
func (s *gridShape) Rows() []int       { return s.RowPoints }
func (s *gridShape) ScanMode() ScanMode { return s.Scan }
func (s *gridShape) isGrid()            {}

func (s *gridShape) NumPoints() int {
	if s.RowPoints != nil {
		n := 0
		for _, r := range s.RowPoints {
			n += r
		}
		return n
	}
	return s.Nx * s.Ny
}

func (s *gridShape) equalShape(o *gridShape) bool {
	if s.Nx != o.Nx || s.Ny != o.Ny || s.Scan != o.Scan || len(s.RowPoints) != len(o.RowPoints) {
		return false
	}
	for i := range s.RowPoints {
		if s.RowPoints[i] != o.RowPoints[i] {
			return false
		}
	}
	return true
}

// parseShape reads Ni/Nj (octets 7-10), the resolution flags and the scan
// mode, expanding quasi-regular rows when Ni is the thin sentinel.
func parseShape(raw []byte, resolutionOctet, scanOctet int) (gridShape, error) {
	s := gridShape{
		Nx:         uint16At(raw, 7),
		Ny:         uint16At(raw, 9),
		Resolution: ResolutionFlags(octet(raw, resolutionOctet)),
		Scan:       ScanMode(octet(raw, scanOctet)),
	}
	if s.Ny == ThinSentinel {
		return s, unsupportedf("quasi-regular grid with variable column lengths")
	}
	if s.Nx == ThinSentinel {
		rows, err := rowCounts(raw, s.Ny)
		if err != nil {
			return s, err
		}
		s.RowPoints = rows
		s.Nx = 0
		for _, r := range rows {
			if r > s.Nx {
				s.Nx = r
			}
		}
	}
	if s.Nx <= 0 || s.Ny <= 0 {
		return s, corruptf("invalid grid dimensions %dx%d", s.Nx, s.Ny)
	}
	return s, nil
}

// closeEnough compares two derived float fields. Exact float equality is
// never used for grid identity.
func closeEnough(a, b float64) bool {
	return floats.EqualWithinAbsOrRel(a, b, 1e-4, 1e-6)
}

// ResolutionFlags describes a value from table 7 https://codes.ecmwf.int/grib/format/grib1/flag/7/.
type ResolutionFlags uint8

const (
	directionIncrementsGiven     = 1 << 7
	earthAssumedOblateSpheroidal = 1 << 6
	uvRelativeToGrid             = 1 << 3
)

// DirectionIncrementsGiven reports whether Di and Dj are present.
func (f ResolutionFlags) DirectionIncrementsGiven() bool {
	return (f & directionIncrementsGiven) != 0
}

// EarthOblate reports whether the earth is an IAU 1965 oblate spheroid.
func (f ResolutionFlags) EarthOblate() bool {
	return (f & earthAssumedOblateSpheroidal) != 0
}

// UVRelativeToGrid reports whether vector components are resolved
// relative to the grid rather than easterly/northerly.
func (f ResolutionFlags) UVRelativeToGrid() bool {
	return (f & uvRelativeToGrid) != 0
}

// ScanMode is a value for the codepoint flag described here:
// https://codes.ecmwf.int/grib/format/grib1/flag/8/. It affects
// how grid representation incrementing works.
type ScanMode uint8

func (m ScanMode) String() string {
	iDir := "-i"
	if m.PointsScanInPlusIDirection() {
		iDir = "+i"
	}
	jDir := "-j"
	if m.PointsScanInPlusJDirection() {
		jDir = "+j"
	}
	adj := "jDirAdj"
	if m.AdjacentPointsInIDirectionAreConsecutive() {
		adj = "iDirAdj"
	}

	return fmt.Sprintf("(%s, %s, %s)", iDir, jDir, adj)
}

const (
	pointsScanInMinusIDirection    = 1 << 7
	pointsScanInPlusJDirection     = 1 << 6
	adjPointsJDirectionConsecutive = 1 << 5
)

// PointsScanInPlusIDirection is false when rows run east to west.
func (m ScanMode) PointsScanInPlusIDirection() bool {
	return (m & pointsScanInMinusIDirection) == 0
}

// PointsScanInPlusJDirection is true when rows run south to north.
func (m ScanMode) PointsScanInPlusJDirection() bool {
	return (m & pointsScanInPlusJDirection) != 0
}

// AdjacentPointsInIDirectionAreConsecutive is false for column major data.
func (m ScanMode) AdjacentPointsInIDirectionAreConsecutive() bool {
	return (m & adjPointsJDirectionConsecutive) == 0
}

// GridKind names the variant of g. It is the single place where the set
// of variants is enumerated.
func GridKind(g GridDescriptor) (string, error) {
	switch g.(type) {
	case *LatLonGrid:
		return "LatLon", nil
	case *GaussianGrid:
		return "GaussianLatLon", nil
	case *PolarStereographicGrid:
		return "PolarStereographic", nil
	case *LambertConformalGrid:
		return "LambertConformal", nil
	case *MercatorGrid:
		return "Mercator", nil
	case *RotatedLatLonGrid:
		return "RotatedLatLon", nil
	}
	return "", unsupportedf("grid descriptor %T", g)
}

// GridName returns a short name for a grid, for example "LatLon_181X360".
func GridName(g GridDescriptor) string {
	kind, err := GridKind(g)
	if err != nil {
		kind = "Grid"
	}
	nx, ny := g.Shape()
	if g.Rows() != nil {
		return fmt.Sprintf("%s_%dX%d-thin", kind, ny, nx)
	}
	return fmt.Sprintf("%s_%dX%d", kind, ny, nx)
}
