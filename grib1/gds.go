package grib1

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// DataRepresentationType indicates the data representation used.
type DataRepresentationType uint8

const (
	// DataRepresentationTypeLL indicates Latitude/Longitude Grid.
	DataRepresentationTypeLL DataRepresentationType = 0
	// DataRepresentationTypeMM indicates Mercator Projection Grid.
	DataRepresentationTypeMM DataRepresentationType = 1
	// DataRepresentationTypeGP indicates Gnomonic Projection Grid.
	DataRepresentationTypeGP DataRepresentationType = 2
	// DataRepresentationTypeLC indicates Lambert Conformal.
	DataRepresentationTypeLC DataRepresentationType = 3
	// DataRepresentationTypeGG indicates Gaussian Latitude/Longitude Grid.
	DataRepresentationTypeGG DataRepresentationType = 4
	// DataRepresentationTypePS indicates Polar Stereographic Projection Grid.
	DataRepresentationTypePS DataRepresentationType = 5
	// DataRepresentationType10 indicates Rotated Latitude/Longitude grid.
	DataRepresentationType10 DataRepresentationType = 10
	// DataRepresentationType14 indicates Rotated Gaussian latitude/longitude grid.
	DataRepresentationType14 DataRepresentationType = 14
	// DataRepresentationTypeSH indicates Spherical Harmonic Coefficients.
	DataRepresentationTypeSH DataRepresentationType = 50
	// DataRepresentationTypeSV indicates Space view perspective or orthographic grid.
	DataRepresentationTypeSV DataRepresentationType = 90
)

func (t DataRepresentationType) String() string {
	switch t {
	case DataRepresentationTypeLL:
		return "LatLon"
	case DataRepresentationTypeMM:
		return "Mercator"
	case DataRepresentationTypeGP:
		return "Gnomonic"
	case DataRepresentationTypeLC:
		return "LambertConformal"
	case DataRepresentationTypeGG:
		return "GaussianLatLon"
	case DataRepresentationTypePS:
		return "PolarStereographic"
	case DataRepresentationType10:
		return "RotatedLatLon"
	case DataRepresentationType14:
		return "RotatedGaussian"
	case DataRepresentationTypeSH:
		return "SphericalHarmonic"
	case DataRepresentationTypeSV:
		return "SpaceView"
	}
	return fmt.Sprintf("template%d", uint8(t))
}

// GridDefinition is section 2 of a message in its undecoded form, or a
// reference to a centre's predefined grid when section 2 is absent.
//
// Decoding is an explicit second step: Decode is pure, EnsureDecoded
// memoizes the result on the receiver and must not race with other calls
// on the same value.
type GridDefinition struct {
	raw []byte

	// Section fields, zero for predefined grids.
	section2Length                   uint32
	numberOfVerticalCoordinateValues uint8
	pvlLocation                      uint8
	dataRepresentationType           DataRepresentationType

	predefined       bool
	center, gridNumb int

	hash    uint64
	decoded GridDescriptor
}

// ParseGridDefinition copies section 2 from the front of data.
func ParseGridDefinition(data []byte) (*GridDefinition, error) {
	s := &GridDefinition{}
	n, err := s.parseBytes(data)
	if err != nil {
		return nil, err
	}
	s.raw = append([]byte(nil), data[:n]...)
	s.hash = xxhash.Sum64(s.raw)
	return s, nil
}

// NewPredefinedGridDefinition refers to grid gridNumber of centre's catalogue.
func NewPredefinedGridDefinition(center, gridNumber int) *GridDefinition {
	return &GridDefinition{
		predefined: true,
		center:     center,
		gridNumb:   gridNumber,
		hash:       xxhash.Sum64String(fmt.Sprintf("predefined:%d:%d", center, gridNumber)),
	}
}

func (s *GridDefinition) parseBytes(data []byte) (int, error) {
	/* https://apps.ecmwf.int/codes/grib/format/grib1/sections/2/

		Octets	Key	Type	Content
	1-3	section2Length	unsigned	Length of section (octets)
	4	numberOfVerticalCoordinateValues	unsigned	NV number of vertical coordinate parameters
	5	pvlLocation	unsigned	PV location (octet number) of the list of vertical coordinate parameters, if present; or PL location (octet number) of the list of numbers of points in each row (if no vertical coordinate parameters are present), if present; or 255 (all bits set to 1) if neither are present
	6	dataRepresentationType	codetable	Data representation type (see Code table 6)
	7-32			Grid definition (according to data representation type octet 6 above)
	33-42			Extensions of grid definition for rotation or stretching of the coordinate system or Lambert conformal projection or Mercator projection
	PV			List of vertical coordinate parameters (length = NV × 4 octets); if present, then PL = 4NV + PV
	PL			List of numbers of points in each row (length = NROWS x 2 octets, where NROWS is the total number of rows defined within the grid description)
	*/

	if len(data) < 6 {
		return 0, corruptf("section 2 must be at least 6 bytes long, got %d", len(data))
	}
	s.section2Length = parse3ByteUint(data[0], data[1], data[2])
	s.numberOfVerticalCoordinateValues = data[3]
	s.pvlLocation = data[4]
	s.dataRepresentationType = DataRepresentationType(data[5])

	if s.section2Length < 32 {
		return 0, corruptf("section 2 claims length %d, minimum is 32", s.section2Length)
	}
	if int(s.section2Length) > len(data) {
		return 0, corruptf("section 2 claims its length %d is greater than data size %d", s.section2Length, len(data))
	}
	return int(s.section2Length), nil
}

// Raw returns the section bytes, or nil for a predefined grid.
func (s *GridDefinition) Raw() []byte { return s.raw }

// IsPredefined reports whether the grid comes from a catalogue.
func (s *GridDefinition) IsPredefined() bool { return s.predefined }

// Predefined returns the centre and catalogue number of a predefined grid.
func (s *GridDefinition) Predefined() (center, gridNumber int) { return s.center, s.gridNumb }

// Template returns the data representation type. Predefined grids report
// their catalogue template once decoded.
func (s *GridDefinition) Template() DataRepresentationType {
	if s.predefined && s.decoded != nil {
		return s.decoded.Template()
	}
	return s.dataRepresentationType
}

// Hash identifies the grid: equal raw bytes, or equal predefined ids,
// hash equal.
func (s *GridDefinition) Hash() uint64 { return s.hash }

// Decode interprets the grid. Unknown templates and unknown predefined
// grids return ErrUnsupported.
func (s *GridDefinition) Decode() (GridDescriptor, error) {
	if s.predefined {
		return PredefinedGrid(s.center, s.gridNumb)
	}
	return decodeTemplate(s.dataRepresentationType, s.raw)
}

// EnsureDecoded decodes once and returns the memoized descriptor afterwards.
func (s *GridDefinition) EnsureDecoded() (GridDescriptor, error) {
	if s.decoded != nil {
		return s.decoded, nil
	}
	g, err := s.Decode()
	if err != nil {
		return nil, err
	}
	s.decoded = g
	return g, nil
}

// DecodeGrid decodes a grid from its template code and the complete raw
// section 2 bytes.
func DecodeGrid(template DataRepresentationType, raw []byte) (GridDescriptor, error) {
	return decodeTemplate(template, raw)
}

func decodeTemplate(template DataRepresentationType, raw []byte) (GridDescriptor, error) {
	if len(raw) < 32 {
		return nil, corruptf("grid section too short: %d bytes", len(raw))
	}
	var (
		g   GridDescriptor
		err error
	)
	switch template {
	case DataRepresentationTypeLL:
		g, err = parseLatLonGrid(raw)
	case DataRepresentationTypeGG:
		g, err = parseGaussianGrid(raw)
	case DataRepresentationTypePS:
		g, err = parsePolarStereographicGrid(raw)
	case DataRepresentationTypeLC:
		g, err = parseLambertConformalGrid(raw)
	case DataRepresentationTypeMM:
		g, err = parseMercatorGrid(raw)
	case DataRepresentationType10:
		g, err = parseRotatedLatLonGrid(raw)
	default:
		return nil, unsupportedf("grid template %d (%s)", uint8(template), template)
	}
	if err != nil {
		return nil, fmt.Errorf("section 2 failed to parse %s: %w", template, err)
	}
	return g, nil
}

// rowCounts reads the PL list of a quasi-regular grid.
func rowCounts(raw []byte, nrows int) ([]int, error) {
	nv := int(raw[3])
	pvl := int(raw[4])
	if pvl == 255 || pvl == 0 {
		return nil, corruptf("quasi-regular grid without a PL list")
	}
	start := pvl - 1
	if nv > 0 {
		start += 4 * nv
	}
	if start+2*nrows > len(raw) {
		return nil, corruptf("PL list of %d rows at octet %d overflows section of %d bytes", nrows, start+1, len(raw))
	}
	rows := make([]int, nrows)
	for i := range rows {
		rows[i] = int(parse2ByteUint(raw[start+2*i], raw[start+2*i+1]))
	}
	return rows, nil
}
