package grib1

import (
	"fmt"
	"time"
)

// ProductDefinition has information about the contents of a Message.
type ProductDefinition struct {
	raw []byte

	section1Length              uint32 // parse3ByteUint(data[0], data[1], data[2])
	table2Version               uint8  // data[3]
	center                      uint8  // data[4]
	generatingProcessIdentifier uint8  // data[5]
	gridDefinition              uint8  // data[6]
	section1Flags               uint8  // data[7]
	// Indicator of parameter (see Code table 2).
	//
	// This might indicate the type of data represented? e.g., 169 corresponds to
	// downward solar radiation. https://apps.ecmwf.int/codes/grib/param-db/?id=169
	indicatorOfParameter                     IndicatorOfParameter // data[8]
	indicatorOfTypeOfLevel                   uint8                // data[9]
	level1, level2                           uint8                // data[10], data[11]
	yearOfCentury                            uint8                // data[12]
	month                                    uint8                // data[13]
	day                                      uint8                // data[14]
	hour                                     uint8                // data[15]
	minute                                   uint8                // data[16]
	unitOfTimeRange                          UnitOfTime           // data[17]
	p1                                       uint8                // data[18]
	p2                                       uint8                // data[19]
	timeRangeIndicator                       uint8                // data[20]
	numberIncludedInAverage                  uint32               // parse2ByteUint(data[21], data[22])
	numberMissingFromAveragesOrAccumulations uint8                // data[23]
	centuryOfReferenceTimeOfData             uint8                // data[24]
	subCentre                                uint8                // data[25]
	decimalScaleFactor                       int32                // parse2ByteInt(data[26], data[27])
}

// IndicatorOfParameter is one of the values from the table defined here: https://codes.ecmwf.int/grib/format/grib1/parameter/2/.
//
// A machine readable list of parameters can be obtianed from https://codes.ecmwf.int/grib/json/.
type IndicatorOfParameter uint8

const (
	ParameterID10MeterUWindComponent          = 165
	ParameterID10MeterVWindComponent          = 166
	ParameterIDSurfaceSolarRadiationDownwards = 169
)

// MaxStandardParameter is the last parameter number of the international
// part of table 2; numbers above it are centre specific.
const MaxStandardParameter = 127

/*
	Code table 1 – Flag indication relative to Sections 2 and 3

Bit No. Value Meaning
1       0     Section 2 omitted
1       1     Section 2 included
2       0     Section 3 omitted
2       1     Section 3 included
Note: Bits enumerated from left to right.
*/
const (
	section2Included = 1 << 7
	section3Included = 1 << 6
)

// ParseProductDefinition decodes section 1 from raw. The returned value
// keeps a copy of the section bytes, see Raw.
func ParseProductDefinition(raw []byte) (*ProductDefinition, error) {
	p := &ProductDefinition{}
	n, err := p.parseBytes(raw)
	if err != nil {
		return nil, err
	}
	p.raw = append([]byte(nil), raw[:n]...)
	return p, nil
}

func (s *ProductDefinition) parseBytes(data []byte) (int, error) {
	/* https://apps.ecmwf.int/codes/grib/format/grib1/sections/1/

		Octets	Key	Type	Content
	1-3	section1Length	unsigned	Length of section
	4	table2Version	unsigned	GRIB tables Version No. (currently 3 for international exchange) Version numbers 128-254 are reserved for local use
	5	centre	codetable	Identification of originating/generating centre (see Code table 0 = Common Code table C1 in Part C/c.)
	6	generatingProcessIdentifier	unsigned	Generating process identification number (allocated by originating centre)
	7	gridDefinition	unsigned	Grid definition (Number of grid used from catalogue defined by originating centre)
	8	section1Flags	codeflag	Flag (see Regulation 92.3.2 and Code table 1)
	9	indicatorOfParameter	codetable	Indicator of parameter (see Code table 2)
	10	indicatorOfTypeOfLevel	codetable	Indicator of type of level (see Code table 3)
	11-12			Height, pressure, etc. of levels (see Code table 3)
	13	yearOfCentury	unsigned	Year of century
	14	month	unsigned	Month      Reference time of data date and time of
	15	day	unsigned	Day          start of averaging or accumulation period
	16	hour	unsigned	Hour
	17	minute	unsigned	Minute
	18	unitOfTimeRange	codetable	Indicator of unit of time range (see Code table 4)
	19	P1	unsigned	P1 Period of time (number of time units) (0 for analyses or initialized analyses). Units of time given by octet 18
	20	P2	unsigned	P2 Period of time (number of time units); or Time interval between successive analyses, initialized analyses or forecasts, undergoing averaging or accumulation. Units of time given by octet 18
	21	timeRangeIndicator	codetable	Time range indicator (see Code table 5)
	22-23	numberIncludedInAverage	unsigned	Number included in average, when octet 21 (Code table 5) indicates an average or accumulation; otherwise set to zero
	24	numberMissingFromAveragesOrAccumulations	unsigned	Number missing from averages or accumulations
	25	centuryOfReferenceTimeOfData	unsigned	Century of reference time of data
	26	subCentre	codetable	Sub-centre identification (see common Code table C1 in Part C/c., Note (3))
	27-28	decimalScaleFactor	signed	Units decimal scale factor (D)
	29-40			Reserved: need not be present
	41-nn			Reserved for originating centre use
	*/

	if len(data) < 28 { // data[27] should be decimalScaleFactor
		return 0, corruptf("section 1 must be at least 28 bytes long, got %d", len(data))
	}
	s.section1Length = parse3ByteUint(data[0], data[1], data[2])
	if s.section1Length < 28 {
		return 0, corruptf("section 1 claims length %d, minimum is 28", s.section1Length)
	}
	if int(s.section1Length) > len(data) {
		return 0, corruptf("section 1 claims its length %d is greater than data size %d", s.section1Length, len(data))
	}
	s.table2Version = data[3]
	s.center = data[4]
	s.generatingProcessIdentifier = data[5]
	s.gridDefinition = data[6]
	s.section1Flags = data[7]
	s.indicatorOfParameter = IndicatorOfParameter(data[8])
	s.indicatorOfTypeOfLevel = data[9]
	s.level1 = data[10]
	s.level2 = data[11]
	s.yearOfCentury = data[12]
	s.month = data[13]
	s.day = data[14]
	s.hour = data[15]
	s.minute = data[16]
	s.unitOfTimeRange = UnitOfTime(data[17])
	s.p1 = data[18]
	s.p2 = data[19]
	s.timeRangeIndicator = data[20]
	s.numberIncludedInAverage = parse2ByteUint(data[21], data[22])
	s.numberMissingFromAveragesOrAccumulations = data[23]
	s.centuryOfReferenceTimeOfData = data[24]
	s.subCentre = data[25]
	s.decimalScaleFactor = parse2ByteInt(data[26], data[27])
	s.raw = data[:s.section1Length]

	return int(s.section1Length), nil
}

// Raw returns the bytes of the section.
func (s *ProductDefinition) Raw() []byte { return s.raw }

func (s *ProductDefinition) gridDescriptionSectionIncluded() bool {
	return (s.section1Flags & section2Included) != 0
}

// BitmapIncluded reports whether section 3 is present.
func (s *ProductDefinition) BitmapIncluded() bool {
	return (s.section1Flags & section3Included) != 0
}

// GridDescriptionIncluded reports whether section 2 is present. When it is
// not, GridNumber names a grid from the centre's catalogue.
func (s *ProductDefinition) GridDescriptionIncluded() bool {
	return s.gridDescriptionSectionIncluded()
}

func (p *ProductDefinition) IndicatorOfParameter() IndicatorOfParameter {
	return p.indicatorOfParameter
}

// Parameter returns the parameter number from table 2.
func (p *ProductDefinition) Parameter() int { return int(p.indicatorOfParameter) }

// TableVersion returns the table 2 version number.
func (p *ProductDefinition) TableVersion() int { return int(p.table2Version) }

// Center returns the originating centre.
func (p *ProductDefinition) Center() int { return int(p.center) }

// SubCenter returns the originating sub-centre.
func (p *ProductDefinition) SubCenter() int { return int(p.subCentre) }

// GenProcess returns the generating process identifier.
func (p *ProductDefinition) GenProcess() int { return int(p.generatingProcessIdentifier) }

// GridNumber returns the catalogue grid number (255 for grids defined by section 2).
func (p *ProductDefinition) GridNumber() int { return int(p.gridDefinition) }

// LevelType returns the table 3 code.
func (p *ProductDefinition) LevelType() int { return int(p.indicatorOfTypeOfLevel) }

// LevelOctets returns octets 11 and 12.
func (p *ProductDefinition) LevelOctets() (int, int) { return int(p.level1), int(p.level2) }

// LevelValues returns the scaled level values, see LevelType.Values.
func (p *ProductDefinition) LevelValues() (float64, float64) {
	return LookupLevel(p.LevelType()).Values(int(p.level1), int(p.level2))
}

// TimeUnit returns the unit of P1 and P2.
func (p *ProductDefinition) TimeUnit() UnitOfTime { return p.unitOfTimeRange }

// P1 returns octet 19.
func (p *ProductDefinition) P1() int { return int(p.p1) }

// P2 returns octet 20.
func (p *ProductDefinition) P2() int { return int(p.p2) }

// TimeRangeIndicator returns the code table 5 value.
func (p *ProductDefinition) TimeRangeIndicator() int { return int(p.timeRangeIndicator) }

// NumberIncludedInAverage returns octets 22-23.
func (p *ProductDefinition) NumberIncludedInAverage() int { return int(p.numberIncludedInAverage) }

// NumberMissing returns octet 24.
func (p *ProductDefinition) NumberMissing() int {
	return int(p.numberMissingFromAveragesOrAccumulations)
}

// DecimalScale returns the decimal scale factor D.
func (p *ProductDefinition) DecimalScale() int { return int(p.decimalScaleFactor) }

// ReferenceTime returns the reference time in UTC.
func (p *ProductDefinition) ReferenceTime() time.Time {
	year := (int(p.centuryOfReferenceTimeOfData)-1)*100 + int(p.yearOfCentury)
	return time.Date(year, time.Month(p.month), int(p.day), int(p.hour), int(p.minute), 0, 0, time.UTC)
}

// ParamTime interprets the time range fields.
func (p *ProductDefinition) ParamTime() (ParamTime, error) {
	return NewParamTime(p.TimeRangeIndicator(), p.P1(), p.P2(), p.NumberIncludedInAverage())
}

// EnsembleMember identifies one member of an ensemble forecast.
type EnsembleMember struct {
	// Type is the perturbation type (NCEP: 1 control high res, 2 control
	// low res, 3 negative, 4 positive, 5 products; ECMWF: the type key).
	Type int
	// Number is the member or perturbation number.
	Number int
}

func (e EnsembleMember) String() string {
	return fmt.Sprintf("%d/%d", e.Type, e.Number)
}

// Ensemble returns the ensemble member described in the centre specific
// extension of section 1, if any.
func (p *ProductDefinition) Ensemble() (EnsembleMember, bool) {
	b := p.raw
	switch p.center {
	case 7: // NCEP: octet 41 application identifier 1 = ensemble
		if len(b) >= 43 && octet(b, 41) == 1 {
			return EnsembleMember{Type: octet(b, 42), Number: octet(b, 43)}, true
		}
	case 98: // ECMWF local definition 1: octet 43 type, octet 50 perturbation number
		if len(b) >= 50 && octet(b, 41) == 1 {
			return EnsembleMember{Type: octet(b, 43), Number: octet(b, 50)}, true
		}
	}
	return EnsembleMember{}, false
}

func (p *ProductDefinition) String() string {
	return fmt.Sprintf("center=%d/%d table=%d param=%d level=%d(%d,%d) ref=%s tri=%d unit=%s p1=%d p2=%d",
		p.center, p.subCentre, p.table2Version, p.indicatorOfParameter, p.indicatorOfTypeOfLevel,
		p.level1, p.level2, p.ReferenceTime().Format(time.RFC3339), p.timeRangeIndicator,
		p.unitOfTimeRange, p.p1, p.p2)
}
