package grib1

import (
	"fmt"

	"github.com/sdifrance/gribcollection/hexademicalfloatingpoint"
)

// BinaryDataSection is section 4, the packed values.
type BinaryDataSection struct {
	// 	Length of section (octets)
	section4Length uint32
	// 	Flag (see Code table 11) (first 4 bits). Number of unused bits at end of Section 4 (last 4 bits)
	dataFlag binaryDataFlag
	// Scale factor (E)
	binaryScaleFactor int32
	// Reference value (minimum of packed values)
	referenceValue float64
	// Number of bits containing each packed value
	bitsPerValue uint8

	// Variable, depending on the flag value in octet 4.
	packed []byte
}

// BDSHeaderLength is the size of the fixed part of section 4.
const BDSHeaderLength = 11

func (s *BinaryDataSection) parseBytes(data []byte, tolerant bool) (int, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/sections/4/

	1-3	section4Length	unsigned	Length of section
	4	dataFlag	codeflag	Flag (see Code table 11) (first 4 bits). Number of unused bits at end of Section 4 (last 4 bits)
	5-6	binaryScaleFactor	signed	Scale factor (E)
	7-10	referenceValue	real	Reference value (minimum of packed values)
	11	bitsPerValue	unsigned	Number of bits containing each packed value
	12-nn			Variable, depending on the flag value in octet 4
	*/

	if len(data) < BDSHeaderLength { // data[10] should be valid
		return 0, corruptf("section 4 must be at least %d bytes long, got %d", BDSHeaderLength, len(data))
	}
	s.section4Length = parse3ByteUint(data[0], data[1], data[2])
	s.dataFlag = binaryDataFlag(data[3])
	s.binaryScaleFactor = parse2ByteInt(data[4], data[5])
	s.referenceValue = hexademicalfloatingpoint.Parse32(data[6:10])
	s.bitsPerValue = data[10]

	length := int(s.section4Length)
	if tolerant {
		// The length of section 4 is not meaningful in messages using the
		// large message convention: the section runs to the trailer.
		length = len(data)
	}
	if length < BDSHeaderLength {
		return 0, corruptf("section 4 claims length %d, minimum is %d", length, BDSHeaderLength)
	}
	if length > len(data) {
		return 0, corruptf("section 4 claims its length %d is greater than data size %d", length, len(data))
	}
	if s.dataFlag.sphericalHarmonics() {
		return 0, corruptf("spherical harmonic coefficients are not supported")
	}
	if s.dataFlag.complexPacking() {
		return 0, corruptf("complex or second order packing is not supported")
	}
	if s.bitsPerValue > 32 {
		return 0, corruptf("bitsPerValue = %d exceeds 32", s.bitsPerValue)
	}
	s.packed = data[BDSHeaderLength:length]

	return length, nil
}

// BinaryScale returns E.
func (s *BinaryDataSection) BinaryScale() int { return int(s.binaryScaleFactor) }

// Reference returns R.
func (s *BinaryDataSection) Reference() float64 { return s.referenceValue }

// BitsPerValue returns the width of each packed value.
func (s *BinaryDataSection) BitsPerValue() int { return int(s.bitsPerValue) }

// UnusedBits is the number of padding bits at the end of the section.
func (s *BinaryDataSection) UnusedBits() int { return int(s.dataFlag & 0x0F) }

// IntegerValues reports whether the original data were integers.
func (s *BinaryDataSection) IntegerValues() bool { return s.dataFlag.integerValues() }

func (s *BinaryDataSection) String() string {
	return fmt.Sprintf("bds len=%d E=%d R=%g nbits=%d", s.section4Length, s.binaryScaleFactor, s.referenceValue, s.bitsPerValue)
}

// https://codes.ecmwf.int/grib/format/grib1/flag/11/
type binaryDataFlag uint8

const (
	binaryDataFlagSphericalHarmonicCoefficients = 1 << (8 - 1)
	binaryDataFlagComplexOrSecondOrderPacking   = 1 << (8 - 2)
	binaryDataFlagIntegerValues                 = 1 << (8 - 3)
	binaryDataFlagOctet14ContainsMoreFlagValues = 1 << (8 - 4)
)

func (f binaryDataFlag) sphericalHarmonics() bool {
	return f&binaryDataFlagSphericalHarmonicCoefficients != 0
}

func (f binaryDataFlag) complexPacking() bool {
	return f&(binaryDataFlagComplexOrSecondOrderPacking|binaryDataFlagOctet14ContainsMoreFlagValues) != 0
}

func (f binaryDataFlag) integerValues() bool {
	return f&binaryDataFlagIntegerValues != 0
}
