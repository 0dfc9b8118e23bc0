package grib1

import "fmt"

const (
	// IndicatorLength is the size of section 0.
	IndicatorLength = 8

	// Magic starts every GRIB message.
	Magic = "GRIB"

	// Trailer ends every GRIB message.
	Trailer = "7777"

	// largeMessageFlag is set in the total length by encoders following the
	// ECMWF large message convention; the real length must be recovered.
	largeMessageFlag = 0x800000
)

// IndicatorSection is section 0 of a GRIB1 message.
type IndicatorSection struct {
	MessageLength uint32
	Edition       uint8
}

// Large reports whether the total length uses the ECMWF convention for
// messages longer than 8 MB.
func (is IndicatorSection) Large() bool {
	return is.MessageLength&largeMessageFlag != 0
}

// ParseIndicator decodes the eight bytes of section 0.
func ParseIndicator(data []byte) (IndicatorSection, error) {
	/* https://apps.ecmwf.int/codes/grib/format/grib1/overview

	Octets	Key	Type	Content
	1-4	identifier	ascii	GRIB (coded according to the CCITT International Alphabet No. 5)
	5-7	totalLength	unsigned	Total length of GRIB message (including Section 0)
	8	editionNumber	unsigned	GRIB edition number (currently 1)
	*/

	if len(data) < IndicatorLength {
		return IndicatorSection{}, fmt.Errorf("invalid GRIB message < %d bytes long", IndicatorLength)
	}
	if got, want := string(data[0:4]), Magic; got != want {
		return IndicatorSection{}, fmt.Errorf("first four bytes = %q, want %q", got, want)
	}
	is := IndicatorSection{
		MessageLength: parse3ByteUint(data[4], data[5], data[6]),
		Edition:       data[7],
	}
	if is.Edition != 1 {
		return is, fmt.Errorf("got GRIB edition %d, expected edition 1", is.Edition)
	}
	return is, nil
}
