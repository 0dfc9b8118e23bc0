// Package grib1 contains a parser for GRIB messages that use edition 1.
//
// The specification for GRIB1 is available as PDF from
// https://wmoomm.sharepoint.com/sites/wmocpdb/eve_activityarea/Forms/AllItems.aspx?id=%2Fsites%2Fwmocpdb%2Feve%5Factivityarea%2FWMO%20Codes%2FWMO306%5FvI2%2FPrevEDITIONS%2FGRIB1%2FWMO306%5FvI2%5FGRIB1%5Fen%2Epdf&parent=%2Fsites%2Fwmocpdb%2Feve%5Factivityarea%2FWMO%20Codes%2FWMO306%5FvI2%2FPrevEDITIONS%2FGRIB1&p=true&ga=1
// and in an HTML format https://apps.ecmwf.int/codes/grib/format/grib1/sections/3/.
package grib1

import (
	"fmt"
)

// Message is a GRIB1 record.
type Message struct {
	ind     IndicatorSection
	product *ProductDefinition
	grid    *GridDefinition
	bitmap  *Bitmap
	binary  *BinaryDataSection

	// bdsOffset is the offset of section 4 from the start of the message.
	bdsOffset int
	length    int
}

// ProductDefinition returns an object that describes the data contained in the record.
//
// See https://apps.ecmwf.int/codes/grib/format/grib1/sections/1/.
func (m *Message) ProductDefinition() *ProductDefinition {
	return m.product
}

// Bitmap returns the bitmap infromation stored in the message, or nil.
func (m *Message) Bitmap() *Bitmap {
	return m.bitmap
}

// GridDefinition returns section 2, or a predefined grid reference when the
// message has no section 2.
func (m *Message) GridDefinition() *GridDefinition {
	return m.grid
}

// BinaryData returns section 4.
func (m *Message) BinaryData() *BinaryDataSection {
	return m.binary
}

// Indicator returns section 0.
func (m *Message) Indicator() IndicatorSection { return m.ind }

// BDSOffset is the byte offset of section 4 from the start of the message.
func (m *Message) BDSOffset() int { return m.bdsOffset }

// Len is the number of bytes of the message including the trailer.
func (m *Message) Len() int { return m.length }

// String returns a summary description of the message.
func (m *Message) String() string {
	suffix := ""

	if m.grid != nil {
		if m.grid.IsPredefined() {
			c, n := m.grid.Predefined()
			suffix += fmt.Sprintf(" grid = predefined %d/%d", c, n)
		} else {
			suffix += fmt.Sprintf(" datarep = %d", m.grid.dataRepresentationType)
		}
	}

	switch m.product.indicatorOfParameter {
	case ParameterIDSurfaceSolarRadiationDownwards:
		suffix += " (SOLAR DOWNWARD RADIATION)"
	case ParameterID10MeterUWindComponent:
		suffix += " (eastward component of the 10m wind)"
	case ParameterID10MeterVWindComponent:
		suffix += " (northward component of the 10m wind)"
	}

	return fmt.Sprintf("indicator of parameter = %d; table2Version = %d; center = %d%s", m.product.indicatorOfParameter, m.product.table2Version, m.product.center, suffix)
}

// Read reads data from a raw GRIB file and returns a slice of parsed messages.
//
// Multiple messages may be present in a single .grib file. Zero padding
// between messages is skipped; any other garbage is an error. Use gribio to
// scan files that may contain garbage.
func Read(data []byte) ([]*Message, error) {
	var out []*Message
	unconsumed := data
	offset := 0
	for len(unconsumed) > 0 {
		record, bytesRead, err := read1MaybeZeroPadded(unconsumed)
		if err != nil {
			return nil, fmt.Errorf("error reading GRIB record @ byte offset %d: %w", offset, err)
		}
		if record != nil {
			out = append(out, record)
		}
		unconsumed = unconsumed[bytesRead:]
		offset += bytesRead
	}
	return out, nil
}

func read1MaybeZeroPadded(data []byte) (*Message, int, error) {
	// It seems some files include zeros at the beginning. Read all the zeros before calling read1.
	zerosConsumed := 0
	for {
		if len(data) == 0 {
			return nil, zerosConsumed, nil
		}
		if data[0] == 0 {
			zerosConsumed++
			data = data[1:]
			continue
		}
		got, recordBytes, err := Read1(data)
		return got, recordBytes + zerosConsumed, err
	}
}

// Read1 reads a single GRIB1 message from the front of data, using the
// length declared in section 0.
func Read1(data []byte) (*Message, int, error) {
	ind, err := ParseIndicator(data)
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing indicator section: %w", err)
	}
	if ind.Large() {
		return nil, 0, unsupportedf("message uses the large message length convention, scan it with gribio")
	}
	n := int(ind.MessageLength)
	if n > len(data) {
		return nil, 0, corruptf("message length %d exceeds %d available bytes", n, len(data))
	}
	m, err := Decode(data[:n])
	if err != nil {
		return nil, 0, err
	}
	return m, n, nil
}

// Decode parses exactly one message. data must start with "GRIB" and end
// with the trailer; its length is authoritative, so messages whose declared
// length was corrected by a scanner decode as well.
func Decode(data []byte) (*Message, error) {
	sec0, err := ParseIndicator(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing indicator section: %w", err)
	}
	if len(data) < IndicatorLength+len(Trailer) || string(data[len(data)-len(Trailer):]) != Trailer {
		return nil, corruptf("message of %d bytes does not end with %q", len(data), Trailer)
	}
	body := data[:len(data)-len(Trailer)]
	offset := IndicatorLength

	sec1, err := ParseProductDefinition(body[offset:])
	if err != nil {
		return nil, fmt.Errorf("error parsing product definition section: %w", err)
	}
	offset += int(sec1.section1Length)

	var sec2 *GridDefinition
	if sec1.gridDescriptionSectionIncluded() {
		sec2, err = ParseGridDefinition(body[offset:])
		if err != nil {
			return nil, fmt.Errorf("error parsing grid description section: %w", err)
		}
		offset += int(sec2.section2Length)
	} else {
		sec2 = NewPredefinedGridDefinition(sec1.Center(), sec1.GridNumber())
	}

	var sec3 *Bitmap
	if sec1.BitmapIncluded() {
		sec3 = &Bitmap{}
		bytesRead, err := sec3.parseBytes(body[offset:])
		if err != nil {
			return nil, fmt.Errorf("error parsing bitmap section: %w", err)
		}
		offset += bytesRead
	}

	bdsOffset := offset
	sec4 := &BinaryDataSection{}
	bytesRead, err := sec4.parseBytes(body[offset:], sec0.Large())
	if err != nil {
		return nil, fmt.Errorf("error parsing binary data section: %w", err)
	}
	offset += bytesRead

	if !sec0.Large() && offset+len(Trailer) != len(data) {
		return nil, corruptf("consumed %d bytes, expected to consume %d based on message length", offset+len(Trailer), len(data))
	}

	return &Message{
		ind:       sec0,
		product:   sec1,
		grid:      sec2,
		bitmap:    sec3,
		binary:    sec4,
		bdsOffset: bdsOffset,
		length:    len(data),
	}, nil
}
