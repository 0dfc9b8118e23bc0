package grib1

// Bitmap is section 3: one bit per grid point, set where a value is
// present.
type Bitmap struct {
	// 	Length of section (octets)
	section3Length uint32
	// 	Number of unused bits at end of Section 3
	numberOfUnusedBitsAtEndOfSection3 uint8
	// Table reference: If the octets contain zero, a bit-map follows If the
	// octets contain a number, it refers to a predetermined bit-map provided by
	// the centre.
	tableReference uint32

	// The bit-map contiguous bits with a bit to data point correspondence,
	// ordered as defined in the grid definition.
	values []byte
}

func (s *Bitmap) parseBytes(data []byte) (int, error) {
	/* https://codes.ecmwf.int/grib/format/grib1/sections/3/

	Octets	Key	Type	Content
	1-3	section3Length	unsigned	Length of section
	4	numberOfUnusedBitsAtEndOfSection3	unsigned	Number of unused bits at end of Section 3
	5-6	tableReference	unsigned	Table reference
	7-nn			The bit-map
	*/

	if len(data) < 6 { // data[5] should be valid
		return 0, corruptf("section 3 must be at least 6 bytes long, got %d", len(data))
	}
	s.section3Length = parse3ByteUint(data[0], data[1], data[2])
	s.numberOfUnusedBitsAtEndOfSection3 = data[3]
	s.tableReference = parse2ByteUint(data[4], data[5])

	if s.section3Length < 6 {
		return 0, corruptf("section 3 claims length %d, minimum is 6", s.section3Length)
	}
	if int(s.section3Length) > len(data) {
		return 0, corruptf("section 3 claims its length %d is greater than data size %d", s.section3Length, len(data))
	}

	if s.tableReference != 0 {
		return 0, unsupportedf("predefined bitmap %d", s.tableReference)
	}
	s.values = data[6:s.section3Length]

	return int(s.section3Length), nil
}

// Len is the number of bits of the bitmap.
func (s *Bitmap) Len() int {
	return len(s.values)*8 - int(s.numberOfUnusedBitsAtEndOfSection3)
}

// Present reports whether grid point i has a value.
func (s *Bitmap) Present(i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(s.values) {
		return false
	}
	return (s.values[byteIdx]>>uint(7-(i%8)))&1 == 1
}

// Count returns the number of points with a value among the first n.
func (s *Bitmap) Count(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		if s.Present(i) {
			c++
		}
	}
	return c
}
