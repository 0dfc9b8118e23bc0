package grib1

import (
	"encoding/binary"
	"fmt"
	"io"
)

/*
Note on endinaness:

SPECIFICATIONS OF OCTET CONTENTS
Notes:
(1) Octets are numbered 1, 2, 3, etc., starting at the beginning of each section.
(2) In the following, bit positions within octets are referred to as bit 1 to bit 8, where bit 1 is the most significant and bit
8 is the least significant bit. Thus, an octet with only bit 8 set to 1 would have the integer value 1.

Signed GRIB1 integers are sign-magnitude, not two's complement.
*/

func parse4ByteUint(byte0, byte1, byte2, byte3 byte) uint32 {
	return binary.BigEndian.Uint32([]byte{byte0, byte1, byte2, byte3})
}

func parse3ByteUint(byte0, byte1, byte2 byte) uint32 {
	return uint32(byte0)<<16 | uint32(byte1)<<8 | uint32(byte2)
}

func parse2ByteUint(byte0, byte1 byte) uint32 {
	return uint32(byte0)<<8 | uint32(byte1)
}

func parse2ByteInt(byte0, byte1 byte) int32 {
	// A negative value of D shall be indicated by setting the high-order bit (bit 1) in the left-hand octet to 1 (on).
	unsigned := parse2ByteUint(byte0, byte1)
	absValue := (unsigned & 0b0111111111111111)
	negative := unsigned&(1<<15) != 0
	if negative {
		return -1 * int32(absValue)
	}
	return int32(absValue)
}

func parse3ByteInt(byte0, byte1, byte2 byte) int32 {
	unsigned := parse3ByteUint(byte0, byte1, byte2)
	absValue := (unsigned & 0b011111111111111111111111)
	negative := unsigned&(1<<23) != 0
	if negative {
		return -1 * int32(absValue)
	}
	return int32(absValue)
}

// The octet helpers below take 1-based octet numbers, matching the tables
// pasted in the section parsers.

func octet(b []byte, n int) int {
	return int(b[n-1])
}

func uint16At(b []byte, n int) int {
	return int(parse2ByteUint(b[n-1], b[n]))
}

func uint24At(b []byte, n int) int {
	return int(parse3ByteUint(b[n-1], b[n], b[n+1]))
}

func int16At(b []byte, n int) int {
	return int(parse2ByteInt(b[n-1], b[n]))
}

func int24At(b []byte, n int) int {
	return int(parse3ByteInt(b[n-1], b[n], b[n+1]))
}

// ReadBytesAt reads exactly n bytes at byte offset off of r.
func ReadBytesAt(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("reading %d bytes @ offset %d: %w", n, off, err)
	}
	return buf, nil
}

// ReadUint24At reads an unsigned big-endian 3 byte integer at byte offset off of r.
func ReadUint24At(r io.ReaderAt, off int64) (uint32, error) {
	b, err := ReadBytesAt(r, off, 3)
	if err != nil {
		return 0, err
	}
	return parse3ByteUint(b[0], b[1], b[2]), nil
}

// ReadUint32At reads an unsigned big-endian 4 byte integer at byte offset off of r.
func ReadUint32At(r io.ReaderAt, off int64) (uint32, error) {
	b, err := ReadBytesAt(r, off, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint24 decodes an unsigned big-endian 3 byte integer from b.
func Uint24(b []byte) uint32 {
	return parse3ByteUint(b[0], b[1], b[2])
}
