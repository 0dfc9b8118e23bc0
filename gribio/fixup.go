package gribio

import (
	"bytes"
	"io"

	"github.com/sdifrance/gribcollection/grib1"
)

// LengthFixup recovers the true length of a message whose section 0 length
// cannot be taken literally.
type LengthFixup interface {
	// FixLength returns the length of the message starting at start, and
	// false when the rule does not apply.
	FixLength(r io.ReaderAt, size, start int64, ind grib1.IndicatorSection) (int64, bool)
}

// ECMWFLargeMessage handles messages above 8 MB written by ECMWF encoders:
// bit 24 of the length is set and the lower bits count 120 byte blocks.
// The section 4 length of such a message is below 120 and holds the
// padding, so the message ends at blocks*120 - length + 4. When section 4
// does not follow that convention the last trailer of the final block is
// used.
type ECMWFLargeMessage struct{}

const largeMessageBlock = 120

func (ECMWFLargeMessage) FixLength(r io.ReaderAt, size, start int64, ind grib1.IndicatorSection) (int64, bool) {
	if !ind.Large() {
		return 0, false
	}
	rounded := int64(ind.MessageLength&0x7FFFFF) * largeMessageBlock
	if n, ok := largeLengthFromBDS(r, size, start, rounded); ok {
		return n, true
	}

	lo := start + rounded - largeMessageBlock - int64(len(grib1.Trailer)) + 1
	if lo < start+grib1.IndicatorLength {
		lo = start + grib1.IndicatorLength
	}
	hi := start + rounded
	if hi > size {
		hi = size
	}
	if hi-lo < int64(len(grib1.Trailer)) {
		return 0, false
	}
	buf := make([]byte, hi-lo)
	if _, err := r.ReadAt(buf, lo); err != nil && err != io.EOF {
		return 0, false
	}
	// The block may run into the next message.
	if j := bytes.Index(buf, []byte(grib1.Magic)); j >= 0 {
		buf = buf[:j]
	}
	i := bytes.LastIndex(buf, []byte(grib1.Trailer))
	if i < 0 {
		return 0, false
	}
	return lo + int64(i) + int64(len(grib1.Trailer)) - start, true
}

// largeLengthFromBDS walks sections 1 to 3 and derives the length from the
// section 4 padding count, checking the trailer at the result.
func largeLengthFromBDS(r io.ReaderAt, size, start, rounded int64) (int64, bool) {
	off := start + grib1.IndicatorLength
	pdsLen, err := grib1.ReadUint24At(r, off)
	if err != nil || pdsLen < 8 {
		return 0, false
	}
	flags, err := grib1.ReadBytesAt(r, off+7, 1)
	if err != nil {
		return 0, false
	}
	off += int64(pdsLen)
	for _, bit := range []byte{0x80, 0x40} {
		if flags[0]&bit == 0 {
			continue
		}
		n, err := grib1.ReadUint24At(r, off)
		if err != nil || n < 3 {
			return 0, false
		}
		off += int64(n)
	}
	bdsLen, err := grib1.ReadUint24At(r, off)
	if err != nil || bdsLen >= largeMessageBlock {
		return 0, false
	}
	n := rounded - int64(bdsLen) + int64(len(grib1.Trailer))
	end := start + n
	if end <= off || end > size {
		return 0, false
	}
	tr, err := grib1.ReadBytesAt(r, end-int64(len(grib1.Trailer)), len(grib1.Trailer))
	if err != nil || string(tr) != grib1.Trailer {
		return 0, false
	}
	return n, true
}

// DefaultFixups is the fixup chain used when none is configured.
func DefaultFixups() []LengthFixup {
	return []LengthFixup{ECMWFLargeMessage{}}
}
