package gribio

import (
	"bytes"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/grib1"
)

const (
	// searchWindow is the read size used when looking for "GRIB".
	searchWindow = 64 << 10
	// maxHeader is the number of bytes kept before a message, enough for a
	// WMO bulletin header.
	maxHeader = 100
	// DefaultRecoveryWindow is how far past a bad declared end the
	// trailer is searched for.
	DefaultRecoveryWindow = 1 << 10
)

// RawMessage locates one GRIB1 message in a file.
type RawMessage struct {
	// Start is the offset of "GRIB".
	Start int64
	// End is the offset just past the trailer.
	End int64
	// Header holds up to 100 bytes found between the previous message and
	// this one.
	Header    []byte
	Indicator grib1.IndicatorSection
	// Recovered is set when the declared length was not used.
	Recovered bool
}

// Len is the length of the message in bytes.
func (m RawMessage) Len() int64 { return m.End - m.Start }

// Option configures a Scanner.
type Option func(*Scanner)

// WithFixups replaces the length fixups. No fixups disables them.
func WithFixups(f ...LengthFixup) Option {
	return func(s *Scanner) { s.fixups = f }
}

// WithRecoveryWindow sets how many bytes past a bad declared end are
// searched for the trailer. Zero disables recovery.
func WithRecoveryWindow(n int) Option {
	return func(s *Scanner) { s.recovery = n }
}

// Scanner iterates over the GRIB1 messages of a file, skipping garbage,
// messages of other editions and messages whose trailer cannot be found.
//
//	s := gribio.NewScanner(f, size)
//	for s.Scan() {
//		m := s.Message()
//		...
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
type Scanner struct {
	r        io.ReaderAt
	size     int64
	fixups   []LengthFixup
	recovery int

	pos     int64
	lastEnd int64
	msg     RawMessage
	err     error

	// Skipped counts messages dropped because no trailer was found.
	Skipped int
}

// NewScanner returns a scanner over the first size bytes of r.
func NewScanner(r io.ReaderAt, size int64, opts ...Option) *Scanner {
	s := &Scanner{
		r:        r,
		size:     size,
		fixups:   DefaultFixups(),
		recovery: DefaultRecoveryWindow,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Pos returns the offset at which the next Scan starts searching.
func (s *Scanner) Pos() int64 { return s.pos }

// Reset moves the scanner to pos and clears its state.
func (s *Scanner) Reset(pos int64) {
	s.pos, s.lastEnd = pos, pos
	s.msg, s.err = RawMessage{}, nil
}

// Message returns the message found by the last call to Scan.
func (s *Scanner) Message() RawMessage { return s.msg }

// Err returns the first I/O error, nil at a clean end of file.
func (s *Scanner) Err() error { return s.err }

// Scan advances to the next message.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for {
		start, err := s.findMagic(s.pos, s.size)
		if err != nil {
			s.err = err
			return false
		}
		if start < 0 {
			s.pos = s.size
			return false
		}
		if start+grib1.IndicatorLength > s.size {
			s.pos = s.size
			return false
		}
		head, err := grib1.ReadBytesAt(s.r, start, grib1.IndicatorLength)
		if err != nil {
			s.err = err
			return false
		}
		if head[7] != 1 {
			glog.V(2).Infof("skipping GRIB edition %d message @ byte offset %d", head[7], start)
			s.pos = start + 1
			continue
		}
		ind, err := grib1.ParseIndicator(head)
		if err != nil {
			s.pos = start + 1
			continue
		}

		end, recovered, ok := s.messageEnd(start, ind)
		if !ok {
			glog.Warningf("no trailer for GRIB1 message @ byte offset %d (declared length %d), skipping", start, ind.MessageLength)
			s.Skipped++
			s.pos = start + 1
			continue
		}

		header, err := s.header(start)
		if err != nil {
			s.err = err
			return false
		}
		s.msg = RawMessage{Start: start, End: end, Header: header, Indicator: ind, Recovered: recovered}
		s.pos, s.lastEnd = end, end
		return true
	}
}

// messageEnd checks the trailer at the declared or fixed up end, falling
// back to a search past it.
func (s *Scanner) messageEnd(start int64, ind grib1.IndicatorSection) (int64, bool, bool) {
	length := int64(ind.MessageLength)
	fixed := false
	for _, f := range s.fixups {
		if n, ok := f.FixLength(s.r, s.size, start, ind); ok {
			length, fixed = n, true
			break
		}
	}
	end := start + length
	if length >= grib1.IndicatorLength+int64(len(grib1.Trailer)) && end <= s.size {
		tr, err := grib1.ReadBytesAt(s.r, end-int64(len(grib1.Trailer)), len(grib1.Trailer))
		if err == nil && string(tr) == grib1.Trailer {
			return end, fixed, true
		}
	}
	glog.Warningf("GRIB1 message @ byte offset %d: trailer not found at declared end %d", start, end)
	if s.recovery <= 0 {
		return 0, false, false
	}
	lo := end - int64(len(grib1.Trailer))
	if lo < start+grib1.IndicatorLength {
		lo = start + grib1.IndicatorLength
	}
	hi := end + int64(s.recovery)
	if hi > s.size {
		hi = s.size
	}
	if hi-lo < int64(len(grib1.Trailer)) {
		return 0, false, false
	}
	buf, err := grib1.ReadBytesAt(s.r, lo, int(hi-lo))
	if err != nil {
		return 0, false, false
	}
	// The trailer of a later message does not belong to this one.
	if j := bytes.Index(buf, []byte(grib1.Magic)); j >= 0 {
		buf = buf[:j]
	}
	i := bytes.Index(buf, []byte(grib1.Trailer))
	if i < 0 {
		return 0, false, false
	}
	// Nor does one found after a later message starts below the window.
	next, err := s.findMagic(start+grib1.IndicatorLength, lo+int64(len(grib1.Magic))-1)
	if err != nil || next >= 0 {
		return 0, false, false
	}
	return lo + int64(i) + int64(len(grib1.Trailer)), true, true
}

// findMagic returns the offset of the next "GRIB" that starts at or after
// from and ends at or before limit, or -1.
func (s *Scanner) findMagic(from, limit int64) (int64, error) {
	magic := []byte(grib1.Magic)
	if limit > s.size {
		limit = s.size
	}
	for from < limit {
		n := int64(searchWindow)
		if from+n > limit {
			n = limit - from
		}
		buf := make([]byte, n)
		read, err := s.r.ReadAt(buf, from)
		if err != nil && err != io.EOF {
			return -1, errors.Wrapf(err, "searching for GRIB marker @ byte offset %d", from)
		}
		buf = buf[:read]
		if i := bytes.Index(buf, magic); i >= 0 {
			return from + int64(i), nil
		}
		if read < len(magic) {
			return -1, nil
		}
		// Overlap windows so a marker split across them is found.
		from += int64(read - len(magic) + 1)
	}
	return -1, nil
}

// header returns the bytes between the previous message and start, capped
// to the last maxHeader bytes.
func (s *Scanner) header(start int64) ([]byte, error) {
	lo := s.lastEnd
	if start-lo > maxHeader {
		lo = start - maxHeader
	}
	if lo >= start {
		return nil, nil
	}
	return grib1.ReadBytesAt(s.r, lo, int(start-lo))
}

// ReadMessage returns the bytes of the current message.
func (s *Scanner) ReadMessage() ([]byte, error) {
	return grib1.ReadBytesAt(s.r, s.msg.Start, int(s.msg.Len()))
}
