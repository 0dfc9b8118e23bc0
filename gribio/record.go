package gribio

import (
	"context"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/grib1"
)

// Record is the indexable part of one message: its product and grid
// definitions and where its data lives.
type Record struct {
	PDS *grib1.ProductDefinition
	// GDS is shared by every record of a pass with identical section 2
	// bytes.
	GDS *grib1.GridDefinition

	FileNo int
	// Pos is the offset of the message in its file.
	Pos int64
	// BDSOffset is the offset of section 4 from Pos.
	BDSOffset int64
	// Length is the length of the message.
	Length int64
	Header []byte
}

// RecordStats counts what a pass over a file dropped.
type RecordStats struct {
	Messages int
	// Skipped messages had no trailer.
	Skipped int
	// Corrupt messages had a trailer but could not be parsed.
	Corrupt int
}

// ReadRecords scans a file and parses the sections needed to index each
// message. Corrupt messages are logged and skipped; I/O errors and context
// cancellation stop the pass. gdsCache deduplicates grid definitions across
// calls; it may be nil.
func ReadRecords(ctx context.Context, r io.ReaderAt, size int64, fileNo int, gdsCache map[uint64]*grib1.GridDefinition, opts ...Option) ([]*Record, RecordStats, error) {
	if gdsCache == nil {
		gdsCache = map[uint64]*grib1.GridDefinition{}
	}
	var (
		out   []*Record
		stats RecordStats
	)
	s := NewScanner(r, size, opts...)
	for s.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		m := s.Message()
		stats.Messages++
		rec, err := readRecord(r, m)
		if err != nil {
			if errors.Is(err, grib1.ErrCorrupt) {
				glog.Warningf("file %d: skipping GRIB1 message @ byte offset %d: %v", fileNo, m.Start, err)
				stats.Corrupt++
				continue
			}
			return nil, stats, errors.Wrapf(err, "reading GRIB1 message @ byte offset %d", m.Start)
		}
		rec.FileNo = fileNo
		if rec.GDS != nil {
			if shared, ok := gdsCache[rec.GDS.Hash()]; ok {
				rec.GDS = shared
			} else {
				gdsCache[rec.GDS.Hash()] = rec.GDS
			}
		}
		out = append(out, rec)
	}
	stats.Skipped = s.Skipped
	if err := s.Err(); err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// readRecord parses sections 1 to 3 of m and locates section 4 without
// reading the packed data.
func readRecord(r io.ReaderAt, m RawMessage) (*Record, error) {
	off := m.Start + grib1.IndicatorLength
	limit := m.End - int64(len(grib1.Trailer))

	section := func(what string) ([]byte, error) {
		if off+3 > limit {
			return nil, errors.Wrapf(grib1.ErrCorrupt, "%s overflows the message", what)
		}
		n, err := grib1.ReadUint24At(r, off)
		if err != nil {
			return nil, err
		}
		if n < 3 || off+int64(n) > limit {
			return nil, errors.Wrapf(grib1.ErrCorrupt, "%s length %d overflows the message", what, n)
		}
		b, err := grib1.ReadBytesAt(r, off, int(n))
		if err != nil {
			return nil, err
		}
		off += int64(n)
		return b, nil
	}

	raw, err := section("section 1")
	if err != nil {
		return nil, err
	}
	pds, err := grib1.ParseProductDefinition(raw)
	if err != nil {
		return nil, err
	}

	var gds *grib1.GridDefinition
	if pds.GridDescriptionIncluded() {
		raw, err := section("section 2")
		if err != nil {
			return nil, err
		}
		if gds, err = grib1.ParseGridDefinition(raw); err != nil {
			return nil, err
		}
	} else {
		gds = grib1.NewPredefinedGridDefinition(pds.Center(), pds.GridNumber())
	}

	if pds.BitmapIncluded() {
		if _, err := section("section 3"); err != nil {
			return nil, err
		}
	}
	if off+grib1.BDSHeaderLength > limit {
		return nil, errors.Wrap(grib1.ErrCorrupt, "section 4 overflows the message")
	}
	return &Record{
		PDS:       pds,
		GDS:       gds,
		Pos:       m.Start,
		BDSOffset: off - m.Start,
		Length:    m.Len(),
		Header:    m.Header,
	}, nil
}
