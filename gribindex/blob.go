package gribindex

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/rectilinear"
)

// encodeSlots writes each slot as uvarints: Pos+1 (0 for a missing slot),
// then FileNo, BDSOffset and Length for present slots.
func encodeSlots(slots []rectilinear.Slot) []byte {
	b := make([]byte, 0, len(slots)*8)
	for _, s := range slots {
		if s.Missing() {
			b = binary.AppendUvarint(b, 0)
			continue
		}
		b = binary.AppendUvarint(b, uint64(s.Pos)+1)
		b = binary.AppendUvarint(b, uint64(s.FileNo))
		b = binary.AppendUvarint(b, uint64(s.BDSOffset))
		b = binary.AppendUvarint(b, uint64(s.Length))
	}
	return b
}

func decodeSlots(b []byte, n int) ([]rectilinear.Slot, error) {
	slots := make([]rectilinear.Slot, n)
	next := func() (uint64, error) {
		v, k := binary.Uvarint(b)
		if k <= 0 {
			return 0, errors.New("truncated slot table")
		}
		b = b[k:]
		return v, nil
	}
	for i := range slots {
		pos, err := next()
		if err != nil {
			return nil, err
		}
		if pos == 0 {
			continue
		}
		var f [3]uint64
		for j := range f {
			if f[j], err = next(); err != nil {
				return nil, err
			}
		}
		slots[i] = rectilinear.Slot{
			Pos:       int64(pos - 1),
			FileNo:    int(f[0]),
			BDSOffset: int64(f[1]),
			Length:    int64(f[2]),
		}
	}
	if len(b) != 0 {
		return nil, errors.Errorf("%d bytes after %d slots", len(b), n)
	}
	return slots, nil
}
