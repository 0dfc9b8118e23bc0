package rectilinear

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// coordinate is implemented by *TimeCoord, *VertCoord and *EnsCoord.
type coordinate[C any] interface {
	Equal(C) bool
	subsetOf(C) bool
	Len() int
}

// coordTable stores the distinct coordinates of one kind in a group. Equal
// coordinates are stored once, found through a hash of their values.
type coordTable[C coordinate[C]] struct {
	coords []C
	byKey  map[uint64][]int
}

func newCoordTable[C coordinate[C]]() *coordTable[C] {
	return &coordTable[C]{byKey: map[uint64][]int{}}
}

// add returns the index of the stored coordinate equal to c, storing c if
// there is none.
func (t *coordTable[C]) add(key uint64, c C) int {
	for _, i := range t.byKey[key] {
		if t.coords[i].Equal(c) {
			return i
		}
	}
	t.coords = append(t.coords, c)
	i := len(t.coords) - 1
	t.byKey[key] = append(t.byKey[key], i)
	return i
}

// mergeSubsets replaces every coordinate contained in a longer one by the
// shortest such coordinate, repeatedly. It returns the remaining
// coordinates and the new index of each old one.
func mergeSubsets[C coordinate[C]](coords []C) ([]C, []int) {
	parent := make([]int, len(coords))
	for i, c := range coords {
		parent[i] = -1
		for j, o := range coords {
			if j == i || o.Len() <= c.Len() || !c.subsetOf(o) {
				continue
			}
			if parent[i] < 0 || o.Len() < coords[parent[i]].Len() {
				parent[i] = j
			}
		}
	}
	remap := make([]int, len(coords))
	var kept []C
	for i := range coords {
		if parent[i] < 0 {
			remap[i] = len(kept)
			kept = append(kept, coords[i])
		}
	}
	for i := range coords {
		root := i
		for parent[root] >= 0 {
			root = parent[root]
		}
		remap[i] = remap[root]
	}
	return kept, remap
}

// keyWriter hashes coordinate values.
type keyWriter struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newKeyWriter() *keyWriter { return &keyWriter{d: xxhash.New()} }

func (w *keyWriter) int(v int64) *keyWriter {
	binary.BigEndian.PutUint64(w.buf[:], uint64(v))
	w.d.Write(w.buf[:])
	return w
}

func (w *keyWriter) float(v float64) *keyWriter {
	return w.int(int64(math.Float64bits(v)))
}

func (w *keyWriter) sum() uint64 { return w.d.Sum64() }

func timeKey(c *TimeCoord) uint64 {
	w := newKeyWriter().int(c.RefTime.Unix()).int(int64(c.Unit))
	if c.IsInterval {
		w.int(1)
	}
	for _, v := range c.Values {
		w.int(int64(v.Start)).int(int64(v.End))
	}
	return w.sum()
}

func vertKey(c *VertCoord) uint64 {
	w := newKeyWriter().int(int64(c.LevelType))
	for _, l := range c.Levels {
		w.float(l.Value1).float(l.Value2)
	}
	return w.sum()
}

func ensKey(c *EnsCoord) uint64 {
	w := newKeyWriter()
	for _, m := range c.Members {
		w.int(int64(m.Type)).int(int64(m.Number))
	}
	return w.sum()
}
