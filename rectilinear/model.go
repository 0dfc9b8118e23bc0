// Package rectilinear groups GRIB1 records into variables and lays each
// variable out as a dense time x ensemble x vertical array of record
// locations.
package rectilinear

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/grib1"
)

// ErrInconsistent is returned when a record's coordinate value is missing
// from the coordinate built for its variable.
var ErrInconsistent = errors.New("rectilinear: inconsistent coordinates")

// Collection is the in-memory form of a collection index.
type Collection struct {
	Name string
	// Centre, table and process of the first record.
	Center, SubCenter, TableVersion, GenProcess int
	// Files are the source files; Slot.FileNo indexes this list.
	Files  []string
	Groups []*Group
}

// Variables returns the number of variables over all groups.
func (c *Collection) Variables() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Variables)
	}
	return n
}

// FindVariable returns the variable called name in the group called group.
func (c *Collection) FindVariable(group, name string) (*Group, *Variable, bool) {
	for _, g := range c.Groups {
		if g.Name != group {
			continue
		}
		for _, v := range g.Variables {
			if v.Name == name {
				return g, v, true
			}
		}
	}
	return nil, nil, false
}

// Group holds the variables defined on one horizontal grid, with the
// coordinates they share.
type Group struct {
	Name string
	GDS  *grib1.GridDefinition
	Grid grib1.GridDescriptor

	TimeCoords []*TimeCoord
	VertCoords []*VertCoord
	EnsCoords  []*EnsCoord
	Variables  []*Variable
}

// Variable is one output variable.
type Variable struct {
	Key         int32
	Name        string
	Description string
	Units       string

	Center, SubCenter, TableVersion, GenProcess int
	Parameter                                   int
	LevelType                                   int
	IsLayer                                     bool

	// Interval time fields, zero for point times.
	IsInterval   bool
	IntervalSize int
	Stat         grib1.StatType

	// Indices into the group's coordinates. VertIdx and EnsIdx are -1 when
	// the variable has no such dimension.
	TimeIdx, VertIdx, EnsIdx int

	// Slots is the dense record array of length NTimes*NEns*NVerts. It may
	// be nil on a variable read from an index until it is loaded.
	Slots []Slot

	// Blob locates the encoded slots in an index file.
	BlobOffset, BlobLength int64

	// Records and Duplicates count what went into Slots at build time.
	Records, Duplicates int
}

// Shape returns the lengths of the time, ensemble and vertical dimensions
// in g. Missing dimensions have length 1.
func (v *Variable) Shape(g *Group) (ntimes, nens, nverts int) {
	ntimes, nens, nverts = 0, 1, 1
	if v.TimeIdx >= 0 && v.TimeIdx < len(g.TimeCoords) {
		ntimes = g.TimeCoords[v.TimeIdx].Len()
	}
	if v.EnsIdx >= 0 && v.EnsIdx < len(g.EnsCoords) {
		nens = g.EnsCoords[v.EnsIdx].Len()
	}
	if v.VertIdx >= 0 && v.VertIdx < len(g.VertCoords) {
		nverts = g.VertCoords[v.VertIdx].Len()
	}
	return ntimes, nens, nverts
}

// SlotIndex returns the position of (t, e, z) in the slot array.
func SlotIndex(t, e, z, nens, nverts int) int {
	return (t*nens+e)*nverts + z
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s (param %d table %d level %d)", v.Name, v.Parameter, v.TableVersion, v.LevelType)
}

// Slot locates the record of one cell of a variable. The zero Slot is
// missing.
type Slot struct {
	FileNo int
	// Pos is the offset of the message in its file.
	Pos int64
	// BDSOffset is the offset of section 4 from Pos.
	BDSOffset int64
	// Length is the message length.
	Length int64
}

// Missing reports whether no record fills the slot.
func (s Slot) Missing() bool { return s.Length == 0 }
