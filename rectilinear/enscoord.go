package rectilinear

import (
	"sort"

	"golang.org/x/exp/slices"

	"github.com/sdifrance/gribcollection/grib1"
)

// EnsCoord is a set of ensemble members sorted by perturbation type, then
// member number.
type EnsCoord struct {
	Members []grib1.EnsembleMember
}

func lessMember(a, b grib1.EnsembleMember) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Number < b.Number
}

// Len returns the number of members.
func (c *EnsCoord) Len() int { return len(c.Members) }

// Index returns the position of m.
func (c *EnsCoord) Index(m grib1.EnsembleMember) (int, bool) {
	i := sort.Search(len(c.Members), func(i int) bool { return !lessMember(c.Members[i], m) })
	if i < len(c.Members) && c.Members[i] == m {
		return i, true
	}
	return 0, false
}

// Equal compares members.
func (c *EnsCoord) Equal(o *EnsCoord) bool {
	return slices.Equal(c.Members, o.Members)
}

func (c *EnsCoord) subsetOf(o *EnsCoord) bool {
	if len(c.Members) > len(o.Members) {
		return false
	}
	for _, m := range c.Members {
		if _, ok := o.Index(m); !ok {
			return false
		}
	}
	return true
}

func newEnsCoord(members []grib1.EnsembleMember) *EnsCoord {
	c := &EnsCoord{}
	seen := map[grib1.EnsembleMember]bool{}
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			c.Members = append(c.Members, m)
		}
	}
	sort.Slice(c.Members, func(i, j int) bool { return lessMember(c.Members[i], c.Members[j]) })
	return c
}
