package rectilinear

import (
	"fmt"
	"sort"

	"golang.org/x/exp/slices"

	"github.com/sdifrance/gribcollection/grib1"
)

// Level is one vertical coordinate value. Single levels have Value1 ==
// Value2; layers have the top in Value1 and the bottom in Value2.
type Level struct {
	Value1, Value2 float64
}

func (l Level) less(o Level) bool {
	if l.Value1 != o.Value1 {
		return l.Value1 < o.Value1
	}
	return l.Value2 < o.Value2
}

// VertCoord is a set of levels of one level type, sorted ascending, or
// descending for positive up level types.
type VertCoord struct {
	LevelType int
	Levels    []Level
}

// Type returns the table 3 entry of the level type.
func (c *VertCoord) Type() grib1.LevelType { return grib1.LookupLevel(c.LevelType) }

// Len returns the number of levels.
func (c *VertCoord) Len() int { return len(c.Levels) }

// Index returns the position of l.
func (c *VertCoord) Index(l Level) (int, bool) {
	i := slices.Index(c.Levels, l)
	return i, i >= 0
}

// Equal compares level type and levels.
func (c *VertCoord) Equal(o *VertCoord) bool {
	return c.LevelType == o.LevelType && slices.Equal(c.Levels, o.Levels)
}

func (c *VertCoord) subsetOf(o *VertCoord) bool {
	if c.LevelType != o.LevelType || len(c.Levels) > len(o.Levels) {
		return false
	}
	for _, l := range c.Levels {
		if _, ok := o.Index(l); !ok {
			return false
		}
	}
	return true
}

func (c *VertCoord) String() string {
	lt := c.Type()
	if lt.IsLayer {
		return fmt.Sprintf("%s (%s): %v", lt.Abbrev, lt.Units, c.Levels)
	}
	v := make([]float64, len(c.Levels))
	for i, l := range c.Levels {
		v[i] = l.Value1
	}
	return fmt.Sprintf("%s (%s): %v", lt.Abbrev, lt.Units, v)
}

// newVertCoord builds the coordinate holding levels.
func newVertCoord(levelType int, levels []Level) *VertCoord {
	c := &VertCoord{LevelType: levelType}
	seen := map[Level]bool{}
	for _, l := range levels {
		if !seen[l] {
			seen[l] = true
			c.Levels = append(c.Levels, l)
		}
	}
	c.sort()
	return c
}

func (c *VertCoord) sort() {
	sort.Slice(c.Levels, func(i, j int) bool { return c.Levels[i].less(c.Levels[j]) })
	if c.Type().PositiveUp {
		for i, j := 0, len(c.Levels)-1; i < j; i, j = i+1, j-1 {
			c.Levels[i], c.Levels[j] = c.Levels[j], c.Levels[i]
		}
	}
}

// recordLevel returns the level of a record.
func recordLevel(pds *grib1.ProductDefinition) Level {
	v1, v2 := pds.LevelValues()
	return Level{v1, v2}
}
