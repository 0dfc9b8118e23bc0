package rectilinear

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/exp/slices"

	"github.com/sdifrance/gribcollection/grib1"
)

// TimeValue is one time coordinate value in units of the coordinate,
// relative to its reference time. Points have Start == End.
type TimeValue struct {
	Start, End int
}

func (v TimeValue) less(o TimeValue) bool {
	if v.Start != o.Start {
		return v.Start < o.Start
	}
	return v.End < o.End
}

// TimeCoord is a sorted set of forecast times or time intervals.
type TimeCoord struct {
	RefTime    time.Time
	Unit       grib1.UnitOfTime
	IsInterval bool
	Values     []TimeValue
	// Downgraded is set when the records did not share a reference time
	// and unit and their offsets had to be expressed in a finer unit than
	// any of them used.
	Downgraded bool
}

// Len returns the number of values.
func (c *TimeCoord) Len() int { return len(c.Values) }

// Index returns the position of v.
func (c *TimeCoord) Index(v TimeValue) (int, bool) {
	i := sort.Search(len(c.Values), func(i int) bool { return !c.Values[i].less(v) })
	if i < len(c.Values) && c.Values[i] == v {
		return i, true
	}
	return 0, false
}

// Equal compares reference time, unit, kind and values.
func (c *TimeCoord) Equal(o *TimeCoord) bool {
	return c.sameAxis(o) && slices.Equal(c.Values, o.Values)
}

func (c *TimeCoord) sameAxis(o *TimeCoord) bool {
	return c.RefTime.Equal(o.RefTime) && c.Unit == o.Unit && c.IsInterval == o.IsInterval
}

// subsetOf reports whether every value of c is in o.
func (c *TimeCoord) subsetOf(o *TimeCoord) bool {
	if !c.sameAxis(o) || len(c.Values) > len(o.Values) {
		return false
	}
	for _, v := range c.Values {
		if _, ok := o.Index(v); !ok {
			return false
		}
	}
	return true
}

// Times returns the valid time of each point, or the end of each interval.
func (c *TimeCoord) Times() []time.Time {
	out := make([]time.Time, len(c.Values))
	for i, v := range c.Values {
		out[i] = c.Unit.Add(c.RefTime, v.End)
	}
	return out
}

func (c *TimeCoord) String() string {
	kind := "point"
	if c.IsInterval {
		kind = "interval"
	}
	return fmt.Sprintf("%s %ss since %s: %v", kind, c.Unit, c.RefTime.Format(time.RFC3339), c.Values)
}

// recordTime is the time of one record as found in its PDS.
type recordTime struct {
	ref  time.Time
	unit grib1.UnitOfTime
	pt   grib1.ParamTime
}

func (rt recordTime) value(interval bool) TimeValue {
	switch {
	case interval && rt.pt.IsInterval:
		return TimeValue{rt.pt.Start, rt.pt.End}
	case interval:
		return TimeValue{rt.pt.Forecast, rt.pt.Forecast}
	case rt.pt.IsInterval:
		return TimeValue{rt.pt.End, rt.pt.End}
	}
	return TimeValue{rt.pt.Forecast, rt.pt.Forecast}
}

// commonUnits are tried, coarsest first, when records must be re-expressed
// against a shared reference time.
var commonUnits = []grib1.UnitOfTime{
	grib1.UnitOfTimeDay,
	grib1.UnitOfTime12Hours,
	grib1.UnitOfTime6Hours,
	grib1.UnitOfTime3Hours,
	grib1.UnitOfTimeHour,
	grib1.UnitOfTime30Minutes,
	grib1.UnitOfTime15Minutes,
	grib1.UnitOfTimeMinute,
}

// buildTimeCoord builds the time coordinate of a variable and returns the
// value of each record in it.
func buildTimeCoord(times []recordTime, interval bool) (*TimeCoord, []TimeValue) {
	values := make([]TimeValue, len(times))
	c := &TimeCoord{IsInterval: interval}
	if len(times) == 0 {
		return c, values
	}

	uniform := true
	c.RefTime, c.Unit = times[0].ref, times[0].unit
	for _, rt := range times[1:] {
		if !rt.ref.Equal(c.RefTime) || rt.unit != c.Unit {
			uniform = false
		}
		if rt.ref.Before(c.RefTime) {
			c.RefTime = rt.ref
		}
	}

	if uniform {
		for i, rt := range times {
			values[i] = rt.value(interval)
		}
	} else {
		minutes := make([]TimeValue, len(times))
		used := map[grib1.UnitOfTime]bool{}
		for i, rt := range times {
			used[rt.unit] = true
			v := rt.value(interval)
			minutes[i] = TimeValue{
				Start: minutesSince(c.RefTime, rt.unit.Add(rt.ref, v.Start)),
				End:   minutesSince(c.RefTime, rt.unit.Add(rt.ref, v.End)),
			}
		}
		c.Unit, c.Downgraded = coarsestUnit(minutes, used)
		step, _ := c.Unit.Minutes()
		for i, m := range minutes {
			values[i] = TimeValue{m.Start / step, m.End / step}
		}
	}

	seen := map[TimeValue]bool{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			c.Values = append(c.Values, v)
		}
	}
	sort.Slice(c.Values, func(i, j int) bool { return c.Values[i].less(c.Values[j]) })
	return c, values
}

func minutesSince(epoch, t time.Time) int {
	return int(t.Sub(epoch) / time.Minute)
}

// coarsestUnit returns the unit the offsets are expressed in: the coarsest
// unit used by the records that divides every offset, else the coarsest
// finer unit that does. It reports whether the unit is finer than every
// unit the records used.
func coarsestUnit(minutes []TimeValue, used map[grib1.UnitOfTime]bool) (grib1.UnitOfTime, bool) {
	divides := func(step int) bool {
		for _, m := range minutes {
			if m.Start%step != 0 || m.End%step != 0 {
				return false
			}
		}
		return true
	}
	var candidates []grib1.UnitOfTime
	finest := 0
	for u := range used {
		if m, ok := u.Minutes(); ok {
			candidates = append(candidates, u)
			if finest == 0 || m < finest {
				finest = m
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		mi, _ := candidates[i].Minutes()
		mj, _ := candidates[j].Minutes()
		return mi > mj
	})
	for _, u := range commonUnits {
		if m, _ := u.Minutes(); finest == 0 || m < finest {
			candidates = append(candidates, u)
		}
	}
	for _, u := range candidates {
		if m, _ := u.Minutes(); divides(m) {
			return u, finest == 0 || m < finest
		}
	}
	return grib1.UnitOfTimeMinute, true
}
