package grib1

import (
	"fmt"
	"time"
)

// UnitOfTime is code table 4 of the WMO GRIB1 manual. See
// https://github.com/ecmwf/eccodes/blob/fd549250dc5fe8f7f07dd242b8e781f73982735f/definitions/grib1/4.table
type UnitOfTime uint8

// Units of time from code table 4.
//
// See https://apps.ecmwf.int/codes/grib/format/grib1/ctable/4/
const (
	UnitOfTimeMinute    UnitOfTime = 0
	UnitOfTimeHour      UnitOfTime = 1
	UnitOfTimeDay       UnitOfTime = 2
	UnitOfTimeMonth     UnitOfTime = 3
	UnitOfTimeYear      UnitOfTime = 4
	UnitOfTimeDecade    UnitOfTime = 5
	UnitOfTimeNormal    UnitOfTime = 6
	UnitOfTimeCentury   UnitOfTime = 7
	UnitOfTime3Hours    UnitOfTime = 10
	UnitOfTime6Hours    UnitOfTime = 11
	UnitOfTime12Hours   UnitOfTime = 12
	UnitOfTime15Minutes UnitOfTime = 13
	UnitOfTime30Minutes UnitOfTime = 14
	UnitOfTimeSecond    UnitOfTime = 254
)

// Minutes returns the fixed length of the unit in minutes. Calendar units
// (month and longer) have no fixed length and return false.
func (u UnitOfTime) Minutes() (int, bool) {
	switch u {
	case UnitOfTimeMinute:
		return 1, true
	case UnitOfTimeHour:
		return 60, true
	case UnitOfTimeDay:
		return 24 * 60, true
	case UnitOfTime3Hours:
		return 3 * 60, true
	case UnitOfTime6Hours:
		return 6 * 60, true
	case UnitOfTime12Hours:
		return 12 * 60, true
	case UnitOfTime15Minutes:
		return 15, true
	case UnitOfTime30Minutes:
		return 30, true
	}
	return 0, false
}

// Add returns t moved forward by n units, using calendar arithmetic for
// calendar units.
func (u UnitOfTime) Add(t time.Time, n int) time.Time {
	switch u {
	case UnitOfTimeMonth:
		return t.AddDate(0, n, 0)
	case UnitOfTimeYear:
		return t.AddDate(n, 0, 0)
	case UnitOfTimeDecade:
		return t.AddDate(10*n, 0, 0)
	case UnitOfTimeNormal:
		return t.AddDate(30*n, 0, 0)
	case UnitOfTimeCentury:
		return t.AddDate(100*n, 0, 0)
	case UnitOfTimeSecond:
		return t.Add(time.Duration(n) * time.Second)
	}
	m, _ := u.Minutes()
	return t.Add(time.Duration(n*m) * time.Minute)
}

// Valid reports whether u is a code from table 4.
func (u UnitOfTime) Valid() bool {
	if _, ok := u.Minutes(); ok {
		return true
	}
	switch u {
	case UnitOfTimeMonth, UnitOfTimeYear, UnitOfTimeDecade, UnitOfTimeNormal, UnitOfTimeCentury, UnitOfTimeSecond:
		return true
	}
	return false
}

func (u UnitOfTime) String() string {
	switch u {
	case UnitOfTimeMinute:
		return "minute"
	case UnitOfTimeHour:
		return "hour"
	case UnitOfTimeDay:
		return "day"
	case UnitOfTimeMonth:
		return "month"
	case UnitOfTimeYear:
		return "year"
	case UnitOfTimeDecade:
		return "decade"
	case UnitOfTimeNormal:
		return "normal"
	case UnitOfTimeCentury:
		return "century"
	case UnitOfTime3Hours:
		return "3 hours"
	case UnitOfTime6Hours:
		return "6 hours"
	case UnitOfTime12Hours:
		return "12 hours"
	case UnitOfTime15Minutes:
		return "15 minutes"
	case UnitOfTime30Minutes:
		return "30 minutes"
	case UnitOfTimeSecond:
		return "second"
	}
	return fmt.Sprintf("unit%d", uint8(u))
}

// StatType is the statistical processing applied over a time interval.
// The ordinal is folded into variable identity, so the order is fixed.
type StatType int

// StatNone is used by point times and by intervals without processing.
const StatNone StatType = -1

const (
	StatAverage StatType = iota
	StatAccumulation
	StatMaximum
	StatMinimum
	StatDifferenceFromEnd
	StatRootMeanSquare
	StatStandardDeviation
	StatCovariance
	StatDifferenceFromStart
	StatRatio
	StatVariance
)

func (s StatType) String() string {
	switch s {
	case StatNone:
		return ""
	case StatAverage:
		return "Average"
	case StatAccumulation:
		return "Accumulation"
	case StatMaximum:
		return "Maximum"
	case StatMinimum:
		return "Minimum"
	case StatDifferenceFromEnd:
		return "DifferenceFromEnd"
	case StatRootMeanSquare:
		return "RootMeanSquare"
	case StatStandardDeviation:
		return "StandardDeviation"
	case StatCovariance:
		return "Covariance"
	case StatDifferenceFromStart:
		return "DifferenceFromStart"
	case StatRatio:
		return "Ratio"
	case StatVariance:
		return "Variance"
	}
	return fmt.Sprintf("stat%d", int(s))
}

// ParamTime is the time of one record, in units of the record's
// unitOfTimeRange, relative to its reference time.
type ParamTime struct {
	Indicator  int
	IsInterval bool
	// Forecast is the offset of a point time.
	Forecast int
	// Start and End bound an interval time.
	Start, End int
	Stat       StatType
}

// IntervalSize returns End-Start for intervals and 0 for points.
func (pt ParamTime) IntervalSize() int {
	if !pt.IsInterval {
		return 0
	}
	return pt.End - pt.Start
}

func (pt ParamTime) String() string {
	if pt.IsInterval {
		return fmt.Sprintf("[%d,%d]%s", pt.Start, pt.End, pt.Stat)
	}
	return fmt.Sprintf("%d", pt.Forecast)
}

// NewParamTime interprets the time range indicator (code table 5) and the
// P1/P2/N fields of a PDS. Unknown indicators return ErrUnsupported.
func NewParamTime(tri, p1, p2, n int) (ParamTime, error) {
	pt := ParamTime{Indicator: tri, Stat: StatNone}
	interval := func(start, end int, stat StatType) (ParamTime, error) {
		pt.IsInterval = true
		pt.Start, pt.End, pt.Stat = start, end, stat
		return pt, nil
	}
	switch tri {
	case 0: // forecast valid at reference time + P1
		pt.Forecast = p1
		return pt, nil
	case 1: // initialized analysis, P1 = 0
		pt.Forecast = 0
		return pt, nil
	case 2: // product valid between reference time + P1 and + P2
		return interval(p1, p2, StatNone)
	case 3:
		return interval(p1, p2, StatAverage)
	case 4:
		return interval(p1, p2, StatAccumulation)
	case 5:
		return interval(p1, p2, StatDifferenceFromEnd)
	case 6: // average from reference time - P1 to reference time - P2
		return interval(-p1, -p2, StatAverage)
	case 7: // average from reference time - P1 to reference time + P2
		return interval(-p1, p2, StatAverage)
	case 10: // P1 occupies octets 19 and 20
		pt.Forecast = p1<<8 | p2
		return pt, nil
	case 51: // climatological mean over N cycles
		return interval(p1, p2, StatAverage)
	case 113, 115, 117: // average of N forecasts, reference times P2 apart
		// The window opens at the first forecast, P1.
		return interval(p1, p1+n*p2, StatAverage)
	case 114, 116: // accumulation of N forecasts
		return interval(p1, p1+n*p2, StatAccumulation)
	case 118:
		return interval(0, n*p2, StatVariance)
	case 119, 125:
		return interval(0, n*p2, StatStandardDeviation)
	case 123: // average of N uninitialized analyses
		return interval(0, n*p2, StatAverage)
	case 124:
		return interval(0, n*p2, StatAccumulation)
	}
	return pt, unsupportedf("time range indicator %d", tri)
}
