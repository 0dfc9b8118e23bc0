package rectilinear

import "github.com/sdifrance/gribcollection/grib1"

// keyHash folds values into a 32 bit grouping key with the
// result += 37*result + x step, wrapping like int32 arithmetic.
type keyHash int32

func newKeyHash() keyHash { return 17 }

func (h keyHash) add(x int32) keyHash {
	return h + h*37 + keyHash(x)
}

// foldGridHash reduces a 64 bit grid hash to 32 bits.
func foldGridHash(h uint64) int32 {
	return int32(h ^ h>>32)
}

// VariableKey returns the grouping key of a record: records with equal
// keys in the same grid belong to the same variable.
//
// The key covers, in order, the grid hash, the level type, the layer flag,
// the parameter number and the table version; then the interval length
// and statistic for interval times; then the centre and subcentre for
// parameters from local tables.
func VariableKey(pds *grib1.ProductDefinition, gridHash uint64, pt grib1.ParamTime) int32 {
	h := newKeyHash()
	h = h.add(foldGridHash(gridHash))
	h = h.add(int32(pds.LevelType()))
	if grib1.LookupLevel(pds.LevelType()).IsLayer {
		h = h.add(1)
	}
	h = h.add(int32(pds.Parameter()))
	h = h.add(int32(pds.TableVersion()))
	if pt.IsInterval {
		h = h.add(int32(pt.IntervalSize()))
		if pt.Stat != grib1.StatNone {
			h = h.add(int32(pt.Stat))
		}
	}
	if pds.Parameter() > grib1.MaxStandardParameter {
		h = h.add(int32(pds.Center()))
		if pds.SubCenter() > 0 {
			h = h.add(int32(pds.SubCenter()))
		}
	}
	return int32(h)
}
