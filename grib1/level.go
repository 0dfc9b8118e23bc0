package grib1

import "fmt"

// LevelType describes one entry of code table 3.
type LevelType struct {
	Code        int
	Abbrev      string
	Description string
	Units       string
	// HasValue is false for levels such as the surface that carry no value
	// in octets 11-12.
	HasValue bool
	// IsLayer levels carry a top value in octet 11 and a bottom value in
	// octet 12.
	IsLayer    bool
	PositiveUp bool
	// Level values are Offset + Scale*raw.
	Scale, Offset float64
}

// https://codes.ecmwf.int/grib/format/grib1/ctable/3/
var levelTypes = map[int]LevelType{
	1:   {Abbrev: "surface", Description: "Ground or water surface"},
	2:   {Abbrev: "cloud_base", Description: "Cloud base level"},
	3:   {Abbrev: "cloud_tops", Description: "Level of cloud tops"},
	4:   {Abbrev: "zeroDegC_isotherm", Description: "Level of 0 deg C isotherm"},
	5:   {Abbrev: "adiabatic_condensation_lifted", Description: "Level of adiabatic condensation lifted from the surface"},
	6:   {Abbrev: "maximum_wind", Description: "Maximum wind level"},
	7:   {Abbrev: "tropopause", Description: "Tropopause"},
	8:   {Abbrev: "atmosphere_top", Description: "Nominal top of atmosphere"},
	9:   {Abbrev: "sea_bottom", Description: "Sea bottom"},
	20:  {Abbrev: "isothermal", Description: "Isothermal level", Units: "K", HasValue: true, PositiveUp: true, Scale: 0.01},
	100: {Abbrev: "isobaric", Description: "Isobaric level", Units: "hPa", HasValue: true},
	101: {Abbrev: "layer_between_two_isobaric", Description: "Layer between two isobaric levels", Units: "kPa", HasValue: true, IsLayer: true},
	102: {Abbrev: "msl", Description: "Mean sea level"},
	103: {Abbrev: "altitude_above_msl", Description: "Specified altitude above mean sea level", Units: "m", HasValue: true, PositiveUp: true},
	104: {Abbrev: "layer_between_two_altitudes_above_msl", Description: "Layer between two specified altitudes above mean sea level", Units: "hm", HasValue: true, IsLayer: true, PositiveUp: true},
	105: {Abbrev: "height_above_ground", Description: "Specified height level above ground", Units: "m", HasValue: true, PositiveUp: true},
	106: {Abbrev: "layer_between_two_heights_above_ground", Description: "Layer between two specified height levels above ground", Units: "hm", HasValue: true, IsLayer: true, PositiveUp: true},
	107: {Abbrev: "sigma", Description: "Sigma level", Units: "sigma", HasValue: true, Scale: 1e-4},
	108: {Abbrev: "layer_between_two_sigma", Description: "Layer between two sigma levels", Units: "sigma", HasValue: true, IsLayer: true, Scale: 1e-2},
	109: {Abbrev: "hybrid", Description: "Hybrid level", Units: "", HasValue: true},
	110: {Abbrev: "layer_between_two_hybrids", Description: "Layer between two hybrid levels", HasValue: true, IsLayer: true},
	111: {Abbrev: "depth_below_surface", Description: "Depth below land surface", Units: "cm", HasValue: true},
	112: {Abbrev: "layer_between_two_depths_below_surface", Description: "Layer between two depths below land surface", Units: "cm", HasValue: true, IsLayer: true},
	113: {Abbrev: "isentrope", Description: "Isentropic (theta) level", Units: "K", HasValue: true, PositiveUp: true},
	114: {Abbrev: "layer_between_two_isentrope", Description: "Layer between two isentropic levels", Units: "K", HasValue: true, IsLayer: true, PositiveUp: true, Offset: 475, Scale: -1},
	115: {Abbrev: "pressure_difference", Description: "Level at specified pressure difference from ground to level", Units: "hPa", HasValue: true},
	116: {Abbrev: "layer_between_two_pressure_difference_from_ground", Description: "Layer between two levels at specified pressure differences from ground to levels", Units: "hPa", HasValue: true, IsLayer: true},
	117: {Abbrev: "potential_vorticity_surface", Description: "Potential vorticity surface", Units: "10-9 K m2 kg-1 s-1", HasValue: true, PositiveUp: true},
	119: {Abbrev: "eta", Description: "ETA level", Units: "eta", HasValue: true, Scale: 1e-4},
	120: {Abbrev: "layer_between_two_eta", Description: "Layer between two ETA levels", Units: "eta", HasValue: true, IsLayer: true, Scale: 1e-2},
	121: {Abbrev: "layer_between_two_isobaric_high_precision", Description: "Layer between two isobaric surfaces (high precision)", Units: "hPa", HasValue: true, IsLayer: true, Offset: 1100, Scale: -1},
	125: {Abbrev: "height_above_ground_high_precision", Description: "Specified height level above ground (high precision)", Units: "cm", HasValue: true, PositiveUp: true},
	126: {Abbrev: "isobaric_pa", Description: "Isobaric level", Units: "Pa", HasValue: true},
	128: {Abbrev: "layer_between_two_sigma_high_precision", Description: "Layer between two sigma levels (high precision)", Units: "sigma", HasValue: true, IsLayer: true, Offset: 1.1, Scale: -1e-3},
	141: {Abbrev: "layer_between_two_isobaric_mixed_precision", Description: "Layer between two isobaric surfaces (mixed precision)", Units: "hPa", HasValue: true, IsLayer: true},
	160: {Abbrev: "depth_below_sea", Description: "Depth below sea level", Units: "m", HasValue: true},
	200: {Abbrev: "entire_atmosphere", Description: "Entire atmosphere considered as a single layer"},
	201: {Abbrev: "entire_ocean", Description: "Entire ocean considered as a single layer"},
	204: {Abbrev: "highest_tropospheric_freezing", Description: "Highest tropospheric freezing level"},
}

// LookupLevel returns the table 3 entry for code. Unknown codes are
// treated as single valued levels so that they still group consistently.
func LookupLevel(code int) LevelType {
	lt, ok := levelTypes[code]
	if !ok {
		lt = LevelType{
			Abbrev:      fmt.Sprintf("level%d", code),
			Description: fmt.Sprintf("Unknown level type %d", code),
			HasValue:    true,
		}
	}
	lt.Code = code
	if lt.Scale == 0 {
		lt.Scale = 1
	}
	return lt
}

// Values converts the raw level octets into level values. For layers
// value1 is the top (octet 11) and value2 the bottom (octet 12); for
// single levels value2 equals value1.
func (lt LevelType) Values(octet11, octet12 int) (value1, value2 float64) {
	if !lt.HasValue {
		return 0, 0
	}
	if lt.IsLayer {
		return lt.Offset + lt.Scale*float64(octet11), lt.Offset + lt.Scale*float64(octet12)
	}
	v := lt.Offset + lt.Scale*float64(octet11<<8|octet12)
	return v, v
}
