package grib1

// NCEP is the originating centre code of the US National Centers for
// Environmental Prediction, the only centre with a predefined grid catalogue
// here.
const NCEP = 7

// wafsRows is the number of points per row of the NCEP 1.25 degree
// quasi-regular WAFS octant grids, from the equator to the pole.
var wafsRows = []int{
	73, 73, 73, 73, 73, 73, 73, 73, 72, 72, 72, 71, 71, 71, 70, 70, 69, 69, 68, 67,
	67, 66, 65, 65, 64, 63, 62, 61, 60, 60, 59, 58, 57, 56, 55, 54, 52, 51, 50, 49,
	48, 47, 45, 44, 43, 42, 40, 39, 38, 36, 35, 33, 32, 30, 29, 28, 26, 25, 23, 22,
	20, 19, 17, 16, 14, 12, 11, 9, 8, 6, 5, 3, 2,
}

// PredefinedGrid returns grid gridNumber of centre's catalogue. Unknown
// grids return ErrUnsupported.
func PredefinedGrid(center, gridNumber int) (GridDescriptor, error) {
	if center != NCEP {
		return nil, unsupportedf("predefined grid %d of centre %d", gridNumber, center)
	}
	switch gridNumber {
	case 2:
		return globalLatLon(144, 73, 2.5), nil
	case 3:
		return globalLatLon(360, 181, 1), nil
	case 4:
		return globalLatLon(720, 361, 0.5), nil
	case 37, 38, 39, 40:
		return wafsOctant(gridNumber-37, false), nil
	case 41, 42, 43, 44:
		return wafsOctant(gridNumber-41, true), nil
	}
	return nil, unsupportedf("predefined grid %d of centre %d", gridNumber, center)
}

// globalLatLon is a regular grid from 90N,0E scanning south and east.
func globalLatLon(nx, ny int, step float64) *LatLonGrid {
	return &LatLonGrid{
		gridShape: gridShape{Nx: nx, Ny: ny, Resolution: directionIncrementsGiven},
		First:     NewLatLng(90, 0),
		Last:      NewLatLng(-90, float64(nx-1)*step),
		Di:        NewQuantizedAngle(step),
		Dj:        NewQuantizedAngle(-step),
	}
}

// wafsOctant is one of the eight 90 degree quasi-regular WAFS grids,
// scanning north.
func wafsOctant(quadrant int, south bool) *LatLonGrid {
	lo1 := -30 + 90*float64(quadrant)
	rows := append([]int(nil), wafsRows...)
	la1, la2 := 0.0, 90.0
	if south {
		la1, la2 = -90, 0
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	return &LatLonGrid{
		gridShape: gridShape{
			Nx:        wafsRows[0],
			Ny:        len(rows),
			Scan:      pointsScanInPlusJDirection,
			RowPoints: rows,
		},
		First: NewLatLng(la1, lo1),
		Last:  NewLatLng(la2, lo1+90),
		Di:    NewQuantizedAngle(1.25),
		Dj:    NewQuantizedAngle(1.25),
	}
}
