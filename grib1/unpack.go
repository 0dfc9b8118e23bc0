package grib1

import (
	"math"
)

// maxPoints caps the size of a decoded grid.
const maxPoints = 1 << 28

// Data decodes the values of the message into a row-major nx*ny array with
// x increasing along each row. Missing points are NaN. Quasi-regular rows
// are stretched to the longest row with interp.
func (m *Message) Data(interp Interpolation) ([]float32, error) {
	grid, err := m.grid.EnsureDecoded()
	if err != nil {
		return nil, err
	}
	return Unpack(m.product, grid, m.bitmap, m.binary, interp)
}

// Unpack decodes section 4 onto grid.
func Unpack(pds *ProductDefinition, grid GridDescriptor, bms *Bitmap, bds *BinaryDataSection, interp Interpolation) ([]float32, error) {
	npoints := grid.NumPoints()
	if npoints <= 0 || npoints > maxPoints {
		return nil, corruptf("grid has %d points", npoints)
	}
	npacked := npoints
	if bms != nil {
		if bms.Len() < npoints {
			return nil, corruptf("bitmap has %d bits for %d grid points", bms.Len(), npoints)
		}
		npacked = bms.Count(npoints)
	}

	packed, err := unpackSimple(bds, pds.DecimalScale(), npacked)
	if err != nil {
		return nil, err
	}

	values := packed
	if bms != nil {
		values = make([]float32, npoints)
		vi := 0
		nan := float32(math.NaN())
		for i := range values {
			if bms.Present(i) {
				values[i] = packed[vi]
				vi++
			} else {
				values[i] = nan
			}
		}
	}

	nx, ny := grid.Shape()
	if rows := grid.Rows(); rows != nil {
		if !grid.ScanMode().AdjacentPointsInIDirectionAreConsecutive() {
			return nil, unsupportedf("quasi-regular grid with j consecutive scanning")
		}
		values, err = ExpandThin(values, rows, nx, interp)
		if err != nil {
			return nil, err
		}
	}
	return ToRowMajor(values, nx, ny, grid.ScanMode()), nil
}

// unpackSimple decodes n simple packed values: Y = (R + X*2^E) * 10^-D.
func unpackSimple(bds *BinaryDataSection, decimalScale, n int) ([]float32, error) {
	out := make([]float32, n)
	dscale := math.Pow(10, float64(-decimalScale))
	ref := bds.Reference() * dscale
	nbits := bds.BitsPerValue()
	if nbits == 0 {
		for i := range out {
			out[i] = float32(ref)
		}
		return out, nil
	}
	if need := (n*nbits + 7) / 8; need > len(bds.packed) {
		return nil, corruptf("section 4 holds %d bytes, %d values of %d bits need %d", len(bds.packed), n, nbits, need)
	}
	scale := math.Ldexp(1, bds.BinaryScale()) * dscale
	r := newBitReader(bds.packed)
	for i := range out {
		x, err := r.read(nbits)
		if err != nil {
			return nil, corruptf("value %d: %v", i, err)
		}
		out[i] = float32(ref + float64(x)*scale)
	}
	return out, nil
}

// ToRowMajor reorders values scanned with mode so that rows are
// contiguous and x increases along a row. The j direction is kept.
func ToRowMajor(values []float32, nx, ny int, mode ScanMode) []float32 {
	if !mode.AdjacentPointsInIDirectionAreConsecutive() {
		t := make([]float32, len(values))
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				t[j*nx+i] = values[i*ny+j]
			}
		}
		values = t
	}
	if !mode.PointsScanInPlusIDirection() {
		for j := 0; j < ny; j++ {
			row := values[j*nx : (j+1)*nx]
			for a, b := 0, len(row)-1; a < b; a, b = a+1, b-1 {
				row[a], row[b] = row[b], row[a]
			}
		}
	}
	return values
}
