package grib1

import (
	"fmt"
	"math"
	"strings"
)

// Interpolation selects how rows of a quasi-regular grid are stretched to
// the longest row.
type Interpolation int

const (
	// InterpolationNone left-aligns each row and pads with NaN.
	InterpolationNone Interpolation = iota
	// InterpolationNearest copies the nearest value of the row.
	InterpolationNearest
	// InterpolationLinear interpolates between the two enclosing values.
	InterpolationLinear
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationNone:
		return "none"
	case InterpolationNearest:
		return "nearest"
	case InterpolationLinear:
		return "linear"
	}
	return fmt.Sprintf("interpolation%d", int(i))
}

// ParseInterpolation accepts the names returned by Interpolation.String.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return InterpolationNone, nil
	case "nearest":
		return InterpolationNearest, nil
	case "linear":
		return InterpolationLinear, nil
	}
	return InterpolationNone, fmt.Errorf("unknown interpolation %q", s)
}

// ExpandThin resamples the rows of a quasi-regular grid, stored back to back
// in values, to nx points each. The result is row major.
func ExpandThin(values []float32, rows []int, nx int, interp Interpolation) ([]float32, error) {
	total := 0
	for _, r := range rows {
		total += r
	}
	if total != len(values) {
		return nil, corruptf("quasi-regular rows hold %d points, got %d values", total, len(values))
	}
	out := make([]float32, nx*len(rows))
	off := 0
	for j, n := range rows {
		row := values[off : off+n]
		off += n
		resampleRow(out[j*nx:(j+1)*nx], row, interp)
	}
	return out, nil
}

func resampleRow(dst, row []float32, interp Interpolation) {
	nan := float32(math.NaN())
	n, nx := len(row), len(dst)
	if n == nx {
		copy(dst, row)
		return
	}
	if n == 0 {
		for i := range dst {
			dst[i] = nan
		}
		return
	}
	if interp == InterpolationNone {
		copy(dst, row)
		for i := n; i < nx; i++ {
			dst[i] = nan
		}
		return
	}
	if n == 1 || nx == 1 {
		for i := range dst {
			dst[i] = row[0]
		}
		return
	}
	scale := float64(n-1) / float64(nx-1)
	for i := range dst {
		x := float64(i) * scale
		if interp == InterpolationNearest {
			dst[i] = row[int(math.Round(x))]
			continue
		}
		lo := int(math.Floor(x))
		if lo >= n-1 {
			dst[i] = row[n-1]
			continue
		}
		w := float32(x - float64(lo))
		a, b := row[lo], row[lo+1]
		switch {
		case isNaN32(a) && w < 0.5:
			dst[i] = nan
		case isNaN32(a):
			dst[i] = b
		case isNaN32(b) && w >= 0.5:
			dst[i] = nan
		case isNaN32(b):
			dst[i] = a
		default:
			dst[i] = a + w*(b-a)
		}
	}
}

func isNaN32(f float32) bool { return f != f }
