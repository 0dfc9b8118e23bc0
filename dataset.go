package gribcollection

import (
	"math"
	"os"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/gribindex"
	"github.com/sdifrance/gribcollection/rectilinear"
)

// OpenOption configures Open.
type OpenOption func(*Dataset)

// WithInterpolation sets how quasi-regular rows are stretched to the
// longest row. The default is linear.
func WithInterpolation(i grib1.Interpolation) OpenOption {
	return func(d *Dataset) { d.interp = i }
}

// Dataset reads the variables of an indexed collection. It is safe for
// concurrent use.
type Dataset struct {
	*gribindex.Index
	interp grib1.Interpolation

	mu    sync.Mutex
	files map[int]*os.File
}

// Open opens the index at path.
func Open(path string, opts ...OpenOption) (*Dataset, error) {
	idx, err := gribindex.Open(path)
	if err != nil {
		return nil, err
	}
	d := &Dataset{Index: idx, interp: grib1.InterpolationLinear, files: map[int]*os.File{}}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Close closes the index and every source file opened by reads.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for n, f := range d.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(d.files, n)
	}
	if err := d.Index.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Range is the half open interval [Start, End) of a dimension. A negative
// End extends to the end of the dimension.
type Range struct {
	Start, End int
}

// All selects a whole dimension.
var All = Range{0, -1}

func (r Range) resolve(n int, dim string) (Range, error) {
	if r.End < 0 {
		r.End = n
	}
	if r.Start < 0 || r.Start > r.End || r.End > n {
		return r, errors.Errorf("%s range [%d,%d) outside [0,%d)", dim, r.Start, r.End, n)
	}
	return r, nil
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.End - r.Start }

// Array is a hyperslab of a variable with dimensions time, ensemble,
// vertical, y and x.
type Array struct {
	Shape [5]int
	Data  []float32
}

// At returns the value at the given indices of the array.
func (a *Array) At(t, e, z, y, x int) float32 {
	s := a.Shape
	return a.Data[(((t*s[1]+e)*s[2]+z)*s[3]+y)*s[4]+x]
}

// Variable finds a variable by group and variable name.
func (d *Dataset) Variable(group, name string) (*rectilinear.Group, *rectilinear.Variable, error) {
	g, v, ok := d.FindVariable(group, name)
	if !ok {
		return nil, nil, errors.Errorf("no variable %s in group %s of %s", name, group, d.Path())
	}
	return g, v, nil
}

// ReadSlice decodes the records of v within the given ranges. Cells of
// missing slots are NaN, as are cells of records that cannot be read or
// decoded; those failures are logged and do not fail the read.
func (d *Dataset) ReadSlice(g *rectilinear.Group, v *rectilinear.Variable, tr, er, zr, yr, xr Range) (*Array, error) {
	slots, err := d.Slots(g, v)
	if err != nil {
		return nil, err
	}
	ntimes, nens, nverts := v.Shape(g)
	nx, ny := g.Grid.Shape()
	ranges := []*Range{&tr, &er, &zr, &yr, &xr}
	for i, n := range []int{ntimes, nens, nverts, ny, nx} {
		r, err := ranges[i].resolve(n, [...]string{"time", "ensemble", "vertical", "y", "x"}[i])
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s/%s", g.Name, v.Name)
		}
		*ranges[i] = r
	}

	a := &Array{Shape: [5]int{tr.Len(), er.Len(), zr.Len(), yr.Len(), xr.Len()}}
	a.Data = make([]float32, a.Shape[0]*a.Shape[1]*a.Shape[2]*a.Shape[3]*a.Shape[4])
	nan := float32(math.NaN())
	for i := range a.Data {
		a.Data[i] = nan
	}
	plane := a.Shape[3] * a.Shape[4]
	out := 0
	for t := tr.Start; t < tr.End; t++ {
		for e := er.Start; e < er.End; e++ {
			for z := zr.Start; z < zr.End; z++ {
				dst := a.Data[out : out+plane]
				out += plane
				s := slots[rectilinear.SlotIndex(t, e, z, nens, nverts)]
				if s.Missing() {
					continue
				}
				values, err := d.readRecord(s, nx*ny)
				if err != nil {
					glog.Warningf("%s/%s slot (%d,%d,%d): %v", g.Name, v.Name, t, e, z, err)
					continue
				}
				for y := yr.Start; y < yr.End; y++ {
					copy(dst[(y-yr.Start)*a.Shape[4]:], values[y*nx+xr.Start:y*nx+xr.End])
				}
			}
		}
	}
	return a, nil
}

// readRecord decodes the message of s.
func (d *Dataset) readRecord(s rectilinear.Slot, npoints int) ([]float32, error) {
	f, err := d.file(s.FileNo)
	if err != nil {
		return nil, err
	}
	data, err := grib1.ReadBytesAt(f, s.Pos, int(s.Length))
	if err != nil {
		return nil, errors.Wrapf(err, "reading message @ byte offset %d of %s", s.Pos, f.Name())
	}
	msg, err := grib1.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding message @ byte offset %d of %s", s.Pos, f.Name())
	}
	if int64(msg.BDSOffset()) != s.BDSOffset {
		return nil, errors.Errorf("message @ byte offset %d of %s has section 4 at %d, index says %d", s.Pos, f.Name(), msg.BDSOffset(), s.BDSOffset)
	}
	values, err := msg.Data(d.interp)
	if err != nil {
		return nil, errors.Wrapf(err, "unpacking message @ byte offset %d of %s", s.Pos, f.Name())
	}
	if len(values) != npoints {
		return nil, errors.Errorf("message @ byte offset %d of %s has %d points, grid has %d", s.Pos, f.Name(), len(values), npoints)
	}
	return values, nil
}

func (d *Dataset) file(n int) (*os.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.files[n]; ok {
		return f, nil
	}
	if n < 0 || n >= len(d.Files) {
		return nil, errors.Errorf("file number %d out of range, index lists %d files", n, len(d.Files))
	}
	f, err := os.Open(d.Files[n])
	if err != nil {
		return nil, err
	}
	d.files[n] = f
	return f, nil
}
