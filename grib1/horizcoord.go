package grib1

import (
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
)

// Earth shapes of code table 7, in metres.
const (
	EarthRadius        = 6367470.0
	oblateMajorAxis    = 6378160.0
	oblateMinorAxis    = 6356775.0
	lonLatProjection   = "+proj=longlat +a=%g +b=%g"
	metresPerKilometre = 1000.0
)

// HorizCoordSys describes the x/y axes of decoded data. Data returned by
// Message.Data is always row major with x increasing along a row, so the
// axes are StartX + i*DX and StartY + j*DY.
type HorizCoordSys struct {
	// Kind is one of the names returned by GridKind.
	Kind string
	// Proj4 describes the projection, empty for plain lat/lon grids.
	Proj4 string
	// Units of the x and y axes: "degrees_east"/"degrees_north" or "km".
	XUnits, YUnits string

	Nx, Ny         int
	StartX, StartY float64
	DX, DY         float64

	// Lats replaces the regular y axis of Gaussian grids.
	Lats []float64

	// Rotated pole parameters, set for RotatedLatLon only.
	SouthPoleLat, SouthPoleLon, Rotation float64
}

// X returns the x coordinate of each column.
func (h *HorizCoordSys) X() []float64 {
	out := make([]float64, h.Nx)
	for i := range out {
		out[i] = h.StartX + float64(i)*h.DX
	}
	return out
}

// Y returns the y coordinate of each row.
func (h *HorizCoordSys) Y() []float64 {
	if h.Lats != nil {
		return append([]float64(nil), h.Lats...)
	}
	out := make([]float64, h.Ny)
	for j := range out {
		out[j] = h.StartY + float64(j)*h.DY
	}
	return out
}

func (h *HorizCoordSys) String() string {
	if h.Proj4 != "" {
		return fmt.Sprintf("%s %dx%d x0=%g y0=%g dx=%g dy=%g (%s)", h.Kind, h.Nx, h.Ny, h.StartX, h.StartY, h.DX, h.DY, h.Proj4)
	}
	return fmt.Sprintf("%s %dx%d x0=%g y0=%g dx=%g dy=%g", h.Kind, h.Nx, h.Ny, h.StartX, h.StartY, h.DX, h.DY)
}

// earthAxes returns the semi axes in metres for the resolution flags.
func earthAxes(f ResolutionFlags) (a, b float64) {
	if f.EarthOblate() {
		return oblateMajorAxis, oblateMinorAxis
	}
	return EarthRadius, EarthRadius
}

// projectPoint converts lon/lat in degrees to x/y in km with the proj4
// definition dst.
func projectPoint(dst string, f ResolutionFlags, lon, lat float64) (x, y float64, err error) {
	a, b := earthAxes(f)
	src, err := proj.Parse(fmt.Sprintf(lonLatProjection, a, b))
	if err != nil {
		return 0, 0, fmt.Errorf("parsing lon/lat projection: %w", err)
	}
	dstSR, err := proj.Parse(dst)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing projection %q: %w", dst, err)
	}
	t, err := src.NewTransform(dstSR)
	if err != nil {
		return 0, 0, fmt.Errorf("creating transform to %q: %w", dst, err)
	}
	x, y, err = t(lon, lat)
	if err != nil {
		return 0, 0, fmt.Errorf("projecting %g,%g: %w", lon, lat, err)
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, corruptf("point %g,%g is outside projection %q", lon, lat, dst)
	}
	return x / metresPerKilometre, y / metresPerKilometre, nil
}

// normalizeLon maps lon into [-180, 180).
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// axisStart returns the first coordinate of an axis once data has been
// reordered so the axis increases, given the first point, the signed step
// and the number of points. Only the i direction is reordered.
func axisStart(first, signedStep float64, n int) float64 {
	if signedStep < 0 {
		return first + float64(n-1)*signedStep
	}
	return first
}
