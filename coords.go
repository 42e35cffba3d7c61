package mandel

import (
	"fmt"
	"image"
	"math"
)

// Mapper converts between pixel coordinates of a width×height image and
// points of the region the image shows. Pixel (0, 0) maps to the region's
// Min corner.
type Mapper struct {
	RealScale, ImagScale float64 // plane units per pixel, always >= 0
	RealMin, ImagMin     float64
}

// NewMapper derives the per-axis scale for showing r (normalized first) on a
// width×height image. The spans are taken as absolute values, so reversed
// bounds are accepted.
func NewMapper(width, height int, r Region) (Mapper, error) {
	if width <= 0 || height <= 0 {
		return Mapper{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	rMin, rMax, iMin, iMax := r.Bounds()
	return Mapper{
		RealScale: math.Abs(rMax-rMin) / float64(width),
		ImagScale: math.Abs(iMax-iMin) / float64(height),
		RealMin:   rMin,
		ImagMin:   iMin,
	}, nil
}

// ToPlane maps pixel (x, y) to the complex plane.
func (m Mapper) ToPlane(x, y int) complex128 {
	return complex(float64(x)*m.RealScale+m.RealMin, float64(y)*m.ImagScale+m.ImagMin)
}

// ToPixel maps c back to pixel coordinates, truncating toward zero.
func (m Mapper) ToPixel(c complex128) image.Point {
	return image.Point{
		X: int((real(c) - m.RealMin) / m.RealScale),
		Y: int((imag(c) - m.ImagMin) / m.ImagScale),
	}
}

// PixelRect returns the pixel rectangle covered by r under m.
func (m Mapper) PixelRect(r Region) image.Rectangle {
	n := r.Normalize()
	a, b := m.ToPixel(n.Min), m.ToPixel(n.Max)
	return image.Rectangle{Min: a, Max: b}.Canon()
}

// Region returns the part of the plane covered by the pixel rectangle.
func (m Mapper) Region(rect image.Rectangle) Region {
	return Region{Min: m.ToPlane(rect.Min.X, rect.Min.Y), Max: m.ToPlane(rect.Max.X, rect.Max.Y)}
}
