package geometry

import "math"

// Pixel enumerates the element types a Raster can hold.
type Pixel interface {
	~uint8 | ~uint16 | ~float32 | ~float64
}

// Raster is a row-major single channel image.
type Raster[T Pixel] struct {
	Width  int
	Height int
	Pix    []T
}

// Binary is a foreground/background mask. Non-zero pixels are foreground.
type Binary = Raster[uint8]

// NewRaster allocates a zeroed width×height raster.
func NewRaster[T Pixel](width, height int) *Raster[T] {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster[T]{
		Width:  width,
		Height: height,
		Pix:    make([]T, width*height),
	}
}

// NewBinary allocates an all-background mask.
func NewBinary(width, height int) *Binary {
	return NewRaster[uint8](width, height)
}

// InBounds reports whether (x, y) addresses a pixel of the raster.
func (r *Raster[T]) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// At returns the pixel at (x, y). No bounds checking is performed beyond the
// slice access itself.
func (r *Raster[T]) At(x, y int) T {
	return r.Pix[y*r.Width+x]
}

// Set writes the pixel at (x, y).
func (r *Raster[T]) Set(x, y int, v T) {
	r.Pix[y*r.Width+x] = v
}

// Fill sets every pixel to v.
func (r *Raster[T]) Fill(v T) {
	for i := range r.Pix {
		r.Pix[i] = v
	}
}

// Interpolate samples the raster at a continuous position using bilinear
// interpolation between pixel centers. Positions outside the raster are
// clamped to the border.
func (r *Raster[T]) Interpolate(x, y float64) float64 {
	if r.Width == 0 || r.Height == 0 {
		return 0
	}
	// Pixel centers sit at +0.5.
	fx := x - 0.5
	fy := y - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	ax := fx - float64(x0)
	ay := fy - float64(y0)

	v00 := float64(r.At(clampInt(x0, 0, r.Width-1), clampInt(y0, 0, r.Height-1)))
	v10 := float64(r.At(clampInt(x0+1, 0, r.Width-1), clampInt(y0, 0, r.Height-1)))
	v01 := float64(r.At(clampInt(x0, 0, r.Width-1), clampInt(y0+1, 0, r.Height-1)))
	v11 := float64(r.At(clampInt(x0+1, 0, r.Width-1), clampInt(y0+1, 0, r.Height-1)))

	top := v00*(1-ax) + v10*ax
	bottom := v01*(1-ax) + v11*ax
	return top*(1-ay) + bottom*ay
}

// CountNonZero returns the number of non-zero pixels.
func (r *Raster[T]) CountNonZero() int {
	n := 0
	for _, v := range r.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
