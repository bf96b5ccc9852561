// Package volume provides the N-dimensional image containers used by the
// gradient pipeline: a scalar Image, a multi-component VectorImage, and a
// write-through ComponentView that exposes one channel of a vector image
// as a standalone scalar field.
//
// Pixel data is stored as a flat []float64 in row-major order with axis 0
// varying fastest, so for a 3D volume the linear index of (x, y, z) is
// z*w*h + y*w + x. All containers carry per-axis spacing and an optional
// grid-to-physical direction matrix.
package volume

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Image is an N-dimensional scalar image on a regular grid.
type Image struct {
	// Data holds the pixel values as a flat array, axis 0 fastest.
	Data []float64

	// Dims is the buffered extent in pixels along each axis.
	Dims []int

	// Spacing is the physical distance between adjacent pixels along
	// each axis. Defaults to 1.0 on every axis.
	Spacing []float64

	// Direction maps grid-axis coordinates to physical-space coordinates.
	// A nil Direction means the identity transform.
	Direction *mat.Dense

	// Requested is the region a downstream consumer asked for. Producers
	// that need the full extent are free to override it; see the gradient
	// package's region policy.
	Requested Region
}

// NewImage allocates a scalar image with the given per-axis extents.
// Spacing defaults to 1.0 along every axis and the requested region to the
// full buffered extent.
func NewImage(dims []int) (*Image, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("image must have at least one axis")
	}
	n := 1
	for a, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("image extent must be positive on axis %d, got %d", a, d)
		}
		n *= d
	}

	img := &Image{
		Data: make([]float64, n),
		Dims: append([]int(nil), dims...),
	}
	img.Spacing = make([]float64, len(dims))
	for a := range img.Spacing {
		img.Spacing[a] = 1.0
	}
	img.Requested = img.FullRegion()
	return img, nil
}

// NumDims returns the number of spatial axes.
func (img *Image) NumDims() int { return len(img.Dims) }

// NumPixels returns the total number of pixels in the buffered extent.
func (img *Image) NumPixels() int { return len(img.Data) }

// FullRegion returns the region covering the entire buffered extent of the
// image, with a zero origin.
func (img *Image) FullRegion() Region {
	return Region{
		Origin: make([]int, len(img.Dims)),
		Size:   append([]int(nil), img.Dims...),
	}
}

// Strides returns the linear-index stride of each axis. Axis 0 has stride
// 1; axis k has stride Dims[0]*...*Dims[k-1]. The result is computed
// fresh, so concurrent readers of the same image never share state.
func (img *Image) Strides() []int {
	strides := make([]int, len(img.Dims))
	s := 1
	for a := range img.Dims {
		strides[a] = s
		s *= img.Dims[a]
	}
	return strides
}

// Offset converts per-axis coordinates to a linear index into Data.
func (img *Image) Offset(coords []int) int {
	strides := img.Strides()
	idx := 0
	for a, c := range coords {
		idx += c * strides[a]
	}
	return idx
}

// At returns the pixel value at the given coordinates.
func (img *Image) At(coords ...int) float64 { return img.Data[img.Offset(coords)] }

// Set stores the pixel value at the given coordinates.
func (img *Image) Set(v float64, coords ...int) { img.Data[img.Offset(coords)] = v }

// DirectionMatrix returns the grid-to-physical direction matrix, building
// an identity when none has been set.
func (img *Image) DirectionMatrix() *mat.Dense {
	if img.Direction != nil {
		return img.Direction
	}
	d := len(img.Dims)
	ident := mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		ident.Set(i, i, 1.0)
	}
	return ident
}

// HasIdentityDirection reports whether the direction matrix is the
// identity (or unset, which means the same thing).
func (img *Image) HasIdentityDirection() bool {
	if img.Direction == nil {
		return true
	}
	d := len(img.Dims)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if img.Direction.At(i, j) != want {
				return false
			}
		}
	}
	return true
}

// CloneShape returns a new zero-filled image with the same extents,
// spacing and direction as img.
func (img *Image) CloneShape() *Image {
	out, _ := NewImage(img.Dims)
	copy(out.Spacing, img.Spacing)
	if img.Direction != nil {
		out.Direction = mat.DenseCopyOf(img.Direction)
	}
	return out
}

// VectorImage is an N-dimensional image whose pixels are fixed-size
// vectors. Component values are interleaved: the k-th component of pixel i
// lives at Data[i*Components+k].
type VectorImage struct {
	Data       []float64
	Dims       []int
	Components int
	Spacing    []float64
	Direction  *mat.Dense
}

// NewVectorImage allocates a vector image with the given extents and
// number of components per pixel.
func NewVectorImage(dims []int, components int) (*VectorImage, error) {
	if components <= 0 {
		return nil, fmt.Errorf("vector image must have at least one component, got %d", components)
	}
	scalar, err := NewImage(dims)
	if err != nil {
		return nil, err
	}

	v := &VectorImage{
		Data:       make([]float64, len(scalar.Data)*components),
		Dims:       scalar.Dims,
		Components: components,
		Spacing:    scalar.Spacing,
	}
	return v, nil
}

// NumDims returns the number of spatial axes.
func (v *VectorImage) NumDims() int { return len(v.Dims) }

// NumPixels returns the number of pixels (not component values).
func (v *VectorImage) NumPixels() int { return len(v.Data) / v.Components }

// FullRegion returns the region covering the entire buffered extent.
func (v *VectorImage) FullRegion() Region {
	return Region{
		Origin: make([]int, len(v.Dims)),
		Size:   append([]int(nil), v.Dims...),
	}
}

// PixelAt returns the vector value of pixel i as a slice aliasing the
// underlying storage; mutating it mutates the image.
func (v *VectorImage) PixelAt(i int) []float64 {
	return v.Data[i*v.Components : (i+1)*v.Components]
}
