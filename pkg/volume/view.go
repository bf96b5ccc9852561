package volume

import (
	"errors"
	"fmt"
)

// ErrInvalidComponentIndex is returned when a component view is requested
// for a component index outside [0, Components).
var ErrInvalidComponentIndex = errors.New("component index out of range")

// ComponentView projects a single component of a VectorImage as a scalar
// field. Reads return component k of each pixel and writes replace
// component k in place, leaving the other components untouched, so a
// scalar-producing filter can target one channel of a vector image without
// copying the whole image. Writes are visible in the underlying image
// immediately.
type ComponentView struct {
	img *VectorImage
	k   int
}

// NewComponentView creates a view over component k of img.
//
// Returns ErrInvalidComponentIndex when k is outside the valid component
// range of the image.
func NewComponentView(img *VectorImage, k int) (*ComponentView, error) {
	if k < 0 || k >= img.Components {
		return nil, fmt.Errorf("%w: component %d of %d", ErrInvalidComponentIndex, k, img.Components)
	}
	return &ComponentView{img: img, k: k}, nil
}

// Component returns the component index this view projects.
func (v *ComponentView) Component() int { return v.k }

// NumPixels returns the number of pixels visible through the view.
func (v *ComponentView) NumPixels() int { return v.img.NumPixels() }

// Get returns component k of pixel i.
func (v *ComponentView) Get(i int) float64 {
	return v.img.Data[i*v.img.Components+v.k]
}

// Set replaces component k of pixel i.
func (v *ComponentView) Set(i int, val float64) {
	v.img.Data[i*v.img.Components+v.k] = val
}

// CopyFrom writes an entire scalar field through the view. The field must
// have exactly one value per pixel of the underlying image.
func (v *ComponentView) CopyFrom(field []float64) error {
	if len(field) != v.img.NumPixels() {
		return fmt.Errorf("scalar field has %d pixels, image has %d", len(field), v.img.NumPixels())
	}
	c := v.img.Components
	for i, val := range field {
		v.img.Data[i*c+v.k] = val
	}
	return nil
}
