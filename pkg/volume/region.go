package volume

import "fmt"

// Region describes a rectangular portion of an N-dimensional image as an
// origin and a size, one entry per axis. Regions are used to communicate
// which part of an image is valid or has been requested by a consumer.
type Region struct {
	// Origin is the index of the first pixel of the region along each axis.
	Origin []int

	// Size is the extent of the region in pixels along each axis.
	Size []int
}

// NewRegion creates a region from an origin and size. Both slices must have
// the same length and every size entry must be positive.
func NewRegion(origin, size []int) (Region, error) {
	if len(origin) != len(size) {
		return Region{}, fmt.Errorf("origin has %d axes, size has %d", len(origin), len(size))
	}
	for a, s := range size {
		if s <= 0 {
			return Region{}, fmt.Errorf("region size must be positive on axis %d, got %d", a, s)
		}
	}
	return Region{Origin: append([]int(nil), origin...), Size: append([]int(nil), size...)}, nil
}

// Dims returns the number of axes of the region.
func (r Region) Dims() int { return len(r.Size) }

// NumPixels returns the total number of pixels covered by the region.
func (r Region) NumPixels() int {
	if len(r.Size) == 0 {
		return 0
	}
	n := 1
	for _, s := range r.Size {
		n *= s
	}
	return n
}

// Equal reports whether two regions describe the same origin and size.
func (r Region) Equal(o Region) bool {
	if len(r.Size) != len(o.Size) || len(r.Origin) != len(o.Origin) {
		return false
	}
	for a := range r.Size {
		if r.Size[a] != o.Size[a] || r.Origin[a] != o.Origin[a] {
			return false
		}
	}
	return true
}

// Contains reports whether the region o lies entirely inside r.
func (r Region) Contains(o Region) bool {
	if len(r.Size) != len(o.Size) {
		return false
	}
	for a := range r.Size {
		if o.Origin[a] < r.Origin[a] {
			return false
		}
		if o.Origin[a]+o.Size[a] > r.Origin[a]+r.Size[a] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the region.
func (r Region) Clone() Region {
	return Region{
		Origin: append([]int(nil), r.Origin...),
		Size:   append([]int(nil), r.Size...),
	}
}
