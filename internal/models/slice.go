package models

import (
	"image"
)

// Slice represents a single 2D slice of an image stack with metadata
type Slice struct {
	// Image is the actual slice image data
	Image image.Image

	// Index is the position of this slice in the sequence
	Index int

	// Filename is the original filename of the slice
	Filename string

	// Position is the physical position of the slice along the stacking axis
	Position float64
}

// Stack describes a loaded slice stack before it is assembled into a volume
type Stack struct {
	// Slices are the loaded slices in stacking order
	Slices []Slice

	// Width and Height are the in-plane dimensions in pixels; all slices
	// in a stack share them
	Width, Height int

	// SliceGap is the physical distance between consecutive slices in mm
	SliceGap float64
}

// Depth returns the number of slices in the stack
func (s *Stack) Depth() int { return len(s.Slices) }
