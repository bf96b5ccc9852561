// Package visualization exports computed gradient fields for inspection:
// per-axis component slices and gradient-magnitude slices as grayscale
// images, magnitude summary statistics, and a magnitude histogram plot.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"gradientfield/pkg/volume"
)

// Viewer renders 2D views of a 3D gradient vector field.
type Viewer struct {
	// field is the gradient field being viewed
	field *volume.VectorImage

	// dimensions of the field
	width  int
	height int
	depth  int

	// magnitude caches the per-pixel gradient magnitude
	magnitude []float64
}

// NewViewer creates a viewer over a 3-dimensional gradient field.
func NewViewer(field *volume.VectorImage) (*Viewer, error) {
	if field.NumDims() != 3 {
		return nil, fmt.Errorf("viewer requires a 3D field, got %d dimensions", field.NumDims())
	}
	v := &Viewer{
		field:  field,
		width:  field.Dims[0],
		height: field.Dims[1],
		depth:  field.Dims[2],
	}
	v.magnitude = make([]float64, field.NumPixels())
	for i := range v.magnitude {
		g := field.PixelAt(i)
		sum := 0.0
		for _, c := range g {
			sum += c * c
		}
		v.magnitude[i] = math.Sqrt(sum)
	}
	return v, nil
}

// Magnitudes returns the per-pixel gradient magnitudes, axis 0 fastest.
func (v *Viewer) Magnitudes() []float64 { return v.magnitude }

// Stats summarizes the gradient magnitudes of the field.
type Stats struct {
	Mean   float64
	StdDev float64
	Max    float64
}

// MagnitudeStats computes summary statistics over the gradient magnitudes.
func (v *Viewer) MagnitudeStats() Stats {
	maxVal := 0.0
	for _, m := range v.magnitude {
		if m > maxVal {
			maxVal = m
		}
	}
	return Stats{
		Mean:   stat.Mean(v.magnitude, nil),
		StdDev: stat.StdDev(v.magnitude, nil),
		Max:    maxVal,
	}
}

// ExtractMagnitudeSlice extracts a 2D gradient-magnitude slice along the
// specified axis, rescaled so the field's maximum magnitude maps to white.
func (v *Viewer) ExtractMagnitudeSlice(axis string, position int) (image.Image, error) {
	return v.extractSlice(axis, position, func(idx int) float64 { return v.magnitude[idx] })
}

// ExtractComponentSlice extracts a 2D slice of one gradient component
// along the specified axis. Component values are shifted and rescaled so
// the most negative value maps to black and the most positive to white.
func (v *Viewer) ExtractComponentSlice(axis string, position, component int) (image.Image, error) {
	if component < 0 || component >= v.field.Components {
		return nil, fmt.Errorf("component %d out of range, field has %d", component, v.field.Components)
	}
	c := v.field.Components
	return v.extractSlice(axis, position, func(idx int) float64 {
		return v.field.Data[idx*c+component]
	})
}

// extractSlice walks the plane orthogonal to the named axis and renders
// value(idx) for each pixel, normalized over the whole field.
func (v *Viewer) extractSlice(axis string, position int, value func(idx int) float64) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < v.field.NumPixels(); i++ {
		val := value(i)
		if val < lo {
			lo = val
		}
		if val > hi {
			hi = val
		}
	}
	scale := hi - lo
	if scale == 0 {
		scale = 1
	}

	gray := func(val float64) color.Gray16 {
		norm := (val - lo) / scale
		return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, norm*65535)))}
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Slice along the YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				idx := z*v.width*v.height + y*v.width + position
				img.SetGray16(z, y, gray(value(idx)))
			}
		}

	case "y", "Y":
		// Slice along the XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				idx := z*v.width*v.height + position*v.width + x
				img.SetGray16(x, z, gray(value(idx)))
			}
		}

	case "z", "Z":
		// Slice along the XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				idx := position*v.width*v.height + y*v.width + x
				img.SetGray16(x, y, gray(value(idx)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves magnitude slices along the
// specified axis, one JPEG per position.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractMagnitudeSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("magnitude_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// SaveMagnitudeHistogram renders a histogram of the gradient magnitudes
// and saves it to filename (format chosen by extension, e.g. .png).
func (v *Viewer) SaveMagnitudeHistogram(filename string, bins int) error {
	if bins < 1 {
		bins = 64
	}

	p := plot.New()
	p.Title.Text = "Gradient magnitude distribution"
	p.X.Label.Text = "|∇f|"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(v.magnitude), bins)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("saving histogram: %w", err)
	}
	return nil
}
