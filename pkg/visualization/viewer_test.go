package visualization

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gradientfield/pkg/volume"
)

// createTestField builds a 3D gradient field with a constant vector value
func createTestField(t *testing.T, dims []int, g []float64) *volume.VectorImage {
	t.Helper()
	field, err := volume.NewVectorImage(dims, len(g))
	if err != nil {
		t.Fatalf("Failed to create field: %v", err)
	}
	for i := 0; i < field.NumPixels(); i++ {
		copy(field.PixelAt(i), g)
	}
	return field
}

// TestNewViewerRequires3D verifies the dimensionality check
func TestNewViewerRequires3D(t *testing.T) {
	field, _ := volume.NewVectorImage([]int{4, 4}, 2)
	if _, err := NewViewer(field); err == nil {
		t.Error("Expected error for a 2D field")
	}
}

// TestMagnitudeStats verifies the magnitude computation on a known field
func TestMagnitudeStats(t *testing.T) {
	// Every pixel has gradient (3, 4, 0), magnitude 5
	field := createTestField(t, []int{4, 4, 4}, []float64{3, 4, 0})

	viewer, err := NewViewer(field)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	stats := viewer.MagnitudeStats()
	if math.Abs(stats.Mean-5.0) > 1e-12 {
		t.Errorf("Expected mean magnitude 5.0, got %f", stats.Mean)
	}
	if math.Abs(stats.Max-5.0) > 1e-12 {
		t.Errorf("Expected max magnitude 5.0, got %f", stats.Max)
	}
	if stats.StdDev > 1e-12 {
		t.Errorf("Expected zero spread on a constant field, got %f", stats.StdDev)
	}
}

// TestExtractSliceDimensions verifies the orientation of extracted planes
func TestExtractSliceDimensions(t *testing.T) {
	field := createTestField(t, []int{4, 5, 6}, []float64{1, 0, 0})
	viewer, err := NewViewer(field)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	cases := []struct {
		axis          string
		position      int
		width, height int
	}{
		{"x", 0, 6, 5}, // YZ plane: depth x height
		{"y", 0, 4, 6}, // XZ plane: width x depth
		{"z", 0, 4, 5}, // XY plane: width x height
	}
	for _, tc := range cases {
		img, err := viewer.ExtractMagnitudeSlice(tc.axis, tc.position)
		if err != nil {
			t.Fatalf("Axis %s: extraction failed: %v", tc.axis, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() != tc.width || bounds.Dy() != tc.height {
			t.Errorf("Axis %s: expected %dx%d, got %dx%d",
				tc.axis, tc.width, tc.height, bounds.Dx(), bounds.Dy())
		}
	}

	if _, err := viewer.ExtractMagnitudeSlice("x", 10); err == nil {
		t.Error("Expected error for out-of-range position")
	}
	if _, err := viewer.ExtractMagnitudeSlice("w", 0); err == nil {
		t.Error("Expected error for invalid axis name")
	}
}

// TestExtractComponentSlice verifies component selection and validation
func TestExtractComponentSlice(t *testing.T) {
	field := createTestField(t, []int{4, 4, 4}, []float64{1, 2, 3})
	viewer, _ := NewViewer(field)

	img, err := viewer.ExtractComponentSlice("z", 1, 2)
	if err != nil {
		t.Fatalf("Component extraction failed: %v", err)
	}
	if _, ok := img.(*image.Gray16); !ok {
		t.Errorf("Expected a Gray16 slice, got %T", img)
	}

	if _, err := viewer.ExtractComponentSlice("z", 1, 3); err == nil {
		t.Error("Expected error for out-of-range component")
	}
}

// TestSaveSliceSequence verifies JPEG export of magnitude slices
func TestSaveSliceSequence(t *testing.T) {
	field := createTestField(t, []int{3, 3, 2}, []float64{1, 0, 0})
	viewer, _ := NewViewer(field)

	dir := t.TempDir()
	if err := viewer.SaveSliceSequence("z", dir); err != nil {
		t.Fatalf("SaveSliceSequence failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read output dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 slice files, got %d", len(entries))
	}
}

// TestSaveMagnitudeHistogram verifies the histogram plot is written
func TestSaveMagnitudeHistogram(t *testing.T) {
	field, _ := volume.NewVectorImage([]int{4, 4, 4}, 3)
	// Vary the magnitudes so the histogram has more than one bin
	for i := 0; i < field.NumPixels(); i++ {
		field.PixelAt(i)[0] = float64(i % 7)
	}
	viewer, err := NewViewer(field)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	path := filepath.Join(t.TempDir(), "hist.png")
	if err := viewer.SaveMagnitudeHistogram(path, 16); err != nil {
		t.Fatalf("SaveMagnitudeHistogram failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Histogram file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Histogram file is empty")
	}
}
