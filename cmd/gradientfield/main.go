package main

import (
	"context"
	"flag"
	"fmt"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gradientfield/internal/models"
	"gradientfield/pkg/config"
	"gradientfield/pkg/gradient"
	"gradientfield/pkg/visualization"
	"gradientfield/pkg/volume"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing 2D image slices (JPEG)")
	configPath := flag.String("config", "gradientfield.yaml", "Path to YAML configuration file")
	sigma := flag.Float64("sigma", 0, "Gaussian width in physical units (overrides config when > 0)")
	sliceGap := flag.Float64("gap", 0, "Inter-slice gap in mm (overrides config when > 0)")
	slicesDir := flag.String("slices-dir", "", "Directory to save gradient magnitude slices (overrides config)")
	flag.Parse()

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *sigma > 0 {
		cfg.Processing.Sigma = *sigma
	}
	if *sliceGap > 0 {
		cfg.Input.SliceGap = *sliceGap
	}
	if *slicesDir != "" {
		cfg.Output.SlicesDir = *slicesDir
	}

	fmt.Println("================================")
	fmt.Println("GRADIENT VECTOR FIELD COMPUTATION VIA RECURSIVE GAUSSIAN FILTERING")
	fmt.Println("================================")

	// Step 1: Load the slice stack
	fmt.Println("Step 1: Loading input slices...")
	stack, err := loadStack(*inputDir, cfg.Input.SliceGap)
	if err != nil {
		log.Fatalf("Failed to load slices: %v", err)
	}
	fmt.Printf("Loaded %d slices with dimensions %dx%d\n", stack.Depth(), stack.Width, stack.Height)
	fmt.Printf("Inter-slice gap: %.1f mm\n", stack.SliceGap)

	// Step 2: Assemble the 3D volume
	fmt.Println("Step 2: Assembling 3D volume...")
	vol, err := stackToVolume(stack)
	if err != nil {
		log.Fatalf("Failed to assemble volume: %v", err)
	}

	// Step 3: Compute the gradient field
	fmt.Println("Step 3: Computing gradient vector field...")
	filter := gradient.NewFilter()
	if err := filter.SetSigma(cfg.Processing.Sigma); err != nil {
		log.Fatalf("Invalid sigma: %v", err)
	}
	filter.SetNormalizeAcrossScale(cfg.Processing.NormalizeAcrossScale)
	filter.SetUseImageDirection(cfg.Processing.UseImageDirection)
	filter.SetNumWorkers(cfg.Processing.NumWorkers)
	filter.SetProgressFunc(func(fraction float64) {
		fmt.Printf("\rComputing gradient: %.1f%% complete", fraction*100)
	})

	startTime := time.Now()
	field, err := filter.Compute(context.Background(), vol)
	if err != nil {
		log.Fatalf("Gradient computation failed: %v", err)
	}
	fmt.Printf("\nGradient field computed in %.2f seconds\n", time.Since(startTime).Seconds())

	// Step 4: Summarize and export
	fmt.Println("Step 4: Exporting results...")
	viewer, err := visualization.NewViewer(field)
	if err != nil {
		log.Fatalf("Failed to create viewer: %v", err)
	}

	stats := viewer.MagnitudeStats()
	fmt.Printf("\nGradient magnitude statistics:\n")
	fmt.Printf("==============================\n")
	fmt.Printf("Mean: %.6f\n", stats.Mean)
	fmt.Printf("Std dev: %.6f\n", stats.StdDev)
	fmt.Printf("Max: %.6f\n", stats.Max)

	for _, axis := range []string{"x", "y", "z"} {
		axisDir := filepath.Join(cfg.Output.SlicesDir, axis)
		if cfg.Output.Verbose {
			fmt.Printf("Saving %s-axis magnitude slices to: %s\n", axis, axisDir)
		}
		if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
			log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
		}
	}

	if cfg.Output.HistogramFile != "" {
		if err := viewer.SaveMagnitudeHistogram(cfg.Output.HistogramFile, 64); err != nil {
			log.Printf("Warning: Failed to save magnitude histogram: %v", err)
		} else if cfg.Output.Verbose {
			fmt.Printf("Magnitude histogram saved to: %s\n", cfg.Output.HistogramFile)
		}
	}

	fmt.Println("\nDone.")
}

// loadStack loads and sorts the input slices from the given directory.
// Files are ordered by the numeric part of their filenames so the stack
// preserves the acquisition order.
func loadStack(inputDir string, sliceGap float64) (*models.Stack, error) {
	files, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext == ".jpg" || ext == ".jpeg" {
			imageFiles = append(imageFiles, file.Name())
		}
	}
	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no JPG images found in input directory")
	}

	sort.Slice(imageFiles, func(i, j int) bool {
		return extractNumber(imageFiles[i]) < extractNumber(imageFiles[j])
	})

	stack := &models.Stack{SliceGap: sliceGap}
	for i, filename := range imageFiles {
		file, err := os.Open(filepath.Join(inputDir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to open image %s: %w", filename, err)
		}
		img, err := jpeg.Decode(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %s: %w", filename, err)
		}

		if i == 0 {
			bounds := img.Bounds()
			stack.Width = bounds.Dx()
			stack.Height = bounds.Dy()
		}

		stack.Slices = append(stack.Slices, models.Slice{
			Image:    img,
			Index:    i,
			Filename: filename,
			Position: float64(i) * sliceGap,
		})
	}
	return stack, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// stackToVolume assembles a slice stack into a 3D scalar volume with unit
// in-plane spacing and the slice gap as z spacing. Pixel intensities are
// mapped to [0, 1].
func stackToVolume(stack *models.Stack) (*volume.Image, error) {
	vol, err := volume.NewImage([]int{stack.Width, stack.Height, stack.Depth()})
	if err != nil {
		return nil, err
	}
	vol.Spacing[2] = stack.SliceGap

	for z, slice := range stack.Slices {
		for y := 0; y < stack.Height; y++ {
			for x := 0; x < stack.Width; x++ {
				r, _, _, _ := slice.Image.At(x, y).RGBA()
				// 16-bit color to float64 in [0, 1]
				vol.Data[z*stack.Width*stack.Height+y*stack.Width+x] = float64(r) / 65535.0
			}
		}
	}
	return vol, nil
}
