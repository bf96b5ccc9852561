// Package gradient computes the gradient vector field of an N-dimensional
// scalar image by convolving each axis with the first derivative of a
// Gaussian, using the recursive passes from pkg/recursive.
//
// For each spatial axis t the filter runs a chain that differentiates
// along t and smooths along every other axis, then writes the resulting
// scalar field into component t of the output vector image through a
// write-through component view. Chains read the same immutable input and
// write disjoint components, so they run in parallel.
package gradient

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"gradientfield/pkg/recursive"
	"gradientfield/pkg/volume"

	"gonum.org/v1/gonum/mat"
)

// ProgressFunc receives fractional completion updates in [0, 1]. Updates
// are monotonically increasing and delivered from a single goroutine.
type ProgressFunc func(fraction float64)

// Filter computes Gaussian-derivative gradient fields.
//
// A Filter is reusable across inputs of different dimensionality; the
// smoothing-pass pool is rebuilt when the axis count changes and
// re-parameterized before every computation. A Filter must not be used for
// concurrent Compute calls: the parameter push and pool mutation are not
// synchronized.
type Filter struct {
	sigma                float64
	normalizeAcrossScale bool
	useImageDirection    bool

	numWorkers int
	progress   ProgressFunc

	// smoothers is the shared pool of zero-order passes, one per axis,
	// referenced (not owned) by every chain.
	smoothers []*recursive.Pass
}

// NewFilter creates a gradient filter with direction correction enabled
// and the worker count defaulting to the number of CPUs.
func NewFilter() *Filter {
	return &Filter{
		useImageDirection: true,
		numWorkers:        runtime.NumCPU(),
	}
}

// SetSigma sets the Gaussian width in physical units and propagates it to
// every pass already in the smoothing pool.
//
// Returns ErrInvalidParameter for non-positive, NaN or infinite values;
// the previous sigma is retained in that case.
func (f *Filter) SetSigma(sigma float64) error {
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return fmt.Errorf("%w: sigma must be positive, got %v", ErrInvalidParameter, sigma)
	}
	f.sigma = sigma
	for _, s := range f.smoothers {
		if err := s.SetSigma(sigma); err != nil {
			return err
		}
	}
	return nil
}

// Sigma returns the configured Gaussian width, zero when unset.
func (f *Filter) Sigma() float64 { return f.sigma }

// SetNormalizeAcrossScale selects scale-space normalization of the
// derivative responses and propagates the flag to the pooled passes.
func (f *Filter) SetNormalizeAcrossScale(normalize bool) {
	f.normalizeAcrossScale = normalize
	for _, s := range f.smoothers {
		s.SetNormalizeAcrossScale(normalize)
	}
}

// NormalizeAcrossScale returns the current normalization setting.
func (f *Filter) NormalizeAcrossScale() bool { return f.normalizeAcrossScale }

// SetUseImageDirection controls whether computed gradients are rotated
// from grid axes into physical space using the image's direction matrix.
// Enabled by default.
func (f *Filter) SetUseImageDirection(use bool) { f.useImageDirection = use }

// UseImageDirection returns whether direction correction is enabled.
func (f *Filter) UseImageDirection() bool { return f.useImageDirection }

// SetNumWorkers caps the number of axis chains executing concurrently.
// Values below one reset the cap to the number of CPUs.
func (f *Filter) SetNumWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	f.numWorkers = n
}

// SetProgressFunc registers a progress sink. Each axis chain contributes
// an even 1/D share of the total.
func (f *Filter) SetProgressFunc(fn ProgressFunc) { f.progress = fn }

// Compute runs the gradient pipeline over img and returns a vector image
// with one component per input axis, covering the full buffered region of
// the input regardless of any requested sub-region.
//
// On any chain failure or cancellation the whole computation is aborted
// and no partial output is returned; the error is a *ChainError naming
// the axis, or wraps ErrInvalidParameter for configuration problems
// detected before execution.
func (f *Filter) Compute(ctx context.Context, img *volume.Image) (*volume.VectorImage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.sigma <= 0 {
		return nil, fmt.Errorf("%w: sigma has not been configured", ErrInvalidParameter)
	}
	dims := img.NumDims()
	if dims == 0 || img.NumPixels() == 0 {
		return nil, fmt.Errorf("%w: input image must have at least one axis and one pixel", ErrInvalidParameter)
	}

	// The recursive passes need the entire dataset; whatever the consumer
	// requested, compute the full region.
	region := EnlargeRequestedRegion(img, img.Requested)

	out, err := volume.NewVectorImage(region.Size, dims)
	if err != nil {
		return nil, err
	}
	copy(out.Spacing, img.Spacing)
	if img.Direction != nil {
		out.Direction = mat.DenseCopyOf(img.Direction)
	}

	chains, err := f.buildChains(dims)
	if err != nil {
		return nil, err
	}

	if err := f.runChains(ctx, chains, img, out); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &ChainError{Axis: 0, Err: err}
	}

	if f.useImageDirection && !img.HasIdentityDirection() {
		applyDirection(out, img.DirectionMatrix())
	}

	return out, nil
}

// buildChains rebuilds the smoothing pool when the axis count changed and
// pushes the current parameters to every pooled pass and chain. This is
// the one-time parameter push before execution begins; the pool is
// read-only for the rest of the computation.
func (f *Filter) buildChains(dims int) ([]*axisChain, error) {
	if len(f.smoothers) != dims {
		f.smoothers = make([]*recursive.Pass, dims)
		for axis := range f.smoothers {
			f.smoothers[axis] = recursive.NewSmoothingPass(axis)
		}
	}
	for _, s := range f.smoothers {
		if err := s.SetSigma(f.sigma); err != nil {
			return nil, err
		}
		s.SetNormalizeAcrossScale(f.normalizeAcrossScale)
	}

	chains := make([]*axisChain, dims)
	for t := 0; t < dims; t++ {
		chains[t] = newAxisChain(t, f.smoothers)
		if err := chains[t].configure(f.sigma, f.normalizeAcrossScale); err != nil {
			return nil, err
		}
	}
	return chains, nil
}

// runChains executes every axis chain, fanning out across at most
// numWorkers goroutines, and writes each chain's scalar field into the
// matching component of out. The first failure aborts and is returned as
// a *ChainError; remaining in-flight chains are drained.
func (f *Filter) runChains(ctx context.Context, chains []*axisChain, img *volume.Image, out *volume.VectorImage) error {
	type chainResult struct {
		axis int
		err  error
	}

	workers := f.numWorkers
	if workers > len(chains) {
		workers = len(chains)
	}
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	results := make(chan chainResult, len(chains))

	for _, c := range chains {
		go func(c *axisChain) {
			sem <- struct{}{}
			defer func() { <-sem }()

			field, err := c.execute(ctx, img)
			if err == nil {
				// Each chain writes only its own component; the views
				// touch disjoint memory, so no locking is needed here.
				var view *volume.ComponentView
				view, err = volume.NewComponentView(out, c.target)
				if err == nil {
					err = view.CopyFrom(field.Data)
				}
			}
			results <- chainResult{axis: c.target, err: err}
		}(c)
	}

	var failure error
	total := len(chains)
	for completed := 0; completed < total; completed++ {
		res := <-results
		if res.err != nil && failure == nil {
			failure = &ChainError{Axis: res.axis, Err: res.err}
		}
		if failure == nil && f.progress != nil {
			f.progress(float64(completed+1) / float64(total))
		}
	}
	return failure
}

// applyDirection rotates every gradient vector from grid axes into
// physical space: g_phys = D * g_grid.
func applyDirection(out *volume.VectorImage, direction *mat.Dense) {
	d := out.Components
	rotated := make([]float64, d)

	for i := 0; i < out.NumPixels(); i++ {
		g := out.PixelAt(i)
		for r := 0; r < d; r++ {
			sum := 0.0
			for c := 0; c < d; c++ {
				sum += direction.At(r, c) * g[c]
			}
			rotated[r] = sum
		}
		copy(g, rotated)
	}
}
