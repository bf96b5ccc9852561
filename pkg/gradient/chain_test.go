package gradient

import (
	"context"
	"math"
	"testing"

	"gradientfield/pkg/recursive"
)

// buildPool creates a configured smoothing pool for tests
func buildPool(t *testing.T, dims int, sigma float64) []*recursive.Pass {
	t.Helper()
	pool := make([]*recursive.Pass, dims)
	for axis := range pool {
		pool[axis] = recursive.NewSmoothingPass(axis)
		if err := pool[axis].SetSigma(sigma); err != nil {
			t.Fatalf("SetSigma failed: %v", err)
		}
	}
	return pool
}

// TestChainStructure verifies the derivative targets exactly the chain's
// axis and the smoothers cover the rest
func TestChainStructure(t *testing.T) {
	pool := buildPool(t, 3, 1.0)

	for target := 0; target < 3; target++ {
		c := newAxisChain(target, pool)
		if err := c.configure(1.0, false); err != nil {
			t.Fatalf("configure failed: %v", err)
		}

		if c.derivative.Axis() != target {
			t.Errorf("Chain %d: derivative targets axis %d", target, c.derivative.Axis())
		}
		if c.derivative.Order() != recursive.FirstOrder {
			t.Errorf("Chain %d: derivative pass has wrong order", target)
		}
		if c.numPasses() != 3 {
			t.Errorf("Chain %d: expected 3 passes, got %d", target, c.numPasses())
		}
		// The pool entry for the target axis must never be the derivative
		// axis in the same chain.
		if pool[target].Order() != recursive.ZeroOrder {
			t.Errorf("Chain %d: pooled pass for the target axis must stay zero order", target)
		}
	}
}

// TestSmoothingPassesCommute verifies that the order of smoothing along
// independent axes does not affect the result, which is the property the
// chain's fixed increasing-axis order relies on
func TestSmoothingPassesCommute(t *testing.T) {
	img := createTestVolume(t, []int{12, 12, 12}, func(c []int) float64 {
		return math.Sin(0.7*float64(c[0])) + float64(c[1]*c[2])/10.0
	})

	pool := buildPool(t, 3, 1.5)

	xy, err := pool[0].Apply(img)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	xy, err = pool[1].Apply(xy)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	yx, err := pool[1].Apply(img)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	yx, err = pool[0].Apply(yx)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for i := range xy.Data {
		if math.Abs(xy.Data[i]-yx.Data[i]) > 1e-9 {
			t.Errorf("Pixel %d: x-then-y %g differs from y-then-x %g",
				i, xy.Data[i], yx.Data[i])
		}
	}
}

// TestChainOutputShape verifies the chain produces a full-region scalar field
func TestChainOutputShape(t *testing.T) {
	img := createTestVolume(t, []int{6, 7}, func(c []int) float64 {
		return float64(c[0] + c[1])
	})

	pool := buildPool(t, 2, 1.0)
	c := newAxisChain(0, pool)
	if err := c.configure(1.0, false); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	field, err := c.execute(context.Background(), img)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !field.FullRegion().Equal(img.FullRegion()) {
		t.Errorf("Chain output region %v, want %v", field.FullRegion(), img.FullRegion())
	}
}

// TestChainSharesPool verifies that chains for different target axes hold
// the same pass instances for their common smoothing axes
func TestChainSharesPool(t *testing.T) {
	pool := buildPool(t, 3, 1.0)

	c0 := newAxisChain(0, pool)
	c1 := newAxisChain(1, pool)

	// Both chains smooth along axis 2 with the identical pooled instance.
	if c0.smoothers[2] != c1.smoothers[2] {
		t.Error("Chains should share smoothing-pass instances from the pool")
	}
	if c0.smoothers[2] != pool[2] {
		t.Error("Chain smoothers should be handles into the pool, not copies")
	}
}
