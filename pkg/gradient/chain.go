package gradient

import (
	"context"

	"gradientfield/pkg/recursive"
	"gradientfield/pkg/volume"
)

// axisChain composes the per-axis pipeline that produces one component of
// the gradient: a derivative pass along the target axis followed by
// smoothing passes along every other axis.
//
// The chain owns its derivative pass but only holds a handle into the
// filter's shared smoothing pool: chains for different target axes smooth
// the same non-target axis with the same pass instance, so the pool entry
// is parameterized once, not once per chain. The smoothing passes act on
// disjoint axes of a separable kernel and therefore commute; the chain
// applies them in increasing axis order.
type axisChain struct {
	target     int
	derivative *recursive.Pass
	smoothers  []*recursive.Pass // indexed by axis, owned by the Filter
}

func newAxisChain(target int, smoothers []*recursive.Pass) *axisChain {
	return &axisChain{
		target:     target,
		derivative: recursive.NewDerivativePass(target),
		smoothers:  smoothers,
	}
}

// configure pushes sigma and the normalization flag to the chain's
// derivative pass. The shared smoothers are configured by the Filter.
func (c *axisChain) configure(sigma float64, normalize bool) error {
	if err := c.derivative.SetSigma(sigma); err != nil {
		return err
	}
	c.derivative.SetNormalizeAcrossScale(normalize)
	return nil
}

// execute runs the derivative pass and then each non-target smoothing
// pass, checking for cancellation between passes. The returned scalar
// field covers the full region of img.
func (c *axisChain) execute(ctx context.Context, img *volume.Image) (*volume.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	field, err := c.derivative.Apply(img)
	if err != nil {
		return nil, err
	}

	for axis := 0; axis < len(c.smoothers); axis++ {
		if axis == c.target {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		field, err = c.smoothers[axis].Apply(field)
		if err != nil {
			return nil, err
		}
	}
	return field, nil
}

// numPasses returns how many passes the chain runs in total.
func (c *axisChain) numPasses() int { return len(c.smoothers) }
