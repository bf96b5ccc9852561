package recursive

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"gradientfield/pkg/volume"
)

// FourierSmooth convolves img with a Gaussian of width sigma along one
// axis exactly, by multiplying each line's spectrum with the Gaussian
// transfer function. It assumes periodic boundary conditions, so it is not
// interchangeable with a recursive Pass near the line ends; its purpose is
// to serve as a ground-truth reference when validating the recursive
// approximation in the line interior.
func FourierSmooth(img *volume.Image, axis int, sigma float64) (*volume.Image, error) {
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("fourier smooth on axis %d: %w", axis, ErrInvalidSigma)
	}
	if axis < 0 || axis >= img.NumDims() {
		return nil, fmt.Errorf("fourier smooth axis %d out of range for %d-dimensional image", axis, img.NumDims())
	}

	length := img.Dims[axis]
	stride := img.Strides()[axis]
	spacing := img.Spacing[axis]
	sigmaGrid := sigma / spacing

	fft := fourier.NewFFT(length)
	coeffs := make([]complex128, length/2+1)
	line := make([]float64, length)

	// Gaussian transfer function sampled at the positive frequencies.
	transfer := make([]float64, len(coeffs))
	for k := range transfer {
		omega := 2 * math.Pi * float64(k) / float64(length)
		transfer[k] = math.Exp(-0.5 * omega * omega * sigmaGrid * sigmaGrid)
	}

	out := img.CloneShape()
	numLines := len(img.Data) / length

	for l := 0; l < numLines; l++ {
		inner := l % stride
		outer := l / stride
		base := outer*stride*length + inner

		for i := 0; i < length; i++ {
			line[i] = img.Data[base+i*stride]
		}

		fft.Coefficients(coeffs, line)
		for k := range coeffs {
			coeffs[k] *= complex(transfer[k], 0)
		}
		fft.Sequence(line, coeffs)

		// Gonum's inverse is unnormalized.
		norm := float64(length)
		for i := 0; i < length; i++ {
			out.Data[base+i*stride] = line[i] / norm
		}
	}
	return out, nil
}
