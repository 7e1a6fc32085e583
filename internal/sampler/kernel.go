package sampler

import (
	"fmt"
	"math"
)

// Kernel is a normalized square Gaussian, stored row-major.
type Kernel struct {
	Size    int
	Weights []float64
}

// NewKernel builds a size×size Gaussian with the given sigma. Size must be
// odd and positive; the weights sum to 1.
func NewKernel(size int, sigma float64) (Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return Kernel{}, fmt.Errorf("kernel size must be odd and positive, got %d", size)
	}
	if sigma <= 0 {
		return Kernel{}, fmt.Errorf("kernel sigma must be positive, got %g", sigma)
	}
	half := size / 2
	w := make([]float64, size*size)
	sum := 0.0
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			v := math.Exp(-float64(x*x+y*y) / (2 * sigma * sigma))
			w[(y+half)*size+(x+half)] = v
			sum += v
		}
	}
	for i := range w {
		w[i] /= sum
	}
	return Kernel{Size: size, Weights: w}, nil
}
