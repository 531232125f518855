package nn

import (
	"math"
	mrand "math/rand"
)

// InitGaussian fills the convolution weights with zero-mean Gaussian
// noise scaled by the fan-in (He initialization) and zeroes the bias.
func (l *Conv2d) InitGaussian(rng *mrand.Rand) {
	fanIn := float64(l.InC * l.Kernel * l.Kernel)
	std := math.Sqrt(2 / fanIn)

	rows, cols := l.Weight.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			l.Weight.Set(r, c, rng.NormFloat64()*std)
		}
	}

	for i := range l.Bias {
		l.Bias[i] = 0
	}
}

// InitZero zeroes weights and bias. Score heads start at zero so an
// untrained network predicts uniformly.
func (l *Conv2d) InitZero() {
	l.Weight.Zero()

	for i := range l.Bias {
		l.Bias[i] = 0
	}
}

// InitBilinear sets the kernel to a fixed bilinear interpolation
// filter on the channel diagonal, the standard initialization for
// upsampling layers in fully convolutional networks.
func (l *ConvTranspose2d) InitBilinear() {
	filt := BilinearKernel(l.Kernel)

	for i := range l.Weight {
		l.Weight[i] = 0
	}

	n := min(l.InC, l.OutC)
	for c := 0; c < n; c++ {
		for ky := 0; ky < l.Kernel; ky++ {
			for kx := 0; kx < l.Kernel; kx++ {
				idx := ((c*l.OutC+c)*l.Kernel+ky)*l.Kernel + kx
				l.Weight[idx] = filt[ky*l.Kernel+kx]
			}
		}
	}
}

// BilinearKernel returns the size x size bilinear upsampling filter.
func BilinearKernel(size int) []float64 {
	factor := float64((size + 1) / 2)

	var center float64
	if size%2 == 1 {
		center = factor - 1
	} else {
		center = factor - 0.5
	}

	filt := make([]float64, size*size)
	for y := 0; y < size; y++ {
		fy := 1 - math.Abs(float64(y)-center)/factor
		for x := 0; x < size; x++ {
			fx := 1 - math.Abs(float64(x)-center)/factor
			filt[y*size+x] = fy * fx
		}
	}

	return filt
}
