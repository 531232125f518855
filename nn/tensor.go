// Package nn implements the inference-only tensor and layer operations
// needed to run fully convolutional segmentation networks on the CPU.
// Tensors are single-image CHW float64 buffers; convolutions are
// evaluated as im2col matrix products via gonum.
package nn

import (
	"fmt"
	mrand "math/rand"
)

// Tensor is a C x H x W feature map backed by a flat row-major buffer.
type Tensor struct {
	C, H, W int
	Data    []float64
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(c, h, w int) *Tensor {
	return &Tensor{
		C:    c,
		H:    h,
		W:    w,
		Data: make([]float64, c*h*w),
	}
}

// At returns the element at channel c, row y, column x.
func (t *Tensor) At(c, y, x int) float64 {
	return t.Data[(c*t.H+y)*t.W+x]
}

// Set stores v at channel c, row y, column x.
func (t *Tensor) Set(c, y, x int, v float64) {
	t.Data[(c*t.H+y)*t.W+x] = v
}

// Shape returns the (C, H, W) dimensions.
func (t *Tensor) Shape() (int, int, int) {
	return t.C, t.H, t.W
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := NewTensor(t.C, t.H, t.W)
	copy(out.Data, t.Data)
	return out
}

// FillRandom overwrites the tensor with uniform values in [-1, 1).
func (t *Tensor) FillRandom(rng *mrand.Rand) {
	for i := range t.Data {
		t.Data[i] = rng.Float64()*2 - 1
	}
}

// Add accumulates src into t elementwise. Shapes must match.
func (t *Tensor) Add(src *Tensor) error {
	if t.C != src.C || t.H != src.H || t.W != src.W {
		return fmt.Errorf(
			"add shape mismatch: %dx%dx%d vs %dx%dx%d",
			t.C, t.H, t.W, src.C, src.H, src.W,
		)
	}

	for i, v := range src.Data {
		t.Data[i] += v
	}

	return nil
}

// Crop returns the region starting at (offset, offset) with the given
// height and width, keeping all channels.
func (t *Tensor) Crop(offset, h, w int) (*Tensor, error) {
	if offset < 0 || offset+h > t.H || offset+w > t.W {
		return nil, fmt.Errorf(
			"crop offset=%d size=%dx%d out of bounds for %dx%d",
			offset, h, w, t.H, t.W,
		)
	}

	out := NewTensor(t.C, h, w)
	for c := 0; c < t.C; c++ {
		for y := 0; y < h; y++ {
			srcRow := (c*t.H+y+offset)*t.W + offset
			dstRow := (c*h + y) * w
			copy(out.Data[dstRow:dstRow+w], t.Data[srcRow:srcRow+w])
		}
	}

	return out, nil
}

// ArgmaxChannel returns, for every spatial position, the channel index
// with the largest activation. This is the predicted class map of a
// segmentation score tensor.
func (t *Tensor) ArgmaxChannel() []int {
	out := make([]int, t.H*t.W)
	for y := 0; y < t.H; y++ {
		for x := 0; x < t.W; x++ {
			best := 0
			bestV := t.At(0, y, x)

			for c := 1; c < t.C; c++ {
				if v := t.At(c, y, x); v > bestV {
					best = c
					bestV = v
				}
			}

			out[y*t.W+x] = best
		}
	}

	return out
}
