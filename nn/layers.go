package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Conv2d is a stride-1 2D convolution with square kernel and symmetric
// zero padding. Weight is laid out as an OutC x (InC*K*K) matrix so a
// forward pass is a single matrix product against the im2col buffer.
type Conv2d struct {
	InC, OutC int
	Kernel    int
	Pad       int
	Weight    *mat.Dense
	Bias      []float64
}

// NewConv2d creates a zero-initialized convolution layer.
func NewConv2d(inC, outC, kernel, pad int) *Conv2d {
	return &Conv2d{
		InC:    inC,
		OutC:   outC,
		Kernel: kernel,
		Pad:    pad,
		Weight: mat.NewDense(outC, inC*kernel*kernel, nil),
		Bias:   make([]float64, outC),
	}
}

// OutSize returns the spatial output size for an input of size n.
func (l *Conv2d) OutSize(n int) int {
	return n + 2*l.Pad - l.Kernel + 1
}

// Forward applies the convolution to x.
func (l *Conv2d) Forward(x *Tensor) (*Tensor, error) {
	if x.C != l.InC {
		return nil, fmt.Errorf(
			"conv2d: input has %d channels, want %d", x.C, l.InC,
		)
	}

	outH := l.OutSize(x.H)
	outW := l.OutSize(x.W)

	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf(
			"conv2d: input %dx%d too small for kernel %d pad %d",
			x.H, x.W, l.Kernel, l.Pad,
		)
	}

	col := im2col(x, l.Kernel, l.Pad, outH, outW)

	var prod mat.Dense
	prod.Mul(l.Weight, col)

	out := NewTensor(l.OutC, outH, outW)
	raw := prod.RawMatrix()

	for c := 0; c < l.OutC; c++ {
		row := raw.Data[c*raw.Stride : c*raw.Stride+outH*outW]
		dst := out.Data[c*outH*outW : (c+1)*outH*outW]
		b := l.Bias[c]

		for i, v := range row {
			dst[i] = v + b
		}
	}

	return out, nil
}

// im2col unrolls every kernel-sized patch of x into a column of an
// (InC*K*K) x (outH*outW) matrix. Out-of-bounds taps read as zero.
func im2col(x *Tensor, kernel, pad, outH, outW int) *mat.Dense {
	rows := x.C * kernel * kernel
	cols := outH * outW
	buf := make([]float64, rows*cols)

	for c := 0; c < x.C; c++ {
		for ky := 0; ky < kernel; ky++ {
			for kx := 0; kx < kernel; kx++ {
				r := (c*kernel+ky)*kernel + kx
				dst := buf[r*cols : (r+1)*cols]

				for oy := 0; oy < outH; oy++ {
					sy := oy + ky - pad
					if sy < 0 || sy >= x.H {
						continue
					}

					srcRow := (c*x.H + sy) * x.W

					for ox := 0; ox < outW; ox++ {
						sx := ox + kx - pad
						if sx < 0 || sx >= x.W {
							continue
						}

						dst[oy*outW+ox] = x.Data[srcRow+sx]
					}
				}
			}
		}
	}

	return mat.NewDense(rows, cols, buf)
}

// ReLU clamps negative activations to zero in place and returns x.
func ReLU(x *Tensor) *Tensor {
	for i, v := range x.Data {
		if v < 0 {
			x.Data[i] = 0
		}
	}

	return x
}

// MaxPool2d is a 2x2 stride-2 max pooling with ceil-mode output sizing,
// matching the pooling used by the VGG backbone.
type MaxPool2d struct{}

// OutSize returns the ceil-mode output size for an input of size n.
func (MaxPool2d) OutSize(n int) int {
	return (n + 1) / 2
}

// Forward applies the pooling to x.
func (p MaxPool2d) Forward(x *Tensor) *Tensor {
	outH := p.OutSize(x.H)
	outW := p.OutSize(x.W)
	out := NewTensor(x.C, outH, outW)

	for c := 0; c < x.C; c++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				best := x.At(c, oy*2, ox*2)

				for dy := 0; dy < 2; dy++ {
					for dx := 0; dx < 2; dx++ {
						sy, sx := oy*2+dy, ox*2+dx
						if sy >= x.H || sx >= x.W {
							continue
						}

						if v := x.At(c, sy, sx); v > best {
							best = v
						}
					}
				}

				out.Set(c, oy, ox, best)
			}
		}
	}

	return out
}

// ConvTranspose2d is a strided transposed convolution without bias,
// used for in-network upsampling of score maps. Weight is indexed as
// [inC][outC][ky][kx] over a flat buffer.
type ConvTranspose2d struct {
	InC, OutC int
	Kernel    int
	Stride    int
	Weight    []float64
}

// NewConvTranspose2d creates a zero-initialized transposed convolution.
func NewConvTranspose2d(inC, outC, kernel, stride int) *ConvTranspose2d {
	return &ConvTranspose2d{
		InC:    inC,
		OutC:   outC,
		Kernel: kernel,
		Stride: stride,
		Weight: make([]float64, inC*outC*kernel*kernel),
	}
}

// OutSize returns the spatial output size for an input of size n.
func (l *ConvTranspose2d) OutSize(n int) int {
	return (n-1)*l.Stride + l.Kernel
}

func (l *ConvTranspose2d) weightAt(ic, oc, ky, kx int) float64 {
	return l.Weight[((ic*l.OutC+oc)*l.Kernel+ky)*l.Kernel+kx]
}

// Forward applies the transposed convolution to x by scattering each
// input activation across the kernel footprint in the output.
func (l *ConvTranspose2d) Forward(x *Tensor) (*Tensor, error) {
	if x.C != l.InC {
		return nil, fmt.Errorf(
			"convtranspose2d: input has %d channels, want %d",
			x.C, l.InC,
		)
	}

	out := NewTensor(l.OutC, l.OutSize(x.H), l.OutSize(x.W))

	for ic := 0; ic < l.InC; ic++ {
		for iy := 0; iy < x.H; iy++ {
			for ix := 0; ix < x.W; ix++ {
				v := x.At(ic, iy, ix)
				if v == 0 {
					continue
				}

				for oc := 0; oc < l.OutC; oc++ {
					for ky := 0; ky < l.Kernel; ky++ {
						oy := iy*l.Stride + ky
						row := (oc*out.H + oy) * out.W

						for kx := 0; kx < l.Kernel; kx++ {
							w := l.weightAt(ic, oc, ky, kx)
							if w == 0 {
								continue
							}

							out.Data[row+ix*l.Stride+kx] += v * w
						}
					}
				}
			}
		}
	}

	return out, nil
}
