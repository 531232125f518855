package fcn

import (
	"fmt"
	mrand "math/rand"

	"github.com/gchoi/fcnbench/nn"
)

// Model is a segmentation network. Forward maps a 3 x H x W image
// tensor to a NumClasses x H x W score tensor.
type Model interface {
	Name() string
	Config() Config
	Forward(x *nn.Tensor) (*nn.Tensor, error)
	Params() []Param
}

// Param is one named parameter tensor of a model. Exactly one of Conv
// and Deconv is non-nil.
type Param struct {
	Name   string
	Conv   *nn.Conv2d
	Deconv *nn.ConvTranspose2d
}

// Names lists the supported model names in benchmark order.
func Names() []string {
	return []string{"FCN32s", "FCN16s", "FCN8s", "FCN8sAtOnce"}
}

// New constructs a named model with randomly initialized backbone
// weights drawn from rng.
func New(name string, cfg Config, rng *mrand.Rand) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch name {
	case "FCN32s":
		return NewFCN32s(cfg, rng), nil
	case "FCN16s":
		return NewFCN16s(cfg, rng), nil
	case "FCN8s":
		return NewFCN8s(cfg, rng), nil
	case "FCN8sAtOnce":
		return NewFCN8sAtOnce(cfg, rng), nil
	default:
		return nil, fmt.Errorf("unknown model %q", name)
	}
}

// NumParams returns the total number of scalar parameters of m.
func NumParams(m Model) int {
	total := 0

	for _, p := range m.Params() {
		switch {
		case p.Conv != nil:
			r, c := p.Conv.Weight.Dims()
			total += r*c + len(p.Conv.Bias)
		case p.Deconv != nil:
			total += len(p.Deconv.Weight)
		}
	}

	return total
}

// Transplant copies every parameter of src whose name and shape match
// a parameter of dst. Parameters present only in dst (for example the
// finer upsampling layers of FCN16s relative to FCN32s) keep their
// initialization. This mirrors the staged training pipeline where
// FCN16s starts from trained FCN32s weights and FCN8s from FCN16s.
func Transplant(dst, src Model) error {
	srcByName := make(map[string]Param)
	for _, p := range src.Params() {
		srcByName[p.Name] = p
	}

	for _, d := range dst.Params() {
		s, ok := srcByName[d.Name]
		if !ok {
			continue
		}

		if err := copyParam(d, s); err != nil {
			return fmt.Errorf("transplant %s: %w", d.Name, err)
		}
	}

	return nil
}

func copyParam(dst, src Param) error {
	switch {
	case dst.Conv != nil && src.Conv != nil:
		dr, dc := dst.Conv.Weight.Dims()
		sr, sc := src.Conv.Weight.Dims()

		if dr != sr || dc != sc || len(dst.Conv.Bias) != len(src.Conv.Bias) {
			return fmt.Errorf(
				"shape mismatch: %dx%d vs %dx%d", dr, dc, sr, sc,
			)
		}

		dst.Conv.Weight.Copy(src.Conv.Weight)
		copy(dst.Conv.Bias, src.Conv.Bias)

	case dst.Deconv != nil && src.Deconv != nil:
		if len(dst.Deconv.Weight) != len(src.Deconv.Weight) {
			return fmt.Errorf(
				"shape mismatch: %d vs %d weights",
				len(dst.Deconv.Weight), len(src.Deconv.Weight),
			)
		}

		copy(dst.Deconv.Weight, src.Deconv.Weight)

	default:
		return fmt.Errorf("parameter kind mismatch")
	}

	return nil
}
