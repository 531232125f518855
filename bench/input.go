package bench

import (
	mrand "math/rand"

	"github.com/gchoi/fcnbench/nn"
)

// Dynamic input sides are drawn uniformly from [MinSide, MaxSide]
// rounded to a multiple of SideStep, large enough for the deepest
// model's crop geometry and small enough to keep memory bounded.
const (
	MinSide  = 192
	MaxSide  = 512
	SideStep = 32
)

// InputGenerator produces the input tensor for each benchmark
// iteration.
type InputGenerator interface {
	Next() (*nn.Tensor, error)
}

// StaticGenerator hands out the same fixed-shape tensor on every call,
// modelling workloads a graph-compiling framework can cache.
type StaticGenerator struct {
	tensor *nn.Tensor
}

// NewStaticGenerator allocates one c x h x w tensor filled from rng
// and reuses it for the whole run.
func NewStaticGenerator(c, h, w int, rng *mrand.Rand) *StaticGenerator {
	t := nn.NewTensor(c, h, w)
	t.FillRandom(rng)

	return &StaticGenerator{tensor: t}
}

// Next returns the shared tensor.
func (g *StaticGenerator) Next() (*nn.Tensor, error) {
	return g.tensor, nil
}

// DynamicGenerator allocates a fresh tensor with independently
// randomized height and width on every call, stressing frameworks
// that re-trace per input shape. Tensors are never reused.
type DynamicGenerator struct {
	channels int
	rng      *mrand.Rand
}

// NewDynamicGenerator creates a generator of c-channel tensors drawing
// shapes from rng.
func NewDynamicGenerator(c int, rng *mrand.Rand) *DynamicGenerator {
	return &DynamicGenerator{channels: c, rng: rng}
}

// Next returns a newly allocated tensor of randomized shape.
func (g *DynamicGenerator) Next() (*nn.Tensor, error) {
	t := nn.NewTensor(g.channels, g.randomSide(), g.randomSide())
	t.FillRandom(g.rng)

	return t, nil
}

func (g *DynamicGenerator) randomSide() int {
	steps := (MaxSide-MinSide)/SideStep + 1
	return MinSide + SideStep*g.rng.Intn(steps)
}
