package fcn

import (
	mrand "math/rand"

	"github.com/gchoi/fcnbench/nn"
)

// FCN32s upsamples the coarsest score map back to input resolution in
// a single 32x stride, with no skip connections.
type FCN32s struct {
	cfg      Config
	backbone *backbone
	head     *head
	upscore  *nn.ConvTranspose2d
}

// NewFCN32s builds an FCN32s with random backbone weights, a zeroed
// score head, and a fixed bilinear upsampling kernel.
func NewFCN32s(cfg Config, rng *mrand.Rand) *FCN32s {
	m := &FCN32s{
		cfg:      cfg,
		backbone: newBackbone(cfg, rng),
		head:     newHead(cfg, rng),
		upscore:  nn.NewConvTranspose2d(cfg.NumClasses, cfg.NumClasses, 64, 32),
	}
	m.upscore.InitBilinear()

	return m
}

func (m *FCN32s) Name() string   { return "FCN32s" }
func (m *FCN32s) Config() Config { return m.cfg }

func (m *FCN32s) Params() []Param {
	out := m.backbone.params()
	out = append(out, m.head.params()...)
	out = append(out, Param{Name: "upscore", Deconv: m.upscore})

	return out
}

func (m *FCN32s) Forward(x *nn.Tensor) (*nn.Tensor, error) {
	_, _, pool5, err := m.backbone.forward(x)
	if err != nil {
		return nil, err
	}

	score, err := m.head.forward(pool5)
	if err != nil {
		return nil, err
	}

	up, err := m.upscore.Forward(score)
	if err != nil {
		return nil, err
	}

	// Offset 19 removes the surplus introduced by the 100-pixel
	// padding at conv1_1.
	return up.Crop(19, x.H, x.W)
}
