package fcn

import (
	mrand "math/rand"

	"github.com/gchoi/fcnbench/nn"
)

// FCN16s fuses the coarse score map with a scored pool4 skip before a
// final 16x upsampling, recovering finer boundaries than FCN32s.
type FCN16s struct {
	cfg        Config
	backbone   *backbone
	head       *head
	scorePool4 *nn.Conv2d
	upscore2   *nn.ConvTranspose2d
	upscore16  *nn.ConvTranspose2d
}

// NewFCN16s builds an FCN16s with random backbone weights. Use
// Transplant to seed it from a trained FCN32s.
func NewFCN16s(cfg Config, rng *mrand.Rand) *FCN16s {
	n := cfg.NumClasses
	m := &FCN16s{
		cfg:        cfg,
		backbone:   newBackbone(cfg, rng),
		head:       newHead(cfg, rng),
		scorePool4: nn.NewConv2d(cfg.Channels[3], n, 1, 0),
		upscore2:   nn.NewConvTranspose2d(n, n, 4, 2),
		upscore16:  nn.NewConvTranspose2d(n, n, 32, 16),
	}

	m.scorePool4.InitZero()
	m.upscore2.InitBilinear()
	m.upscore16.InitBilinear()

	return m
}

func (m *FCN16s) Name() string   { return "FCN16s" }
func (m *FCN16s) Config() Config { return m.cfg }

func (m *FCN16s) Params() []Param {
	out := m.backbone.params()
	out = append(out, m.head.params()...)
	out = append(out,
		Param{Name: "score_pool4", Conv: m.scorePool4},
		Param{Name: "upscore2", Deconv: m.upscore2},
		Param{Name: "upscore16", Deconv: m.upscore16},
	)

	return out
}

func (m *FCN16s) Forward(x *nn.Tensor) (*nn.Tensor, error) {
	_, pool4, pool5, err := m.backbone.forward(x)
	if err != nil {
		return nil, err
	}

	score, err := m.head.forward(pool5)
	if err != nil {
		return nil, err
	}

	up2, err := m.upscore2.Forward(score)
	if err != nil {
		return nil, err
	}

	sp4, err := m.scorePool4.Forward(pool4)
	if err != nil {
		return nil, err
	}

	sp4, err = sp4.Crop(5, up2.H, up2.W)
	if err != nil {
		return nil, err
	}

	if err := up2.Add(sp4); err != nil {
		return nil, err
	}

	up16, err := m.upscore16.Forward(up2)
	if err != nil {
		return nil, err
	}

	return up16.Crop(27, x.H, x.W)
}
