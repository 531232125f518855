package fcn

import (
	mrand "math/rand"

	"github.com/gchoi/fcnbench/nn"
)

// FCN8s adds a second skip connection from pool3 on top of the pool4
// fusion, upsampling the final map by only 8x. FCN8sAtOnce is the same
// graph trained in one stage; it scales the skip activations so the
// zero-initialized scoring layers do not swamp the main path.
type FCN8s struct {
	cfg          Config
	atOnce       bool
	backbone     *backbone
	head         *head
	scorePool3   *nn.Conv2d
	scorePool4   *nn.Conv2d
	upscore2     *nn.ConvTranspose2d
	upscorePool4 *nn.ConvTranspose2d
	upscore8     *nn.ConvTranspose2d
}

// NewFCN8s builds an FCN8s with random backbone weights. Use
// Transplant to seed it from a trained FCN16s.
func NewFCN8s(cfg Config, rng *mrand.Rand) *FCN8s {
	return newFCN8s(cfg, rng, false)
}

// NewFCN8sAtOnce builds the single-stage variant of FCN8s.
func NewFCN8sAtOnce(cfg Config, rng *mrand.Rand) *FCN8s {
	return newFCN8s(cfg, rng, true)
}

func newFCN8s(cfg Config, rng *mrand.Rand, atOnce bool) *FCN8s {
	n := cfg.NumClasses
	m := &FCN8s{
		cfg:          cfg,
		atOnce:       atOnce,
		backbone:     newBackbone(cfg, rng),
		head:         newHead(cfg, rng),
		scorePool3:   nn.NewConv2d(cfg.Channels[2], n, 1, 0),
		scorePool4:   nn.NewConv2d(cfg.Channels[3], n, 1, 0),
		upscore2:     nn.NewConvTranspose2d(n, n, 4, 2),
		upscorePool4: nn.NewConvTranspose2d(n, n, 4, 2),
		upscore8:     nn.NewConvTranspose2d(n, n, 16, 8),
	}

	m.scorePool3.InitZero()
	m.scorePool4.InitZero()
	m.upscore2.InitBilinear()
	m.upscorePool4.InitBilinear()
	m.upscore8.InitBilinear()

	return m
}

func (m *FCN8s) Name() string {
	if m.atOnce {
		return "FCN8sAtOnce"
	}

	return "FCN8s"
}

func (m *FCN8s) Config() Config { return m.cfg }

func (m *FCN8s) Params() []Param {
	out := m.backbone.params()
	out = append(out, m.head.params()...)
	out = append(out,
		Param{Name: "score_pool3", Conv: m.scorePool3},
		Param{Name: "score_pool4", Conv: m.scorePool4},
		Param{Name: "upscore2", Deconv: m.upscore2},
		Param{Name: "upscore_pool4", Deconv: m.upscorePool4},
		Param{Name: "upscore8", Deconv: m.upscore8},
	)

	return out
}

func (m *FCN8s) Forward(x *nn.Tensor) (*nn.Tensor, error) {
	pool3, pool4, pool5, err := m.backbone.forward(x)
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

	if m.atOnce {
		pool4 = scaled(pool4, 0.01)
		pool3 = scaled(pool3, 0.0001)
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

	upPool4, err := m.upscorePool4.Forward(up2)
	if err != nil {
		return nil, err
	}

	sp3, err := m.scorePool3.Forward(pool3)
	if err != nil {
		return nil, err
	}

	sp3, err = sp3.Crop(9, upPool4.H, upPool4.W)
	if err != nil {
		return nil, err
	}

	if err := upPool4.Add(sp3); err != nil {
		return nil, err
	}

	up8, err := m.upscore8.Forward(upPool4)
	if err != nil {
		return nil, err
	}

	return up8.Crop(31, x.H, x.W)
}

func scaled(t *nn.Tensor, factor float64) *nn.Tensor {
	out := t.Clone()
	for i := range out.Data {
		out.Data[i] *= factor
	}

	return out
}
