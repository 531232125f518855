package fcn

import (
	mrand "math/rand"

	"github.com/gchoi/fcnbench/nn"
)

// backbone is the VGG-16 convolutional trunk shared by all FCN
// variants. conv1_1 pads by 100 so that even small inputs survive the
// five pooling stages; the surplus is cropped away after upsampling.
type backbone struct {
	conv1 [2]*nn.Conv2d
	conv2 [2]*nn.Conv2d
	conv3 [3]*nn.Conv2d
	conv4 [3]*nn.Conv2d
	conv5 [3]*nn.Conv2d
	pool  nn.MaxPool2d
}

func newBackbone(cfg Config, rng *mrand.Rand) *backbone {
	b := &backbone{}

	ch := cfg.Channels
	b.conv1[0] = nn.NewConv2d(3, ch[0], 3, 100)
	b.conv1[1] = nn.NewConv2d(ch[0], ch[0], 3, 1)
	b.conv2[0] = nn.NewConv2d(ch[0], ch[1], 3, 1)
	b.conv2[1] = nn.NewConv2d(ch[1], ch[1], 3, 1)
	b.conv3[0] = nn.NewConv2d(ch[1], ch[2], 3, 1)
	b.conv3[1] = nn.NewConv2d(ch[2], ch[2], 3, 1)
	b.conv3[2] = nn.NewConv2d(ch[2], ch[2], 3, 1)
	b.conv4[0] = nn.NewConv2d(ch[2], ch[3], 3, 1)
	b.conv4[1] = nn.NewConv2d(ch[3], ch[3], 3, 1)
	b.conv4[2] = nn.NewConv2d(ch[3], ch[3], 3, 1)
	b.conv5[0] = nn.NewConv2d(ch[3], ch[4], 3, 1)
	b.conv5[1] = nn.NewConv2d(ch[4], ch[4], 3, 1)
	b.conv5[2] = nn.NewConv2d(ch[4], ch[4], 3, 1)

	for _, l := range b.convs() {
		l.InitGaussian(rng)
	}

	return b
}

func (b *backbone) convs() []*nn.Conv2d {
	out := make([]*nn.Conv2d, 0, 13)
	out = append(out, b.conv1[:]...)
	out = append(out, b.conv2[:]...)
	out = append(out, b.conv3[:]...)
	out = append(out, b.conv4[:]...)
	out = append(out, b.conv5[:]...)

	return out
}

func (b *backbone) params() []Param {
	names := []string{
		"conv1_1", "conv1_2",
		"conv2_1", "conv2_2",
		"conv3_1", "conv3_2", "conv3_3",
		"conv4_1", "conv4_2", "conv4_3",
		"conv5_1", "conv5_2", "conv5_3",
	}
	convs := b.convs()

	out := make([]Param, len(convs))
	for i, l := range convs {
		out[i] = Param{Name: names[i], Conv: l}
	}

	return out
}

func (b *backbone) block(x *nn.Tensor, convs []*nn.Conv2d) (*nn.Tensor, error) {
	var err error
	for _, l := range convs {
		x, err = l.Forward(x)
		if err != nil {
			return nil, err
		}

		nn.ReLU(x)
	}

	return b.pool.Forward(x), nil
}

// forward runs the trunk and returns the pool3, pool4, and pool5
// feature maps. pool3 and pool4 feed the skip connections of the
// FCN16s and FCN8s variants.
func (b *backbone) forward(x *nn.Tensor) (pool3, pool4, pool5 *nn.Tensor, err error) {
	h, err := b.block(x, b.conv1[:])
	if err != nil {
		return nil, nil, nil, err
	}

	h, err = b.block(h, b.conv2[:])
	if err != nil {
		return nil, nil, nil, err
	}

	pool3, err = b.block(h, b.conv3[:])
	if err != nil {
		return nil, nil, nil, err
	}

	pool4, err = b.block(pool3, b.conv4[:])
	if err != nil {
		return nil, nil, nil, err
	}

	pool5, err = b.block(pool4, b.conv5[:])
	if err != nil {
		return nil, nil, nil, err
	}

	return pool3, pool4, pool5, nil
}

// head holds the convolutionalized classifier: fc6 and fc7 as 7x7 and
// 1x1 convolutions plus the zero-initialized scoring layer. Dropout is
// omitted because the engine only runs inference.
type head struct {
	fc6     *nn.Conv2d
	fc7     *nn.Conv2d
	scoreFr *nn.Conv2d
}

func newHead(cfg Config, rng *mrand.Rand) *head {
	h := &head{
		fc6:     nn.NewConv2d(cfg.Channels[4], cfg.FCWidth, 7, 0),
		fc7:     nn.NewConv2d(cfg.FCWidth, cfg.FCWidth, 1, 0),
		scoreFr: nn.NewConv2d(cfg.FCWidth, cfg.NumClasses, 1, 0),
	}

	h.fc6.InitGaussian(rng)
	h.fc7.InitGaussian(rng)
	h.scoreFr.InitZero()

	return h
}

func (h *head) params() []Param {
	return []Param{
		{Name: "fc6", Conv: h.fc6},
		{Name: "fc7", Conv: h.fc7},
		{Name: "score_fr", Conv: h.scoreFr},
	}
}

func (h *head) forward(pool5 *nn.Tensor) (*nn.Tensor, error) {
	x, err := h.fc6.Forward(pool5)
	if err != nil {
		return nil, err
	}

	nn.ReLU(x)

	x, err = h.fc7.Forward(x)
	if err != nil {
		return nil, err
	}

	nn.ReLU(x)

	return h.scoreFr.Forward(x)
}
