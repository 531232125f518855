// Package engine wires the native Go models into the benchmark
// harness. Both the fcnbench CLI and the fcnbench-harness binary go
// through Run so in-process and compared runs measure the same path.
package engine

import (
	"fmt"
	"log/slog"
	mrand "math/rand"

	"github.com/rs/xid"

	"github.com/gchoi/fcnbench/bench"
	"github.com/gchoi/fcnbench/datasets/voc"
	"github.com/gchoi/fcnbench/device"
	"github.com/gchoi/fcnbench/fcn"
	"github.com/gchoi/fcnbench/harness"
	"github.com/gchoi/fcnbench/nn"
)

// Framework is the framework name the native engine reports.
const Framework = "go"

// Options selects the model and input source for one benchmark run.
// A zero Config means fcn.DefaultConfig.
type Options struct {
	Model   string
	Config  fcn.Config
	InputH  int
	InputW  int
	VOCRoot string
}

// Run benchmarks one model under cfg and returns the measurement as a
// harness result. Model construction and device selection happen
// before the timed loop.
func Run(
	logger *slog.Logger,
	cfg bench.Config,
	opts Options,
) (*harness.Result, error) {
	dev, err := device.Select(cfg.Device)
	if err != nil {
		return nil, err
	}

	rng := mrand.New(mrand.NewSource(cfg.Seed))

	modelCfg := opts.Config
	if modelCfg == (fcn.Config{}) {
		modelCfg = fcn.DefaultConfig()
	}

	model, err := fcn.New(opts.Model, modelCfg, rng)
	if err != nil {
		return nil, err
	}

	logger.Info("model ready",
		slog.String("model", model.Name()),
		slog.Int("parameters", fcn.NumParams(model)),
		slog.String("device", dev.String()),
	)

	gen, err := newGenerator(cfg, opts, rng)
	if err != nil {
		return nil, err
	}

	m, err := bench.Run(gen, func(x *nn.Tensor) error {
		_, err := model.Forward(x)
		return err
	}, cfg.Times)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", opts.Model, err)
	}

	result := harness.NewResult(
		xid.New().String(), Framework, model.Name(), cfg, m,
	)

	return &result, nil
}

func newGenerator(
	cfg bench.Config,
	opts Options,
	rng *mrand.Rand,
) (bench.InputGenerator, error) {
	if opts.VOCRoot != "" {
		ds, err := voc.Open(opts.VOCRoot, "val")
		if err != nil {
			return nil, fmt.Errorf("open voc dataset: %w", err)
		}

		return voc.NewLoader(ds), nil
	}

	if cfg.DynamicInput {
		return bench.NewDynamicGenerator(3, rng), nil
	}

	return bench.NewStaticGenerator(3, opts.InputH, opts.InputW, rng), nil
}
