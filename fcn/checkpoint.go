package fcn

import (
	"encoding/gob"
	"fmt"
	"io"
	mrand "math/rand"
)

// checkpoint is the gob wire form of a model's parameters. Conv
// weights are stored row-major as OutC x (InC*K*K), matching the
// in-memory layout.
type checkpoint struct {
	Model  string
	Config Config
	Params map[string]checkpointParam
}

type checkpointParam struct {
	Weight []float64
	Bias   []float64
}

// Save writes the model's configuration and parameters to w.
func Save(w io.Writer, m Model) error {
	ck := checkpoint{
		Model:  m.Name(),
		Config: m.Config(),
		Params: make(map[string]checkpointParam),
	}

	for _, p := range m.Params() {
		var cp checkpointParam

		switch {
		case p.Conv != nil:
			raw := p.Conv.Weight.RawMatrix()
			cp.Weight = append([]float64(nil), raw.Data...)
			cp.Bias = append([]float64(nil), p.Conv.Bias...)
		case p.Deconv != nil:
			cp.Weight = append([]float64(nil), p.Deconv.Weight...)
		}

		ck.Params[p.Name] = cp
	}

	if err := gob.NewEncoder(w).Encode(ck); err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	return nil
}

// Load reconstructs a model from a checkpoint written by Save.
func Load(r io.Reader) (Model, error) {
	var ck checkpoint
	if err := gob.NewDecoder(r).Decode(&ck); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}

	// Initialization is irrelevant: every parameter is overwritten.
	m, err := New(ck.Model, ck.Config, mrand.New(mrand.NewSource(0)))
	if err != nil {
		return nil, err
	}

	for _, p := range m.Params() {
		cp, ok := ck.Params[p.Name]
		if !ok {
			return nil, fmt.Errorf("checkpoint missing parameter %s", p.Name)
		}

		if err := setParam(p, cp); err != nil {
			return nil, fmt.Errorf("load %s: %w", p.Name, err)
		}
	}

	return m, nil
}

func setParam(p Param, cp checkpointParam) error {
	switch {
	case p.Conv != nil:
		raw := p.Conv.Weight.RawMatrix()
		if len(cp.Weight) != len(raw.Data) || len(cp.Bias) != len(p.Conv.Bias) {
			return fmt.Errorf(
				"size mismatch: %d/%d weights, %d/%d biases",
				len(cp.Weight), len(raw.Data), len(cp.Bias), len(p.Conv.Bias),
			)
		}

		copy(raw.Data, cp.Weight)
		copy(p.Conv.Bias, cp.Bias)

	case p.Deconv != nil:
		if len(cp.Weight) != len(p.Deconv.Weight) {
			return fmt.Errorf(
				"size mismatch: %d/%d weights",
				len(cp.Weight), len(p.Deconv.Weight),
			)
		}

		copy(p.Deconv.Weight, cp.Weight)
	}

	return nil
}
