package fcn

import (
	"bytes"
	mrand "math/rand"
	"testing"

	"github.com/gchoi/fcnbench/nn"
)

// testConfig keeps the full topology but shrinks every width so a
// forward pass stays cheap.
func testConfig() Config {
	return Config{
		NumClasses: 3,
		Channels:   [5]int{2, 2, 2, 2, 2},
		FCWidth:    4,
	}
}

func testInput(seed int64) *nn.Tensor {
	x := nn.NewTensor(3, 32, 32)
	x.FillRandom(mrand.New(mrand.NewSource(seed)))

	return x
}

func TestForwardShapeAllModels(t *testing.T) {
	x := testInput(7)

	for _, name := range Names() {
		m, err := New(name, testConfig(), mrand.New(mrand.NewSource(1)))
		if err != nil {
			t.Fatalf("New(%s) failed: %v", name, err)
		}

		if m.Name() != name {
			t.Errorf("Name() = %q, want %q", m.Name(), name)
		}

		out, err := m.Forward(x)
		if err != nil {
			t.Fatalf("%s forward failed: %v", name, err)
		}

		if out.C != 3 || out.H != x.H || out.W != x.W {
			t.Errorf("%s output shape = %dx%dx%d, want 3x%dx%d",
				name, out.C, out.H, out.W, x.H, x.W)
		}
	}
}

func TestUntrainedScoresAreZero(t *testing.T) {
	// Score heads start at zero, so an untrained network outputs a
	// uniformly zero score map regardless of the backbone weights.
	for _, name := range Names() {
		m, err := New(name, testConfig(), mrand.New(mrand.NewSource(2)))
		if err != nil {
			t.Fatalf("New(%s) failed: %v", name, err)
		}

		out, err := m.Forward(testInput(3))
		if err != nil {
			t.Fatalf("%s forward failed: %v", name, err)
		}

		for i, v := range out.Data {
			if v != 0 {
				t.Fatalf("%s output[%d] = %v, want 0", name, i, v)
			}
		}
	}
}

func TestForwardDeterministic(t *testing.T) {
	m := NewFCN32s(testConfig(), mrand.New(mrand.NewSource(4)))
	x := testInput(5)

	out1, err := m.Forward(x)
	if err != nil {
		t.Fatalf("first forward failed: %v", err)
	}

	out2, err := m.Forward(x)
	if err != nil {
		t.Fatalf("second forward failed: %v", err)
	}

	for i := range out1.Data {
		if out1.Data[i] != out2.Data[i] {
			t.Fatal("forward is not deterministic for fixed weights")
		}
	}
}

func TestParamCounts(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"FCN32s", 17},
		{"FCN16s", 19},
		{"FCN8s", 21},
		{"FCN8sAtOnce", 21},
	}

	for _, tt := range tests {
		m, err := New(tt.name, testConfig(), mrand.New(mrand.NewSource(1)))
		if err != nil {
			t.Fatalf("New(%s) failed: %v", tt.name, err)
		}

		params := m.Params()
		if len(params) != tt.want {
			t.Errorf("%s has %d params, want %d",
				tt.name, len(params), tt.want)
		}

		seen := make(map[string]bool, len(params))
		for _, p := range params {
			if seen[p.Name] {
				t.Errorf("%s has duplicate param %q", tt.name, p.Name)
			}

			seen[p.Name] = true

			if (p.Conv == nil) == (p.Deconv == nil) {
				t.Errorf("%s param %q must be conv xor deconv",
					tt.name, p.Name)
			}
		}

		if fcnParams := NumParams(m); fcnParams <= 0 {
			t.Errorf("%s NumParams = %d, want > 0", tt.name, fcnParams)
		}
	}
}

func TestTransplantSameArch(t *testing.T) {
	src := NewFCN32s(testConfig(), mrand.New(mrand.NewSource(10)))
	dst := NewFCN32s(testConfig(), mrand.New(mrand.NewSource(20)))

	if err := Transplant(dst, src); err != nil {
		t.Fatalf("Transplant failed: %v", err)
	}

	x := testInput(6)

	want, err := src.Forward(x)
	if err != nil {
		t.Fatalf("src forward failed: %v", err)
	}

	got, err := dst.Forward(x)
	if err != nil {
		t.Fatalf("dst forward failed: %v", err)
	}

	for i := range want.Data {
		if got.Data[i] != want.Data[i] {
			t.Fatal("transplanted model diverges from source")
		}
	}
}

func TestTransplantCoarseToFine(t *testing.T) {
	fcn32s := NewFCN32s(testConfig(), mrand.New(mrand.NewSource(10)))
	fcn16s := NewFCN16s(testConfig(), mrand.New(mrand.NewSource(20)))

	if err := Transplant(fcn16s, fcn32s); err != nil {
		t.Fatalf("Transplant failed: %v", err)
	}

	// Shared layers match the source afterwards.
	srcFc6 := paramByName(t, fcn32s, "fc6").Conv
	dstFc6 := paramByName(t, fcn16s, "fc6").Conv

	r, c := srcFc6.Weight.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if srcFc6.Weight.At(i, j) != dstFc6.Weight.At(i, j) {
				t.Fatal("fc6 weights were not copied")
			}
		}
	}

	// Layers unique to the finer model still work after transplant.
	if _, err := fcn16s.Forward(testInput(8)); err != nil {
		t.Fatalf("forward after transplant failed: %v", err)
	}
}

func TestTransplantShapeMismatch(t *testing.T) {
	small := testConfig()

	big := testConfig()
	big.Channels[0] = 4

	src := NewFCN32s(small, mrand.New(mrand.NewSource(1)))
	dst := NewFCN32s(big, mrand.New(mrand.NewSource(2)))

	if err := Transplant(dst, src); err == nil {
		t.Error("expected error for mismatched widths")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	src := NewFCN8s(testConfig(), mrand.New(mrand.NewSource(11)))

	var buf bytes.Buffer
	if err := Save(&buf, src); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Name() != "FCN8s" {
		t.Errorf("loaded model = %q, want FCN8s", loaded.Name())
	}

	x := testInput(12)

	want, err := src.Forward(x)
	if err != nil {
		t.Fatalf("src forward failed: %v", err)
	}

	got, err := loaded.Forward(x)
	if err != nil {
		t.Fatalf("loaded forward failed: %v", err)
	}

	for i := range want.Data {
		if got.Data[i] != want.Data[i] {
			t.Fatal("loaded model diverges from saved model")
		}
	}
}

func TestLoadTruncated(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not a checkpoint"))); err == nil {
		t.Error("expected error for corrupt checkpoint")
	}
}

func TestNewUnknownModel(t *testing.T) {
	_, err := New("FCN4s", testConfig(), mrand.New(mrand.NewSource(1)))
	if err == nil {
		t.Error("expected error for unknown model name")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.NumClasses = 0

	_, err := New("FCN32s", cfg, mrand.New(mrand.NewSource(1)))
	if err == nil {
		t.Error("expected error for invalid config")
	}
}

func paramByName(t *testing.T, m Model, name string) Param {
	t.Helper()

	for _, p := range m.Params() {
		if p.Name == name {
			return p
		}
	}

	t.Fatalf("model has no param %q", name)

	return Param{}
}
