package bench

import (
	"errors"
	mrand "math/rand"
	"testing"

	"github.com/gchoi/fcnbench/nn"
)

func TestRunExecutesExactly(t *testing.T) {
	gen := NewStaticGenerator(3, 4, 4, mrand.New(mrand.NewSource(1)))

	count := 0
	step := func(*nn.Tensor) error {
		count++
		return nil
	}

	m, err := Run(gen, step, 1000)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if count != 1000 {
		t.Errorf("step ran %d times, want 1000", count)
	}
	if m.Times != 1000 {
		t.Errorf("Times = %d, want 1000", m.Times)
	}
	if m.Elapsed <= 0 {
		t.Errorf("Elapsed = %v, want > 0", m.Elapsed)
	}
}

func TestMeasurementHz(t *testing.T) {
	gen := NewStaticGenerator(1, 2, 2, mrand.New(mrand.NewSource(1)))

	m, err := Run(gen, func(*nn.Tensor) error { return nil }, 50)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := float64(m.Times) / m.Elapsed.Seconds()
	if got := m.Hz(); got != want {
		t.Errorf("Hz = %v, want %v", got, want)
	}
	if m.Hz() <= 0 {
		t.Errorf("Hz = %v, want > 0", m.Hz())
	}
}

func TestRunInvalidTimes(t *testing.T) {
	gen := NewStaticGenerator(1, 2, 2, mrand.New(mrand.NewSource(1)))
	step := func(*nn.Tensor) error { return nil }

	for _, times := range []int{0, -1} {
		if _, err := Run(gen, step, times); err == nil {
			t.Errorf("expected error for times=%d", times)
		}
	}
}

func TestRunStepErrorIsFatal(t *testing.T) {
	gen := NewStaticGenerator(1, 2, 2, mrand.New(mrand.NewSource(1)))
	boom := errors.New("boom")

	count := 0
	step := func(*nn.Tensor) error {
		count++
		if count == 3 {
			return boom
		}

		return nil
	}

	_, err := Run(gen, step, 10)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}

	if count != 3 {
		t.Errorf("step ran %d times after failure, want 3", count)
	}
}
