package nn

import (
	mrand "math/rand"
	"testing"
)

func TestTensorAtSet(t *testing.T) {
	x := NewTensor(2, 3, 4)
	x.Set(1, 2, 3, 7.5)

	if got := x.At(1, 2, 3); got != 7.5 {
		t.Errorf("At(1,2,3) = %v, want 7.5", got)
	}
	if got := x.At(0, 0, 0); got != 0 {
		t.Errorf("At(0,0,0) = %v, want 0", got)
	}
}

func TestTensorClone(t *testing.T) {
	x := NewTensor(1, 2, 2)
	x.Set(0, 0, 0, 1)

	y := x.Clone()
	y.Set(0, 0, 0, 2)

	if x.At(0, 0, 0) != 1 {
		t.Error("clone shares backing storage with original")
	}
	if y.At(0, 0, 0) != 2 {
		t.Error("clone did not take the write")
	}
}

func TestTensorAdd(t *testing.T) {
	x := NewTensor(1, 2, 2)
	y := NewTensor(1, 2, 2)
	x.Set(0, 0, 1, 1)
	y.Set(0, 0, 1, 2)

	if err := x.Add(y); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if got := x.At(0, 0, 1); got != 3 {
		t.Errorf("At(0,0,1) = %v, want 3", got)
	}
}

func TestTensorAddShapeMismatch(t *testing.T) {
	x := NewTensor(1, 2, 2)
	y := NewTensor(1, 2, 3)

	if err := x.Add(y); err == nil {
		t.Error("expected error for mismatched shapes")
	}
}

func TestTensorCrop(t *testing.T) {
	x := NewTensor(1, 4, 4)
	for i := range x.Data {
		x.Data[i] = float64(i)
	}

	got, err := x.Crop(1, 2, 2)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if got.C != 1 || got.H != 2 || got.W != 2 {
		t.Fatalf("crop shape = %dx%dx%d, want 1x2x2", got.C, got.H, got.W)
	}

	want := []float64{5, 6, 9, 10}
	for i, v := range want {
		if got.Data[i] != v {
			t.Errorf("Data[%d] = %v, want %v", i, got.Data[i], v)
		}
	}
}

func TestTensorCropOutOfBounds(t *testing.T) {
	x := NewTensor(1, 4, 4)

	if _, err := x.Crop(2, 3, 3); err == nil {
		t.Error("expected error for crop past the edge")
	}
	if _, err := x.Crop(-1, 2, 2); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestFillRandomRange(t *testing.T) {
	x := NewTensor(2, 8, 8)
	x.FillRandom(mrand.New(mrand.NewSource(1)))

	for i, v := range x.Data {
		if v < -1 || v >= 1 {
			t.Fatalf("Data[%d] = %v outside [-1, 1)", i, v)
		}
	}
}

func TestArgmaxChannel(t *testing.T) {
	x := NewTensor(3, 1, 2)
	x.Set(1, 0, 0, 5)
	x.Set(2, 0, 1, 3)

	got := x.ArgmaxChannel()
	want := []int{1, 2}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("class[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
