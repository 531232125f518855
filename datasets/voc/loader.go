package voc

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gchoi/fcnbench/nn"
)

// Loader iterates a dataset split and yields preprocessed image
// tensors. It wraps around at the end of the split, so it satisfies
// the benchmark harness's input generator contract for runs longer
// than the split.
type Loader struct {
	dataset *Dataset
	next    int
}

// NewLoader creates a Loader over d starting at the first image.
func NewLoader(d *Dataset) *Loader {
	return &Loader{dataset: d}
}

// Next loads, decodes, and transforms the next image in the split.
func (l *Loader) Next() (*nn.Tensor, error) {
	path := l.dataset.ImagePath(l.next)
	l.next = (l.next + 1) % l.dataset.Len()

	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}

	return Transform(img), nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return img, nil
}
