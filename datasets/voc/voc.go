// Package voc reads the PASCAL VOC segmentation dataset layout and
// converts images and label maps into engine tensors. Downloading the
// dataset itself is left to external scripts.
package voc

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gchoi/fcnbench/nn"
)

// ClassNames lists the 21 VOC segmentation classes, background first.
var ClassNames = []string{
	"background",
	"aeroplane",
	"bicycle",
	"bird",
	"boat",
	"bottle",
	"bus",
	"car",
	"cat",
	"chair",
	"cow",
	"diningtable",
	"dog",
	"horse",
	"motorbike",
	"person",
	"potted plant",
	"sheep",
	"sofa",
	"train",
	"tv/monitor",
}

// MeanBGR is the pixel mean subtracted during preprocessing, in BGR
// channel order as used by the Caffe-lineage FCN models.
var MeanBGR = [3]float64{104.00698793, 116.66876762, 122.67891434}

// IgnoreLabel marks boundary pixels excluded from evaluation.
const IgnoreLabel = 255

// Dataset is one split of a VOC tree rooted at e.g.
// VOCdevkit/VOC2012.
type Dataset struct {
	Root  string
	Split string
	ids   []string
}

// Open reads the id list for a split ("train", "val", ...) under
// root/ImageSets/Segmentation.
func Open(root, split string) (*Dataset, error) {
	listPath := filepath.Join(
		root, "ImageSets", "Segmentation", split+".txt",
	)

	f, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open split list: %w", err)
	}
	defer f.Close()

	var ids []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids = append(ids, id)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read split list: %w", err)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("split %q is empty", split)
	}

	return &Dataset{Root: root, Split: split, ids: ids}, nil
}

// Len returns the number of images in the split.
func (d *Dataset) Len() int { return len(d.ids) }

// ImagePath returns the JPEG path of the i-th image.
func (d *Dataset) ImagePath(i int) string {
	return filepath.Join(d.Root, "JPEGImages", d.ids[i]+".jpg")
}

// LabelPath returns the segmentation label PNG path of the i-th image.
func (d *Dataset) LabelPath(i int) string {
	return filepath.Join(d.Root, "SegmentationClass", d.ids[i]+".png")
}

// Transform converts an image to a 3 x H x W tensor in BGR channel
// order with the dataset mean subtracted.
func Transform(img image.Image) *nn.Tensor {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	t := nn.NewTensor(3, h, w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			t.Set(0, y, x, float64(b>>8)-MeanBGR[0])
			t.Set(1, y, x, float64(g>>8)-MeanBGR[1])
			t.Set(2, y, x, float64(r>>8)-MeanBGR[2])
		}
	}

	return t
}

// DecodeLabel converts a palette-indexed label image into per-pixel
// class ids. Index 255 stays IgnoreLabel.
func DecodeLabel(img image.Image) ([]uint8, int, int, error) {
	p, ok := img.(*image.Paletted)
	if !ok {
		return nil, 0, 0, fmt.Errorf(
			"label image is %T, want palette-indexed", img,
		)
	}

	bounds := p.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	out := make([]uint8, h*w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = p.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y)
		}
	}

	return out, h, w, nil
}

// ColorMap returns the first n entries of the VOC label palette, each
// as an RGB triple. Colors follow the devkit's bit-interleaving
// scheme.
func ColorMap(n int) [][3]uint8 {
	out := make([][3]uint8, n)

	for i := range out {
		id := i

		var r, g, b uint8
		for j := 0; j < 8; j++ {
			r |= uint8(id&1) << (7 - j)
			g |= uint8(id>>1&1) << (7 - j)
			b |= uint8(id>>2&1) << (7 - j)
			id >>= 3
		}

		out[i] = [3]uint8{r, g, b}
	}

	return out
}
