// Package fcn defines the fully convolutional segmentation models
// benchmarked by fcnbench: FCN32s, FCN16s, FCN8s, and FCN8sAtOnce, all
// built on a VGG-16 style backbone with in-network upsampling.
package fcn

import "fmt"

// Config controls model width. The topology (padding, pooling, skip
// connections, crop offsets) is fixed by the architecture; widths are
// configurable so tests can run the full graph at a fraction of the
// default cost.
type Config struct {
	// NumClasses is the number of output score channels.
	NumClasses int
	// Channels holds the widths of the five convolution blocks.
	Channels [5]int
	// FCWidth is the width of the convolutionalized fc6/fc7 layers.
	FCWidth int
}

// DefaultConfig returns the standard VGG-16 widths with the 21 VOC
// classes.
func DefaultConfig() Config {
	return Config{
		NumClasses: 21,
		Channels:   [5]int{64, 128, 256, 512, 512},
		FCWidth:    4096,
	}
}

// Validate reports whether the config describes a buildable model.
func (c Config) Validate() error {
	if c.NumClasses < 1 {
		return fmt.Errorf("num classes must be >= 1, got %d", c.NumClasses)
	}

	for i, ch := range c.Channels {
		if ch < 1 {
			return fmt.Errorf("block %d width must be >= 1, got %d", i+1, ch)
		}
	}

	if c.FCWidth < 1 {
		return fmt.Errorf("fc width must be >= 1, got %d", c.FCWidth)
	}

	return nil
}
