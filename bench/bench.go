// Package bench implements the inference speed benchmark harness: it
// drives a model's forward pass for a fixed number of iterations,
// timing only the loop, and reports elapsed wall-clock time and
// throughput.
package bench

import (
	"fmt"
	"time"

	"github.com/gchoi/fcnbench/nn"
)

// DefaultTimes is the default number of forward passes per benchmark.
const DefaultTimes = 1000

// Config describes a single benchmark run. It is built once from CLI
// flags and never mutated.
type Config struct {
	Device       int
	Times        int
	DynamicInput bool
	Seed         int64
}

// Measurement is the outcome of one timed benchmark loop.
type Measurement struct {
	Elapsed time.Duration
	Times   int
}

// Hz returns the throughput in forward passes per second.
func (m Measurement) Hz() float64 {
	return float64(m.Times) / m.Elapsed.Seconds()
}

// Step performs one forward pass over the given input. The output is
// discarded by the harness.
type Step func(x *nn.Tensor) error

// Run executes step exactly times times, pulling a fresh input from
// gen before each pass, and measures wall-clock time around the loop.
// One-time model and device setup happens before Run and is therefore
// excluded. Any error is fatal: the loop stops and the error is
// returned with no partial measurement.
func Run(gen InputGenerator, step Step, times int) (Measurement, error) {
	if times <= 0 {
		return Measurement{}, fmt.Errorf("times must be > 0, got %d", times)
	}

	start := time.Now()

	for i := 0; i < times; i++ {
		x, err := gen.Next()
		if err != nil {
			return Measurement{}, fmt.Errorf("generate input %d: %w", i, err)
		}

		if err := step(x); err != nil {
			return Measurement{}, fmt.Errorf("inference %d: %w", i, err)
		}
	}

	elapsed := time.Since(start)
	if elapsed <= 0 {
		// Granularity guard on platforms with a coarse clock.
		elapsed = time.Nanosecond
	}

	return Measurement{Elapsed: elapsed, Times: times}, nil
}
