// The fcnbench harness for the native Go engine. It speaks the common
// harness contract: benchmark parameters come in as flags, the result
// goes out as JSON on stdout, and any failure exits non-zero with a
// diagnostic on stderr.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gchoi/fcnbench/bench"
	"github.com/gchoi/fcnbench/engine"
)

func main() {
	model := flag.String("model", "FCN32s", "model to benchmark")
	gpu := flag.Int("gpu", 0, "device index")
	times := flag.Int("times", bench.DefaultTimes, "number of forward passes")
	dynamicInput := flag.Bool("dynamic-input", false,
		"randomize the input shape on every iteration")
	seed := flag.Int64("seed", 0, "random seed (0 = use current time)")
	inputHeight := flag.Int("input-height", 480, "static input height")
	inputWidth := flag.Int("input-width", 640, "static input width")
	vocRoot := flag.String("voc-root", "",
		"feed images from a local VOC dataset")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	cfg := bench.Config{
		Device:       *gpu,
		Times:        *times,
		DynamicInput: *dynamicInput,
		Seed:         *seed,
	}

	result, err := engine.Run(logger, cfg, engine.Options{
		Model:   *model,
		InputH:  *inputHeight,
		InputW:  *inputWidth,
		VOCRoot: *vocRoot,
	})
	if err != nil {
		fatal("benchmark failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(result); err != nil {
		fatal("encode result: %v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
