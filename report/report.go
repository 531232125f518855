// Package report formats benchmark measurements, both the classic
// per-run text block and cross-framework comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/gchoi/fcnbench/bench"
	"github.com/gchoi/fcnbench/harness"
)

// WriteHeader prints the configuration banner for a benchmark run.
func WriteHeader(w io.Writer, cfg bench.Config) {
	fmt.Fprintf(w, "==> Benchmark: gpu=%d, times=%d, dynamic_input=%t\n",
		cfg.Device, cfg.Times, cfg.DynamicInput)
}

// WriteRun prints the measurement block for one (model, framework)
// pair in the classic speedtest format.
func WriteRun(w io.Writer, r harness.Result) {
	fmt.Fprintf(w, "==> Testing %s with %s\n", r.Model, r.Framework)
	fmt.Fprintf(w, "Elapsed time: %.2f [s / %d evals]\n",
		r.ElapsedSeconds, r.Times)
	fmt.Fprintf(w, "Hz: %.2f [hz]\n", r.Hz)
}

// Generate writes a markdown comparison table for the given results,
// with speedup relative to the highest-throughput run. The fastest
// row is highlighted when the output supports color.
func Generate(w io.Writer, results []harness.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	fastest := findFastest(results)

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Framework | Model | Dynamic | Elapsed | Hz | Slowdown |")
	fmt.Fprintln(w, "|-----------|-------|---------|---------|----|----------|")

	for _, r := range results {
		slowdown := 1.0
		if r.Hz > 0 && fastest > 0 {
			slowdown = fastest / r.Hz
		}

		name := r.Framework
		if r.Hz == fastest {
			name = color.GreenString(name)
		}

		fmt.Fprintf(w, "| %s | %s | %t | %s | %.2f | %.2fx |\n",
			name,
			r.Model,
			r.DynamicInput,
			formatSeconds(r.ElapsedSeconds),
			r.Hz,
			slowdown,
		)
	}

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func findFastest(results []harness.Result) float64 {
	fastest := 0.0
	for _, r := range results {
		if r.Hz > fastest {
			fastest = r.Hz
		}
	}

	return fastest
}

func formatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.0fms", s*1000)
	}

	return fmt.Sprintf("%.2fs", s)
}
