// Package harness manages execution of per-framework inference
// benchmark binaries behind a common CLI and JSON contract.
package harness

import "github.com/gchoi/fcnbench/bench"

// Result holds the structured output from a harness execution. Every
// framework, the native Go engine included, reports this shape as
// JSON on stdout.
type Result struct {
	RunID          string  `json:"run_id"`
	Framework      string  `json:"framework"`
	Model          string  `json:"model"`
	Device         int     `json:"device"`
	Times          int     `json:"times"`
	DynamicInput   bool    `json:"dynamic_input"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Hz             float64 `json:"hz"`
}

// NewResult assembles a Result from a finished in-process measurement.
func NewResult(
	runID, framework, model string,
	cfg bench.Config,
	m bench.Measurement,
) Result {
	return Result{
		RunID:          runID,
		Framework:      framework,
		Model:          model,
		Device:         cfg.Device,
		Times:          m.Times,
		DynamicInput:   cfg.DynamicInput,
		ElapsedSeconds: m.Elapsed.Seconds(),
		Hz:             m.Hz(),
	}
}
