package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// RunConfig holds parameters for a single harness execution.
type RunConfig struct {
	Model        string
	Device       int
	Times        int
	DynamicInput bool
	Seed         int64
	Timeout      time.Duration
}

// Runner launches and manages a single framework harness binary.
type Runner struct {
	Name       string
	BinaryPath string
	ExtraArgs  []string
	Env        []string
	Logger     *slog.Logger
}

// NewRunner creates a Runner for the named framework. For script
// frameworks pass the interpreter as binaryPath and the script in
// extraArgs. Env is appended to the inherited environment.
func NewRunner(
	name, binaryPath string,
	extraArgs, env []string,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Name:       name,
		BinaryPath: binaryPath,
		ExtraArgs:  extraArgs,
		Env:        env,
		Logger:     logger.With(slog.String("framework", name)),
	}
}

// Run executes the harness binary and returns the parsed result.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(r.ExtraArgs)+9)
	args = append(args, r.ExtraArgs...)
	args = append(args,
		"--model", cfg.Model,
		"--gpu", strconv.Itoa(cfg.Device),
		"--times", strconv.Itoa(cfg.Times),
		"--seed", strconv.FormatInt(cfg.Seed, 10),
	)

	if cfg.DynamicInput {
		args = append(args, "--dynamic-input")
	}

	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Info("starting harness",
		slog.String("binary", r.BinaryPath),
		slog.String("model", cfg.Model),
		slog.Int("times", cfg.Times),
		slog.Bool("dynamic_input", cfg.DynamicInput),
	)

	wallStart := time.Now()

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf(
			"harness %s failed: %w\nstderr: %s",
			r.Name, err, stderr.String(),
		)
	}

	wallElapsed := time.Since(wallStart)

	r.Logger.Info("harness finished",
		slog.Duration("wall_time", wallElapsed),
	)

	result, err := parseResult(r.Name, &stdout)
	if err != nil {
		return nil, fmt.Errorf(
			"parse %s output: %w\nstdout: %s",
			r.Name, err, stdout.String(),
		)
	}

	return result, nil
}

func parseResult(framework string, r io.Reader) (*Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	if result.Framework == "" {
		result.Framework = framework
	}

	if result.ElapsedSeconds <= 0 {
		return nil, fmt.Errorf(
			"elapsed_seconds must be > 0, got %v", result.ElapsedSeconds,
		)
	}

	return &result, nil
}
