// Package main provides the CLI entry point for fcnbench, an FCN
// semantic segmentation inference benchmark.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gchoi/fcnbench/bench"
	"github.com/gchoi/fcnbench/device"
	"github.com/gchoi/fcnbench/engine"
	"github.com/gchoi/fcnbench/fcn"
	"github.com/gchoi/fcnbench/harness"
	"github.com/gchoi/fcnbench/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "fcnbench",
		Short: "FCN semantic segmentation inference benchmark",
		Long: `Fcnbench measures forward-inference throughput of the FCN32s,
FCN16s, FCN8s, and FCN8sAtOnce segmentation models and compares the
native Go engine against external deep-learning framework harnesses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSpeedtestCmd(logger))
	root.AddCommand(newCompareCmd(logger))
	root.AddCommand(newDevicesCmd())

	return root
}

func newSpeedtestCmd(logger *slog.Logger) *cobra.Command {
	var (
		gpu          int
		times        int
		dynamicInput bool
		models       []string
		seed         int64
		inputHeight  int
		inputWidth   int
		vocRoot      string
		outputJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "speedtest",
		Short: "Benchmark the native engine's forward passes",
		Long: `Run repeated forward passes through each selected model on the
chosen device and report elapsed wall-clock time and throughput.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSpeedtest(logger, speedtestConfig{
				gpu:          gpu,
				times:        times,
				dynamicInput: dynamicInput,
				models:       models,
				seed:         seed,
				inputHeight:  inputHeight,
				inputWidth:   inputWidth,
				vocRoot:      vocRoot,
				outputJSON:   outputJSON,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&gpu, "gpu", "g", 0,
		"Device index to run on")
	flags.IntVar(&times, "times", bench.DefaultTimes,
		"Number of forward passes per model")
	flags.BoolVar(&dynamicInput, "dynamic-input", false,
		"Randomize the input shape on every iteration")
	flags.StringSliceVar(&models, "models", fcn.Names(),
		"Models to benchmark")
	flags.Int64Var(&seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.IntVar(&inputHeight, "input-height", 480,
		"Static input height in pixels")
	flags.IntVar(&inputWidth, "input-width", 640,
		"Static input width in pixels")
	flags.StringVar(&vocRoot, "voc-root", "",
		"Feed images from a local VOC dataset instead of random tensors")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of text")

	return cmd
}

type speedtestConfig struct {
	gpu          int
	times        int
	dynamicInput bool
	models       []string
	seed         int64
	inputHeight  int
	inputWidth   int
	vocRoot      string
	outputJSON   bool
}

func runSpeedtest(logger *slog.Logger, cfg speedtestConfig) error {
	if len(cfg.models) == 0 {
		return fmt.Errorf("at least one model must be specified via --models")
	}

	benchCfg := bench.Config{
		Device:       cfg.gpu,
		Times:        cfg.times,
		DynamicInput: cfg.dynamicInput,
		Seed:         resolveSeed(cfg.seed),
	}

	logger.Info("starting benchmark",
		slog.Int("gpu", benchCfg.Device),
		slog.Int("times", benchCfg.Times),
		slog.Bool("dynamic_input", benchCfg.DynamicInput),
		slog.Int64("seed", benchCfg.Seed),
		slog.Any("models", cfg.models),
	)

	if !cfg.outputJSON {
		report.WriteHeader(os.Stdout, benchCfg)
	}

	results := make([]harness.Result, 0, len(cfg.models))

	for _, model := range cfg.models {
		result, err := engine.Run(logger, benchCfg, engine.Options{
			Model:   model,
			InputH:  cfg.inputHeight,
			InputW:  cfg.inputWidth,
			VOCRoot: cfg.vocRoot,
		})
		if err != nil {
			return fmt.Errorf("speedtest %s: %w", model, err)
		}

		if !cfg.outputJSON {
			report.WriteRun(os.Stdout, *result)
		}

		results = append(results, *result)
	}

	if cfg.outputJSON {
		if err := report.GenerateJSON(os.Stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	}

	logger.Info("benchmark complete")

	return nil
}

func newCompareCmd(logger *slog.Logger) *cobra.Command {
	var (
		gpu          int
		times        int
		dynamicInput bool
		models       []string
		seed         int64
		frameworks   []string
		harnessesDir string
		skipBuild    bool
		timeout      time.Duration
		outputJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare frameworks through their benchmark harnesses",
		Long: `Run the same benchmark configuration through one or more framework
harnesses (the native Go engine plus external script harnesses) and
report a comparison table.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd.Context(), logger, compareConfig{
				gpu:          gpu,
				times:        times,
				dynamicInput: dynamicInput,
				models:       models,
				seed:         seed,
				frameworks:   frameworks,
				harnessesDir: harnessesDir,
				skipBuild:    skipBuild,
				timeout:      timeout,
				outputJSON:   outputJSON,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&gpu, "gpu", "g", 0,
		"Device index to run on")
	flags.IntVar(&times, "times", bench.DefaultTimes,
		"Number of forward passes per model")
	flags.BoolVar(&dynamicInput, "dynamic-input", false,
		"Randomize the input shape on every iteration")
	flags.StringSliceVar(&models, "models", fcn.Names(),
		"Models to benchmark")
	flags.Int64Var(&seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.StringSliceVar(&frameworks, "frameworks", []string{"go"},
		"Frameworks to compare (e.g. go,pytorch,chainer)")
	flags.StringVar(&harnessesDir, "harnesses-dir", "",
		"Path to harnesses directory (default: ./harnesses)")
	flags.BoolVar(&skipBuild, "skip-build", false,
		"Skip building harness binaries")
	flags.DurationVar(&timeout, "timeout", time.Hour,
		"Per-harness execution timeout")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of table")

	return cmd
}

type compareConfig struct {
	gpu          int
	times        int
	dynamicInput bool
	models       []string
	seed         int64
	frameworks   []string
	harnessesDir string
	skipBuild    bool
	timeout      time.Duration
	outputJSON   bool
}

func runCompare(
	ctx context.Context,
	logger *slog.Logger,
	cfg compareConfig,
) error {
	if len(cfg.frameworks) == 0 {
		return fmt.Errorf(
			"at least one framework must be specified via --frameworks",
		)
	}

	if len(cfg.models) == 0 {
		return fmt.Errorf("at least one model must be specified via --models")
	}

	seed := resolveSeed(cfg.seed)

	logger.InfoContext(ctx, "starting comparison",
		slog.Int("gpu", cfg.gpu),
		slog.Int("times", cfg.times),
		slog.Bool("dynamic_input", cfg.dynamicInput),
		slog.Int64("seed", seed),
		slog.Any("frameworks", cfg.frameworks),
		slog.Any("models", cfg.models),
	)

	harnessesDir := cfg.harnessesDir
	if harnessesDir == "" {
		harnessesDir = "harnesses"
	}

	harnessesDir, err := filepath.Abs(harnessesDir)
	if err != nil {
		return fmt.Errorf("resolve harnesses dir: %w", err)
	}

	// Step 1: Build or locate harness entry points.
	binaries := make(map[string]string, len(cfg.frameworks))

	for _, framework := range cfg.frameworks {
		binPath := harness.ResolveBinary(harnessesDir, framework)

		if !cfg.skipBuild {
			binPath, err = harness.Build(ctx, logger, harnessesDir, framework)
			if err != nil {
				return fmt.Errorf("build %s: %w", framework, err)
			}
		}

		binaries[framework] = binPath
	}

	// Step 2: Run each framework x model pair sequentially.
	results := make([]harness.Result, 0, len(cfg.frameworks)*len(cfg.models))

	for _, framework := range cfg.frameworks {
		cmdCfg := harness.WrapCommand(framework, binaries[framework])
		runner := harness.NewRunner(
			framework, cmdCfg.Binary, cmdCfg.ExtraArgs, cmdCfg.Env, logger,
		)

		for _, model := range cfg.models {
			result, runErr := runner.Run(ctx, harness.RunConfig{
				Model:        model,
				Device:       cfg.gpu,
				Times:        cfg.times,
				DynamicInput: cfg.dynamicInput,
				Seed:         seed,
				Timeout:      cfg.timeout,
			})
			if runErr != nil {
				return fmt.Errorf("run %s/%s: %w", framework, model, runErr)
			}

			results = append(results, *result)
		}
	}

	// Step 3: Generate report.
	if cfg.outputJSON {
		if err := report.GenerateJSON(os.Stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "comparison complete")

	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available compute devices",
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, d := range device.List() {
				fmt.Println(d)
			}

			return nil
		},
	}
}

func resolveSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}

	return seed
}
