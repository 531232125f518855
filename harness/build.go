package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// KnownFrameworks returns the list of supported framework names.
// "go" is the native engine; the others are script harnesses shipped
// under the harnesses directory.
func KnownFrameworks() []string {
	return []string{"go", "pytorch", "chainer"}
}

// ResolveBinary returns the expected harness entry point for a
// framework given the harnesses root directory.
func ResolveBinary(harnessesDir, framework string) string {
	switch framework {
	case "go":
		return filepath.Join(harnessesDir, "go", "fcnbench-harness")
	case "pytorch", "chainer":
		return filepath.Join(harnessesDir, framework, "speedtest.py")
	default:
		return filepath.Join(harnessesDir, framework, framework+"-harness")
	}
}

// Build produces the harness entry point for the given framework. The
// native Go harness is compiled from this repository; script
// frameworks have nothing to build and are only checked for presence.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	harnessesDir string,
	framework string,
) (string, error) {
	binPath := ResolveBinary(harnessesDir, framework)

	switch framework {
	case "go":
		logger.InfoContext(ctx, "building harness",
			slog.String("framework", framework),
			slog.String("binary", binPath),
		)

		cmd := exec.CommandContext(
			ctx, "go", "build", "-o", binPath,
			"github.com/gchoi/fcnbench/cmd/fcnbench-harness",
		)
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("build %s: %w", framework, err)
		}

	case "pytorch", "chainer":
		// Interpreter-run scripts are provided, not built.

	default:
		return "", fmt.Errorf("unknown framework %q", framework)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf(
			"harness for %s not found at %s", framework, binPath,
		)
	}

	logger.InfoContext(ctx, "harness ready",
		slog.String("framework", framework),
		slog.String("binary", binPath),
	)

	return binPath, nil
}

// CommandConfig holds the resolved command, extra arguments, and
// environment variables needed to run a harness.
type CommandConfig struct {
	Binary    string
	ExtraArgs []string
	Env       []string
}

// WrapCommand returns the exec configuration for a harness entry
// point. Compiled harnesses run directly; python scripts run through
// the interpreter with unbuffered output so failures surface promptly.
func WrapCommand(framework, binPath string) CommandConfig {
	switch framework {
	case "pytorch", "chainer":
		return CommandConfig{
			Binary:    "python3",
			ExtraArgs: []string{binPath},
			Env:       []string{"PYTHONUNBUFFERED=1"},
		}
	default:
		return CommandConfig{Binary: binPath}
	}
}
