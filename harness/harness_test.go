package harness

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gchoi/fcnbench/bench"
)

func TestParseResult(t *testing.T) {
	input := `{
		"run_id": "cu0hqfp4vot2hrf00000",
		"framework": "pytorch",
		"model": "FCN32s",
		"device": 0,
		"times": 1000,
		"dynamic_input": false,
		"elapsed_seconds": 45.5,
		"hz": 21.978
	}`

	result, err := parseResult("pytorch", bytes.NewReader([]byte(input)))
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}

	if result.Framework != "pytorch" {
		t.Errorf("framework = %q, want pytorch", result.Framework)
	}
	if result.Model != "FCN32s" {
		t.Errorf("model = %q, want FCN32s", result.Model)
	}
	if result.Times != 1000 {
		t.Errorf("times = %d, want 1000", result.Times)
	}
	if result.ElapsedSeconds != 45.5 {
		t.Errorf("elapsed_seconds = %v, want 45.5", result.ElapsedSeconds)
	}
	if result.Hz != 21.978 {
		t.Errorf("hz = %v, want 21.978", result.Hz)
	}
}

func TestParseResultFillsFramework(t *testing.T) {
	input := `{"model": "FCN8s", "elapsed_seconds": 1.5}`

	result, err := parseResult("chainer", bytes.NewReader([]byte(input)))
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}

	if result.Framework != "chainer" {
		t.Errorf("framework = %q, want chainer", result.Framework)
	}
}

func TestParseResultInvalidJSON(t *testing.T) {
	_, err := parseResult("test", strings.NewReader("not json at all"))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseResultRejectsNonPositiveElapsed(t *testing.T) {
	_, err := parseResult("test",
		strings.NewReader(`{"model": "FCN32s", "elapsed_seconds": 0}`))
	if err == nil {
		t.Error("expected error for elapsed_seconds = 0")
	}
}

func TestNewResult(t *testing.T) {
	cfg := bench.Config{
		Device:       1,
		Times:        100,
		DynamicInput: true,
		Seed:         42,
	}
	m := bench.Measurement{Elapsed: 2 * time.Second, Times: 100}

	r := NewResult("id1", "go", "FCN16s", cfg, m)

	if r.RunID != "id1" || r.Framework != "go" || r.Model != "FCN16s" {
		t.Errorf("identity fields wrong: %+v", r)
	}
	if r.Device != 1 || r.Times != 100 || !r.DynamicInput {
		t.Errorf("config fields wrong: %+v", r)
	}
	if r.ElapsedSeconds != 2 {
		t.Errorf("elapsed_seconds = %v, want 2", r.ElapsedSeconds)
	}
	if r.Hz != 50 {
		t.Errorf("hz = %v, want 50", r.Hz)
	}
}

func TestResolveBinary(t *testing.T) {
	tests := []struct {
		framework string
		want      string
	}{
		{"go", filepath.Join("h", "go", "fcnbench-harness")},
		{"pytorch", filepath.Join("h", "pytorch", "speedtest.py")},
		{"chainer", filepath.Join("h", "chainer", "speedtest.py")},
		{"mxnet", filepath.Join("h", "mxnet", "mxnet-harness")},
	}

	for _, tt := range tests {
		if got := ResolveBinary("h", tt.framework); got != tt.want {
			t.Errorf("ResolveBinary(%s) = %q, want %q",
				tt.framework, got, tt.want)
		}
	}
}

func TestWrapCommand(t *testing.T) {
	direct := WrapCommand("go", "/bin/fcnbench-harness")
	if direct.Binary != "/bin/fcnbench-harness" || len(direct.ExtraArgs) != 0 {
		t.Errorf("go wrap = %+v, want direct execution", direct)
	}

	script := WrapCommand("pytorch", "/h/pytorch/speedtest.py")
	if script.Binary != "python3" {
		t.Errorf("pytorch binary = %q, want python3", script.Binary)
	}
	if len(script.ExtraArgs) != 1 || script.ExtraArgs[0] != "/h/pytorch/speedtest.py" {
		t.Errorf("pytorch args = %v, want the script path", script.ExtraArgs)
	}
}

func TestKnownFrameworksIncludesNative(t *testing.T) {
	for _, f := range KnownFrameworks() {
		if f == "go" {
			return
		}
	}

	t.Error("native framework missing from KnownFrameworks")
}
