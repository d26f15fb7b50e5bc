package smoke

import (
	"context"
	"strings"
	"testing"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/pyenv"
)

type scriptedRunner struct {
	result executor.Result
	err    error
	args   []string
}

func (s *scriptedRunner) Run(_ context.Context, _ string, name string, args ...string) (executor.Result, error) {
	s.args = append([]string{name}, args...)
	return s.result, s.err
}

func (s *scriptedRunner) Available(string) bool { return true }

func TestProgramImportsAndReadsVersion(t *testing.T) {
	p := Program("carconnectivity_connectors.audi", "")
	if !strings.Contains(p, "import carconnectivity_connectors.audi as pkg") {
		t.Fatalf("missing import:\n%s", p)
	}
	if !strings.Contains(p, "__version__") {
		t.Fatalf("missing version read:\n%s", p)
	}
	if strings.Contains(p, "except Exception") {
		t.Fatalf("no construction block expected without an object:\n%s", p)
	}
}

func TestProgramCatchesConstructionFailure(t *testing.T) {
	p := Program("carconnectivity_connectors.audi", "carconnectivity.carconnectivity.CarConnectivity")
	if !strings.Contains(p, "from carconnectivity.carconnectivity import CarConnectivity") {
		t.Fatalf("missing object import:\n%s", p)
	}
	if !strings.Contains(p, "except Exception as exc:") {
		t.Fatalf("construction must be wrapped in try/except:\n%s", p)
	}
	if !strings.Contains(p, "construction failed as expected") {
		t.Fatalf("caught failure must be reported, not raised:\n%s", p)
	}
}

func TestRunParsesVersionFromMarker(t *testing.T) {
	sr := &scriptedRunner{result: executor.Result{
		Stdout: []byte("ccdev-smoke-version:0.9.1\nconstruction failed as expected: no credentials\n"),
	}}
	env := pyenv.New(t.TempDir(), ".venv-test")

	out, err := Run(context.Background(), sr, env, "carconnectivity_connectors.audi", "carconnectivity.carconnectivity.CarConnectivity")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Version != "0.9.1" {
		t.Fatalf("expected version 0.9.1, got %q", out.Version)
	}
	if sr.args[1] != "-c" {
		t.Fatalf("expected python -c invocation, got %v", sr.args)
	}
}

func TestRunCaughtConstructionFailureIsSuccess(t *testing.T) {
	sr := &scriptedRunner{result: executor.Result{
		Stdout:   []byte("ccdev-smoke-version:0.9.1\nconstruction failed as expected: bad credentials\n"),
		ExitCode: 0,
	}}
	env := pyenv.New(t.TempDir(), ".venv-test")

	if _, err := Run(context.Background(), sr, env, "m", "a.B"); err != nil {
		t.Fatalf("caught construction failure must not fail the procedure: %v", err)
	}
}

func TestRunUncaughtExceptionIsFatal(t *testing.T) {
	sr := &scriptedRunner{result: executor.Result{
		Stderr:   []byte("Traceback (most recent call last):\nModuleNotFoundError: No module named 'x'\n"),
		ExitCode: 1,
	}}
	env := pyenv.New(t.TempDir(), ".venv-test")

	_, err := Run(context.Background(), sr, env, "x", "")
	if err == nil {
		t.Fatalf("expected error for non-zero interpreter exit")
	}
	if !strings.Contains(err.Error(), "ModuleNotFoundError") {
		t.Fatalf("error should carry the interpreter diagnostic: %v", err)
	}
}
